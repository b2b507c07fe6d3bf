// Package analogin 控制 8 路類比輸入模組
package analogin

import (
	"context"
	"errors"
	"fmt"

	"waveshare-io/bus"
)

// ErrInvalidChannelType 通道類型不在 0-4
var ErrInvalidChannelType = errors.New("無效的通道類型")

// Controller 類比輸入控制器
type Controller struct {
	node bus.Node
}

// New 以既有傳輸層建立控制器
func New(t bus.Transport, opts ...bus.Option) (*Controller, error) {
	node, err := bus.NewNode(t, opts...)
	if err != nil {
		return nil, err
	}
	return &Controller{node: node}, nil
}

// NewSerial 以序列埠建立控制器
func NewSerial(port string, opts ...bus.Option) (*Controller, error) {
	cfg := bus.DefaultSerialConfig(port)
	cfg.BaudRate = bus.ApplyOptions(opts...).BaudRate
	return New(bus.NewSerialTransport(cfg), opts...)
}

func (c *Controller) Address() uint8 {
	return c.node.Unit()
}

func (c *Controller) SetAddress(addr int) error {
	return c.node.SetUnit(addr)
}

func (c *Controller) Connect(ctx context.Context) error {
	return c.node.Connect(ctx)
}

func (c *Controller) Close() error {
	return c.node.Close()
}

// SetChannelType 設定單一通道的訊號類型
func (c *Controller) SetChannelType(ctx context.Context, ch bus.Channel, t ChannelType) error {
	addr, err := bus.ChannelAddress(HoldingChannelTypes, ch)
	if err != nil {
		return err
	}
	if !t.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidChannelType, t)
	}
	return c.node.Transport().WriteSingleRegister(ctx, c.node.Unit(), addr, uint16(t))
}

// ChannelType 讀取單一通道的訊號類型
func (c *Controller) ChannelType(ctx context.Context, ch bus.Channel) (ChannelType, error) {
	addr, err := bus.ChannelAddress(HoldingChannelTypes, ch)
	if err != nil {
		return 0, err
	}
	regs, err := c.node.Transport().ReadHoldingRegisters(ctx, c.node.Unit(), addr, 1)
	if err != nil {
		return 0, err
	}
	if len(regs) < 1 {
		return 0, fmt.Errorf("回應暫存器數量不足: %d", len(regs))
	}
	return decodeChannelType(regs[0])
}

// ChannelTypes 讀取全部 8 個通道的訊號類型
func (c *Controller) ChannelTypes(ctx context.Context) ([bus.BankSize]ChannelType, error) {
	var types [bus.BankSize]ChannelType

	regs, err := c.node.Transport().ReadHoldingRegisters(ctx, c.node.Unit(), HoldingChannelTypes, bus.BankSize)
	if err != nil {
		return types, err
	}
	if len(regs) < bus.BankSize {
		return types, fmt.Errorf("回應暫存器數量不足: %d", len(regs))
	}

	for i := range types {
		if types[i], err = decodeChannelType(regs[i]); err != nil {
			return types, fmt.Errorf("%v: %w", bus.Channel(i), err)
		}
	}
	return types, nil
}

// SetChannelTypes 一次寫入全部 8 個通道的訊號類型
func (c *Controller) SetChannelTypes(ctx context.Context, types [bus.BankSize]ChannelType) error {
	values := make([]uint16, bus.BankSize)
	for i, t := range types {
		if !t.Valid() {
			return fmt.Errorf("%w: %v=%d", ErrInvalidChannelType, bus.Channel(i), t)
		}
		values[i] = uint16(t)
	}
	return c.node.Transport().WriteMultipleRegisters(ctx, c.node.Unit(), HoldingChannelTypes, values)
}

// ReadChannel 讀取單一通道工程值 (V 或 mA)
func (c *Controller) ReadChannel(ctx context.Context, ch bus.Channel) (float64, error) {
	addr, err := bus.ChannelAddress(InputChannels, ch)
	if err != nil {
		return 0, err
	}
	regs, err := c.node.Transport().ReadInputRegisters(ctx, c.node.Unit(), addr, 1)
	if err != nil {
		return 0, err
	}
	if len(regs) < 1 {
		return 0, fmt.Errorf("回應暫存器數量不足: %d", len(regs))
	}
	return bus.ToEngineering(regs[0]), nil
}

// ReadChannels 依序逐一讀取 8 個通道
func (c *Controller) ReadChannels(ctx context.Context) ([bus.BankSize]float64, error) {
	var values [bus.BankSize]float64
	for i := range values {
		v, err := c.ReadChannel(ctx, bus.Channel(i))
		if err != nil {
			return values, err
		}
		values[i] = v
	}
	return values, nil
}

// SetDeviceAddress 寫入新的設備位址 (1-255)
func (c *Controller) SetDeviceAddress(ctx context.Context, addr int) error {
	return c.node.WriteDeviceAddress(ctx, HoldingDeviceAddress, addr)
}

// SetUartParameters 寫入鮑率與校驗位
func (c *Controller) SetUartParameters(ctx context.Context, baud bus.Baudrate, parity bus.Parity) error {
	return c.node.WriteUartParameters(ctx, HoldingUartParameters, bus.UartParameters{Baudrate: baud, Parity: parity})
}

// ReadSoftwareVersion 讀取韌體版本
func (c *Controller) ReadSoftwareVersion(ctx context.Context) (uint16, error) {
	return c.node.ReadSoftwareVersion(ctx, HoldingSoftwareVersion)
}

func decodeChannelType(v uint16) (ChannelType, error) {
	t := ChannelType(v)
	if !t.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrInvalidChannelType, v)
	}
	return t, nil
}
