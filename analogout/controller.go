// Package analogout 控制 8 路類比輸出模組
package analogout

import (
	"context"
	"fmt"

	"waveshare-io/bus"
)

// Controller 類比輸出控制器
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

// SetChannel 設定單一通道輸出值 (V 或 mA)
func (c *Controller) SetChannel(ctx context.Context, ch bus.Channel, value float64) error {
	addr, err := bus.ChannelAddress(HoldingOutputs, ch)
	if err != nil {
		return err
	}
	raw, err := bus.ToRawChecked(value)
	if err != nil {
		return fmt.Errorf("%v: %w", ch, err)
	}
	return c.node.Transport().WriteSingleRegister(ctx, c.node.Unit(), addr, raw)
}

// SetChannels 以單次寫入設定全部 8 個通道
func (c *Controller) SetChannels(ctx context.Context, values [bus.BankSize]float64) error {
	raws := make([]uint16, bus.BankSize)
	for i, v := range values {
		raw, err := bus.ToRawChecked(v)
		if err != nil {
			return fmt.Errorf("%v: %w", bus.Channel(i), err)
		}
		raws[i] = raw
	}
	return c.node.Transport().WriteMultipleRegisters(ctx, c.node.Unit(), HoldingOutputs, raws)
}

// ChannelValues 讀回全部 8 個通道的設定值
func (c *Controller) ChannelValues(ctx context.Context) ([bus.BankSize]float64, error) {
	var values [bus.BankSize]float64

	regs, err := c.node.Transport().ReadHoldingRegisters(ctx, c.node.Unit(), HoldingOutputs, bus.BankSize)
	if err != nil {
		return values, err
	}
	if len(regs) < bus.BankSize {
		return values, fmt.Errorf("回應暫存器數量不足: %d", len(regs))
	}

	for i := range values {
		values[i] = bus.ToEngineering(regs[i])
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
