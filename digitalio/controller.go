// Package digitalio 控制 8 路數位輸入/輸出模組
package digitalio

import (
	"context"
	"fmt"

	"waveshare-io/bus"
)

// Controller 數位 I/O 控制器
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

// NewSerial 以序列埠建立控制器 (預設 9600 8N1、位址 1)
func NewSerial(port string, opts ...bus.Option) (*Controller, error) {
	cfg := bus.DefaultSerialConfig(port)
	cfg.BaudRate = bus.ApplyOptions(opts...).BaudRate
	return New(bus.NewSerialTransport(cfg), opts...)
}

// Address 目前使用的設備位址
func (c *Controller) Address() uint8 {
	return c.node.Unit()
}

// SetAddress 變更本地設備位址，不寫入設備
func (c *Controller) SetAddress(addr int) error {
	return c.node.SetUnit(addr)
}

// Connect 建立連線
func (c *Controller) Connect(ctx context.Context) error {
	return c.node.Connect(ctx)
}

// Close 關閉傳輸層
func (c *Controller) Close() error {
	return c.node.Close()
}

// SetChannel 設定單一輸出通道
func (c *Controller) SetChannel(ctx context.Context, ch bus.Channel, on bool) error {
	return c.node.WriteCoil(ctx, CoilOutputChannels, ch, bus.CoilValue(on))
}

// SetChannelOn 開啟輸出通道
func (c *Controller) SetChannelOn(ctx context.Context, ch bus.Channel) error {
	return c.SetChannel(ctx, ch, true)
}

// SetChannelOff 關閉輸出通道
func (c *Controller) SetChannelOff(ctx context.Context, ch bus.Channel) error {
	return c.SetChannel(ctx, ch, false)
}

// SetChannels 從 start 起依序設定多個輸出通道
//
// 不是原子操作：中途失敗返回 *bus.PartialWriteError，已寫入的通道維持新狀態。
func (c *Controller) SetChannels(ctx context.Context, start bus.Channel, actions []bus.Action) error {
	return c.node.WriteCoilSpan(ctx, CoilOutputChannels, start, actions)
}

// SetAllChannels 以單一指令控制全部輸出 (on/off/flip)
func (c *Controller) SetAllChannels(ctx context.Context, action bus.Action) error {
	if !action.Valid() {
		return fmt.Errorf("%w: 0x%04X", bus.ErrInvalidAction, uint16(action))
	}
	return c.node.Transport().WriteSingleCoil(ctx, c.node.Unit(), CoilControlAll, uint16(action))
}

// ToggleChannel 翻轉單一輸出通道
func (c *Controller) ToggleChannel(ctx context.Context, ch bus.Channel) error {
	return c.node.WriteCoil(ctx, CoilOutputChannels, ch, uint16(bus.ActionFlip))
}

// SetChannelControlMode 設定通道控制模式
//
// 韌體將模式寫在與輸出線圈相同的位址 (CoilOutputChannels + ch) 的保持暫存器，
// 而非 HoldingControlMode。位址保留原樣，尚待硬體文件確認。
func (c *Controller) SetChannelControlMode(ctx context.Context, ch bus.Channel, mode ControlMode) error {
	addr, err := bus.ChannelAddress(CoilOutputChannels, ch)
	if err != nil {
		return err
	}
	return c.node.Transport().WriteMultipleRegisters(ctx, c.node.Unit(), addr, []uint16{uint16(mode)})
}

// ReadChannels 讀取 8 路數位輸入
func (c *Controller) ReadChannels(ctx context.Context) (bus.BankState, error) {
	return c.node.ReadDiscreteBank(ctx, DiscreteInputChannels)
}

// ReadOutputChannels 讀取 8 路輸出目前狀態
func (c *Controller) ReadOutputChannels(ctx context.Context) (bus.BankState, error) {
	return c.node.ReadCoilBank(ctx, CoilOutputChannels)
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
