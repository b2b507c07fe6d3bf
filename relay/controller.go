// Package relay 控制 8 路繼電器模組
package relay

import (
	"context"
	"fmt"
	"time"

	"waveshare-io/bus"
)

// Controller 繼電器控制器
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

// Close 關閉傳輸層
func (c *Controller) Close() error {
	return c.node.Close()
}

// SetChannel 設定單一繼電器，on 為吸合
func (c *Controller) SetChannel(ctx context.Context, ch bus.Channel, on bool) error {
	return c.node.WriteCoil(ctx, CoilRelays, ch, bus.CoilValue(on))
}

// OpenChannel 斷開繼電器
func (c *Controller) OpenChannel(ctx context.Context, ch bus.Channel) error {
	return c.SetChannel(ctx, ch, false)
}

// CloseChannel 吸合繼電器
func (c *Controller) CloseChannel(ctx context.Context, ch bus.Channel) error {
	return c.SetChannel(ctx, ch, true)
}

// SetChannels 從 start 起依序設定多個繼電器，中途失敗返回 *bus.PartialWriteError
func (c *Controller) SetChannels(ctx context.Context, start bus.Channel, actions []bus.Action) error {
	return c.node.WriteCoilSpan(ctx, CoilRelays, start, actions)
}

// SetAllChannels 以單一指令控制全部繼電器
func (c *Controller) SetAllChannels(ctx context.Context, action bus.Action) error {
	if !action.Valid() {
		return fmt.Errorf("%w: 0x%04X", bus.ErrInvalidAction, uint16(action))
	}
	return c.node.Transport().WriteSingleCoil(ctx, c.node.Unit(), CoilControlAll, uint16(action))
}

// ToggleChannel 翻轉單一繼電器
func (c *Controller) ToggleChannel(ctx context.Context, ch bus.Channel) error {
	return c.node.WriteCoil(ctx, CoilRelays, ch, uint16(bus.ActionFlip))
}

// FlashOn 吸合 interval 後自動斷開
func (c *Controller) FlashOn(ctx context.Context, ch bus.Channel, interval time.Duration) error {
	return c.flash(ctx, CoilFlashOn, ch, interval)
}

// FlashOff 斷開 interval 後自動吸合
func (c *Controller) FlashOff(ctx context.Context, ch bus.Channel, interval time.Duration) error {
	return c.flash(ctx, CoilFlashOff, ch, interval)
}

func (c *Controller) flash(ctx context.Context, base uint16, ch bus.Channel, interval time.Duration) error {
	units := interval / FlashUnit
	if units < 1 || interval > MaxFlashInterval {
		return fmt.Errorf("%w: %v (範圍 %v-%v)", bus.ErrInvalidInterval, interval, FlashUnit, MaxFlashInterval)
	}
	return c.node.WriteCoil(ctx, base, ch, uint16(units))
}

// ReadChannels 讀取 8 路繼電器狀態
func (c *Controller) ReadChannels(ctx context.Context) (bus.BankState, error) {
	return c.node.ReadCoilBank(ctx, CoilRelays)
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
