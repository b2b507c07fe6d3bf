package bus

import (
	"context"
	"fmt"
)

// Options 控制器建構選項
type Options struct {
	DeviceAddress int
	BaudRate      int
}

// Option 控制器配置選項
type Option func(*Options)

// WithDeviceAddress 設定設備位址 (預設 1)
func WithDeviceAddress(addr int) Option {
	return func(o *Options) {
		o.DeviceAddress = addr
	}
}

// WithBaudRate 設定序列埠鮑率 (預設 9600)，僅用於 NewSerial
func WithBaudRate(bps int) Option {
	return func(o *Options) {
		o.BaudRate = bps
	}
}

// ApplyOptions 套用選項於預設值之上
func ApplyOptions(opts ...Option) Options {
	o := Options{
		DeviceAddress: DefaultDeviceAddress,
		BaudRate:      DefaultBaudRate,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Node 傳輸層加上設備位址，是各控制器唯一的長期狀態
//
// unit 沒有同步保護，不可在操作進行中並發修改。
type Node struct {
	transport Transport
	unit      uint8
}

// NewNode 建立節點
func NewNode(t Transport, opts ...Option) (Node, error) {
	if t == nil {
		return Node{}, fmt.Errorf("transport 不可為 nil")
	}
	o := ApplyOptions(opts...)
	unit, err := ValidateDeviceAddress(o.DeviceAddress)
	if err != nil {
		return Node{}, err
	}
	return Node{transport: t, unit: unit}, nil
}

// Transport 取得傳輸層
func (n *Node) Transport() Transport {
	return n.transport
}

// Unit 取得目前的設備位址
func (n *Node) Unit() uint8 {
	return n.unit
}

// SetUnit 變更本地使用的設備位址 (不寫入設備)
func (n *Node) SetUnit(addr int) error {
	unit, err := ValidateDeviceAddress(addr)
	if err != nil {
		return err
	}
	n.unit = unit
	return nil
}

// Connect 建立連線
func (n *Node) Connect(ctx context.Context) error {
	return n.transport.Connect(ctx)
}

// Close 關閉連線；共用傳輸層時會影響其他控制器
func (n *Node) Close() error {
	return n.transport.Close()
}

// WriteDeviceAddress 將新位址寫入設備的位址暫存器
//
// 控制器之後仍以舊位址通訊，需要時呼叫 SetUnit。
func (n *Node) WriteDeviceAddress(ctx context.Context, base uint16, addr int) error {
	value, err := ValidateDeviceAddress(addr)
	if err != nil {
		return err
	}
	return n.transport.WriteSingleRegister(ctx, n.unit, base, uint16(value))
}

// WriteUartParameters 寫入序列埠參數
func (n *Node) WriteUartParameters(ctx context.Context, base uint16, params UartParameters) error {
	value, err := params.Register()
	if err != nil {
		return err
	}
	return n.transport.WriteSingleRegister(ctx, n.unit, base, value)
}

// ReadSoftwareVersion 讀取韌體版本原始值
func (n *Node) ReadSoftwareVersion(ctx context.Context, base uint16) (uint16, error) {
	regs, err := n.transport.ReadHoldingRegisters(ctx, n.unit, base, 1)
	if err != nil {
		return 0, err
	}
	if len(regs) < 1 {
		return 0, fmt.Errorf("回應暫存器數量不足: %d", len(regs))
	}
	return regs[0], nil
}

// WriteCoil 寫入單一通道線圈
func (n *Node) WriteCoil(ctx context.Context, base uint16, ch Channel, value uint16) error {
	addr, err := ChannelAddress(base, ch)
	if err != nil {
		return err
	}
	return n.transport.WriteSingleCoil(ctx, n.unit, addr, value)
}

// WriteCoilSpan 從 start 起逐一寫入線圈
//
// 先驗證整批位址再送出；中途失敗時返回 *PartialWriteError，已寫入的不回滾。
// 只有 ActionOn 會寫成 ON，其餘 (含 ActionFlip) 寫成 OFF。
func (n *Node) WriteCoilSpan(ctx context.Context, base uint16, start Channel, actions []Action) error {
	addrs, err := SpanAddresses(base, start, len(actions))
	if err != nil {
		return err
	}

	for i, action := range actions {
		if err := n.transport.WriteSingleCoil(ctx, n.unit, addrs[i], CoilValue(action == ActionOn)); err != nil {
			return &PartialWriteError{Completed: i, Total: len(actions), Err: err}
		}
	}
	return nil
}

// ReadCoilBank 讀取 8 個線圈並解碼
func (n *Node) ReadCoilBank(ctx context.Context, base uint16) (BankState, error) {
	bits, err := n.transport.ReadCoils(ctx, n.unit, base, BankSize)
	if err != nil {
		return BankState{}, err
	}
	return DecodeBank(PackBits(bits)), nil
}

// ReadDiscreteBank 讀取 8 個離散輸入並解碼
func (n *Node) ReadDiscreteBank(ctx context.Context, base uint16) (BankState, error) {
	bits, err := n.transport.ReadDiscreteInputs(ctx, n.unit, base, BankSize)
	if err != nil {
		return BankState{}, err
	}
	return DecodeBank(PackBits(bits)), nil
}
