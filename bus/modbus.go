package bus

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"github.com/goburrow/modbus"
)

// SerialConfig RTU 序列埠配置
type SerialConfig struct {
	Port     string
	BaudRate int
	DataBits int
	Parity   string
	StopBits int
	Timeout  time.Duration
}

// DefaultSerialConfig 返回 9600 8N1、逾時 1 秒
func DefaultSerialConfig(port string) SerialConfig {
	return SerialConfig{
		Port:     port,
		BaudRate: DefaultBaudRate,
		DataBits: 8,
		Parity:   "N",
		StopBits: 1,
		Timeout:  time.Second,
	}
}

// TCPConfig Modbus TCP 配置 (序列轉乙太網路閘道)
type TCPConfig struct {
	Address string
	Timeout time.Duration
}

type clientHandler interface {
	modbus.ClientHandler
	Connect() error
	Close() error
}

// ModbusTransport 以 goburrow/modbus 實作 Transport
//
// 所有請求以互斥鎖序列化，並在鎖內設定 SlaveId，
// 因此多個控制器可共用同一實例。
type ModbusTransport struct {
	mu      sync.Mutex
	name    string
	handler clientHandler
	client  modbus.Client
	setUnit func(uint8)
}

// NewSerialTransport 建立 RTU 傳輸層
func NewSerialTransport(cfg SerialConfig) *ModbusTransport {
	handler := modbus.NewRTUClientHandler(cfg.Port)
	if cfg.BaudRate != 0 {
		handler.BaudRate = cfg.BaudRate
	}
	if cfg.DataBits != 0 {
		handler.DataBits = cfg.DataBits
	}
	if cfg.Parity != "" {
		handler.Parity = cfg.Parity
	}
	if cfg.StopBits != 0 {
		handler.StopBits = cfg.StopBits
	}
	if cfg.Timeout != 0 {
		handler.Timeout = cfg.Timeout
	}

	return &ModbusTransport{
		name:    cfg.Port,
		handler: handler,
		client:  modbus.NewClient(handler),
		setUnit: func(unit uint8) { handler.SlaveId = unit },
	}
}

// NewTCPTransport 建立 TCP 傳輸層
func NewTCPTransport(cfg TCPConfig) *ModbusTransport {
	handler := modbus.NewTCPClientHandler(cfg.Address)
	if cfg.Timeout != 0 {
		handler.Timeout = cfg.Timeout
	}

	return &ModbusTransport{
		name:    cfg.Address,
		handler: handler,
		client:  modbus.NewClient(handler),
		setUnit: func(unit uint8) { handler.SlaveId = unit },
	}
}

// String 返回連線目標
func (t *ModbusTransport) String() string {
	return t.name
}

// Connect 建立連線
func (t *ModbusTransport) Connect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.handler.Connect(); err != nil {
		return fmt.Errorf("連線 %s 失敗: %w", t.name, err)
	}
	return nil
}

// Close 關閉連線
func (t *ModbusTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.handler.Close()
}

// do 在鎖內以指定 unit 執行一次請求
func (t *ModbusTransport) do(ctx context.Context, unit uint8, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	t.setUnit(unit)
	return fn()
}

// WriteSingleCoil 寫入單一線圈
//
// goburrow 的 WriteSingleCoil 只接受 0xFF00/0x0000，
// 翻轉與閃爍指令改走原始 PDU。
func (t *ModbusTransport) WriteSingleCoil(ctx context.Context, unit uint8, address, value uint16) error {
	return t.do(ctx, unit, func() error {
		if value == uint16(ActionOn) || value == uint16(ActionOff) {
			_, err := t.client.WriteSingleCoil(address, value)
			return err
		}
		return t.sendRaw(modbus.FuncCodeWriteSingleCoil, address, value)
	})
}

// WriteSingleRegister 寫入單一保持暫存器
func (t *ModbusTransport) WriteSingleRegister(ctx context.Context, unit uint8, address, value uint16) error {
	return t.do(ctx, unit, func() error {
		_, err := t.client.WriteSingleRegister(address, value)
		return err
	})
}

// WriteMultipleRegisters 寫入連續保持暫存器
func (t *ModbusTransport) WriteMultipleRegisters(ctx context.Context, unit uint8, address uint16, values []uint16) error {
	if len(values) == 0 || len(values) > MaxRegistersPerWrite {
		return fmt.Errorf("暫存器數量超出範圍: %d", len(values))
	}
	return t.do(ctx, unit, func() error {
		_, err := t.client.WriteMultipleRegisters(address, uint16(len(values)), RegistersToBytes(values))
		return err
	})
}

// ReadHoldingRegisters 讀取保持暫存器
func (t *ModbusTransport) ReadHoldingRegisters(ctx context.Context, unit uint8, address, quantity uint16) ([]uint16, error) {
	var regs []uint16
	err := t.do(ctx, unit, func() error {
		results, err := t.client.ReadHoldingRegisters(address, quantity)
		if err != nil {
			return err
		}
		regs, err = decodeRegisters(results, quantity)
		return err
	})
	return regs, err
}

// ReadInputRegisters 讀取輸入暫存器
func (t *ModbusTransport) ReadInputRegisters(ctx context.Context, unit uint8, address, quantity uint16) ([]uint16, error) {
	var regs []uint16
	err := t.do(ctx, unit, func() error {
		results, err := t.client.ReadInputRegisters(address, quantity)
		if err != nil {
			return err
		}
		regs, err = decodeRegisters(results, quantity)
		return err
	})
	return regs, err
}

// ReadCoils 讀取線圈
func (t *ModbusTransport) ReadCoils(ctx context.Context, unit uint8, address, quantity uint16) ([]bool, error) {
	var bits []bool
	err := t.do(ctx, unit, func() error {
		results, err := t.client.ReadCoils(address, quantity)
		if err != nil {
			return err
		}
		bits, err = decodeBits(results, quantity)
		return err
	})
	return bits, err
}

// ReadDiscreteInputs 讀取離散輸入
func (t *ModbusTransport) ReadDiscreteInputs(ctx context.Context, unit uint8, address, quantity uint16) ([]bool, error) {
	var bits []bool
	err := t.do(ctx, unit, func() error {
		results, err := t.client.ReadDiscreteInputs(address, quantity)
		if err != nil {
			return err
		}
		bits, err = decodeBits(results, quantity)
		return err
	})
	return bits, err
}

// sendRaw 直接送出 address/value 形式的 PDU 並檢查回應
func (t *ModbusTransport) sendRaw(functionCode byte, address, value uint16) error {
	data := make([]byte, 4)
	binary.BigEndian.PutUint16(data[0:2], address)
	binary.BigEndian.PutUint16(data[2:4], value)
	request := &modbus.ProtocolDataUnit{FunctionCode: functionCode, Data: data}

	aduRequest, err := t.handler.Encode(request)
	if err != nil {
		return err
	}
	aduResponse, err := t.handler.Send(aduRequest)
	if err != nil {
		return err
	}
	if err = t.handler.Verify(aduRequest, aduResponse); err != nil {
		return err
	}
	response, err := t.handler.Decode(aduResponse)
	if err != nil {
		return err
	}

	if response.FunctionCode != functionCode {
		if response.FunctionCode == functionCode|0x80 && len(response.Data) > 0 {
			return &modbus.ModbusError{FunctionCode: response.FunctionCode, ExceptionCode: response.Data[0]}
		}
		return fmt.Errorf("回應功能碼不符: 預期 %d, 收到 %d", functionCode, response.FunctionCode)
	}
	if len(response.Data) != 4 || binary.BigEndian.Uint16(response.Data[0:2]) != address {
		return fmt.Errorf("回應位址不符: 0x%04X", address)
	}
	return nil
}

func decodeRegisters(data []byte, quantity uint16) ([]uint16, error) {
	if len(data) < int(quantity)*2 {
		return nil, fmt.Errorf("回應長度不足: 預期 %d bytes, 收到 %d", int(quantity)*2, len(data))
	}
	return BytesToRegisters(data[:int(quantity)*2]), nil
}

func decodeBits(data []byte, quantity uint16) ([]bool, error) {
	if len(data) < (int(quantity)+7)/8 {
		return nil, fmt.Errorf("回應長度不足: 預期 %d bytes, 收到 %d", (int(quantity)+7)/8, len(data))
	}
	return ByteToCoils(data, int(quantity)), nil
}

// RegistersToBytes 將暫存器值轉換為位元組陣列 (Big Endian)
func RegistersToBytes(registers []uint16) []byte {
	bytes := make([]byte, len(registers)*2)
	for i, reg := range registers {
		binary.BigEndian.PutUint16(bytes[i*2:], reg)
	}
	return bytes
}

// BytesToRegisters 將位元組陣列轉換為暫存器值 (Big Endian)
func BytesToRegisters(data []byte) []uint16 {
	registers := make([]uint16, len(data)/2)
	for i := range registers {
		registers[i] = binary.BigEndian.Uint16(data[i*2:])
	}
	return registers
}

// CoilsToBytes 將線圈值打包為位元組 (LSB 優先)
func CoilsToBytes(coils []bool) []byte {
	bytes := make([]byte, (len(coils)+7)/8)
	for i, coil := range coils {
		if coil {
			bytes[i/8] |= 1 << (i % 8)
		}
	}
	return bytes
}

// ByteToCoils 將位元組轉換為線圈值
func ByteToCoils(data []byte, count int) []bool {
	coils := make([]bool, count)
	for i := 0; i < count; i++ {
		coils[i] = (data[i/8] & (1 << (i % 8))) != 0
	}
	return coils
}
