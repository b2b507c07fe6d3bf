package bus

import "context"

// Transport 通用 Modbus 用戶端
//
// 每次呼叫都帶 unit (設備位址)，同一連線可由多個控制器共用。
// 實作需自行序列化對實體線路的存取。
type Transport interface {
	Connect(ctx context.Context) error
	Close() error

	// WriteSingleCoil 寫入單一線圈 (FC 05)，value 為線上 16 位元值
	WriteSingleCoil(ctx context.Context, unit uint8, address, value uint16) error
	// WriteSingleRegister 寫入單一保持暫存器 (FC 06)
	WriteSingleRegister(ctx context.Context, unit uint8, address, value uint16) error
	// WriteMultipleRegisters 寫入連續保持暫存器 (FC 16)
	WriteMultipleRegisters(ctx context.Context, unit uint8, address uint16, values []uint16) error

	ReadHoldingRegisters(ctx context.Context, unit uint8, address, quantity uint16) ([]uint16, error)
	ReadInputRegisters(ctx context.Context, unit uint8, address, quantity uint16) ([]uint16, error)
	ReadCoils(ctx context.Context, unit uint8, address, quantity uint16) ([]bool, error)
	ReadDiscreteInputs(ctx context.Context, unit uint8, address, quantity uint16) ([]bool, error)
}
