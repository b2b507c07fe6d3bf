package bus

// Modbus 協議常數
const (
	// Modbus 功能碼
	FuncCodeReadCoils              = 0x01
	FuncCodeReadDiscreteInputs     = 0x02
	FuncCodeReadHoldingRegisters   = 0x03
	FuncCodeReadInputRegisters     = 0x04
	FuncCodeWriteSingleCoil        = 0x05
	FuncCodeWriteSingleRegister    = 0x06
	FuncCodeWriteMultipleCoils     = 0x0F
	FuncCodeWriteMultipleRegisters = 0x10

	// 8 通道模組
	BankSize = 8

	// 暫存器限制
	MaxCoilsPerRead      = 2000
	MaxRegistersPerRead  = 125
	MaxRegistersPerWrite = 123

	// 預設通訊參數
	DefaultDeviceAddress = 1
	DefaultBaudRate      = 9600
)

// RegisterType 暫存器類型
type RegisterType int

const (
	RegisterTypeCoil RegisterType = iota
	RegisterTypeDiscreteInput
	RegisterTypeInputRegister
	RegisterTypeHoldingRegister
)

func (rt RegisterType) String() string {
	switch rt {
	case RegisterTypeCoil:
		return "Coil"
	case RegisterTypeDiscreteInput:
		return "DiscreteInput"
	case RegisterTypeInputRegister:
		return "InputRegister"
	case RegisterTypeHoldingRegister:
		return "HoldingRegister"
	default:
		return "Unknown"
	}
}

// Action 線圈寫入動作 (FC 05 的 16 位元值)
type Action uint16

const (
	ActionOff  Action = 0x0000
	ActionOn   Action = 0xFF00
	ActionFlip Action = 0x5500
)

func (a Action) String() string {
	switch a {
	case ActionOn:
		return "on"
	case ActionOff:
		return "off"
	case ActionFlip:
		return "flip"
	default:
		return "unknown"
	}
}

// Valid 是否為模組接受的三種線圈值之一
func (a Action) Valid() bool {
	return a == ActionOn || a == ActionOff || a == ActionFlip
}

// CoilValue 將開關狀態轉換為線圈寫入值
func CoilValue(on bool) uint16 {
	if on {
		return uint16(ActionOn)
	}
	return uint16(ActionOff)
}
