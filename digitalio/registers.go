package digitalio

// 線圈 (0x)
const (
	CoilOutputChannels uint16 = 0x0000
	CoilControlAll     uint16 = 0x00FF
	CoilToggleAll      uint16 = 0x01FF
	CoilFlashOn        uint16 = 0x0200
	CoilFlashOff       uint16 = 0x0400
)

// 離散輸入 (1x)
const (
	DiscreteInputChannels uint16 = 0x0000
)

// 保持暫存器 (4x)
const (
	HoldingControlMode     uint16 = 0x1000
	HoldingUartParameters  uint16 = 0x2000
	HoldingDeviceAddress   uint16 = 0x4000
	HoldingSoftwareVersion uint16 = 0x8000
)

// ControlMode 輸出通道控制模式
type ControlMode uint16

const (
	// ModeCommand 僅由指令控制
	ModeCommand ControlMode = iota
	// ModeLinked 輸出跟隨同編號輸入
	ModeLinked
	// ModeFlip 輸入每次觸發翻轉輸出
	ModeFlip
)

func (m ControlMode) String() string {
	switch m {
	case ModeCommand:
		return "command"
	case ModeLinked:
		return "linked"
	case ModeFlip:
		return "flip"
	default:
		return "unknown"
	}
}

// ParseControlMode 解析控制模式名稱
func ParseControlMode(s string) (ControlMode, bool) {
	for _, m := range []ControlMode{ModeCommand, ModeLinked, ModeFlip} {
		if m.String() == s {
			return m, true
		}
	}
	return 0, false
}
