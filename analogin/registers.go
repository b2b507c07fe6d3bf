package analogin

// 輸入暫存器 (3x)
const (
	InputChannels uint16 = 0x0000
)

// 保持暫存器 (4x)
const (
	HoldingChannelTypes    uint16 = 0x1000
	HoldingUartParameters  uint16 = 0x2000
	HoldingDeviceAddress   uint16 = 0x4000
	HoldingSoftwareVersion uint16 = 0x8000
)

// ChannelType 通道訊號類型
type ChannelType uint16

const (
	Voltage0To10V ChannelType = iota
	Voltage2To10V
	Current0To20mA
	Current4To20mA
	// ADCOutput 直接輸出 ADC 原始值
	ADCOutput
)

var channelTypeNames = [...]string{"0-10V", "2-10V", "0-20mA", "4-20mA", "adc"}

// Valid 是否為已知類型
func (t ChannelType) Valid() bool {
	return int(t) < len(channelTypeNames)
}

func (t ChannelType) String() string {
	if !t.Valid() {
		return "unknown"
	}
	return channelTypeNames[t]
}

// ParseChannelType 解析類型名稱，例如 "4-20mA"
func ParseChannelType(s string) (ChannelType, bool) {
	for i, name := range channelTypeNames {
		if name == s {
			return ChannelType(i), true
		}
	}
	return 0, false
}
