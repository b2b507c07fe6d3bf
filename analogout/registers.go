package analogout

// 保持暫存器 (4x)
const (
	HoldingOutputs         uint16 = 0x0000
	HoldingUartParameters  uint16 = 0x2000
	HoldingDeviceAddress   uint16 = 0x4000
	HoldingSoftwareVersion uint16 = 0x8000
)
