package relay

import "time"

// 線圈 (0x)，繼電器讀寫都使用線圈，沒有離散輸入區
const (
	CoilRelays     uint16 = 0x0000
	CoilControlAll uint16 = 0x00FF
	CoilToggleAll  uint16 = 0x01FF
	CoilFlashOn    uint16 = 0x0200
	CoilFlashOff   uint16 = 0x0400
)

// 保持暫存器 (4x)
const (
	HoldingControlMode     uint16 = 0x1000
	HoldingUartParameters  uint16 = 0x2000
	HoldingDeviceAddress   uint16 = 0x4000
	HoldingSoftwareVersion uint16 = 0x8000
)

// 閃爍間隔以 100ms 為單位
const (
	FlashUnit        = 100 * time.Millisecond
	MaxFlashInterval = 0x7FFF * FlashUnit
)
