package simulator

import (
	"fmt"
	"strings"
)

// Family 模組系列
type Family int

const (
	FamilyDigital Family = iota
	FamilyRelay
	FamilyAnalogIn
	FamilyAnalogOut
)

func (f Family) String() string {
	switch f {
	case FamilyDigital:
		return "digital"
	case FamilyRelay:
		return "relay"
	case FamilyAnalogIn:
		return "analog_in"
	case FamilyAnalogOut:
		return "analog_out"
	default:
		return "unknown"
	}
}

// ParseFamily 解析系列名稱
func ParseFamily(s string) (Family, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "digital", "digitalio":
		return FamilyDigital, nil
	case "relay":
		return FamilyRelay, nil
	case "analog_in", "analogin", "analog-in":
		return FamilyAnalogIn, nil
	case "analog_out", "analogout", "analog-out":
		return FamilyAnalogOut, nil
	default:
		return 0, fmt.Errorf("未知的模組系列: %q", s)
	}
}

// 各系列共用的保持暫存器
const (
	regChannelBase     uint16 = 0x0000
	regChannelConfig   uint16 = 0x1000
	regUartParameters  uint16 = 0x2000
	regDeviceAddress   uint16 = 0x4000
	regSoftwareVersion uint16 = 0x8000

	coilControlAll uint16 = 0x00FF
	coilFlashOn    uint16 = 0x0200
	coilFlashOff   uint16 = 0x0400

	channelCount = 8
)

// window 連續的可存取位址區段
type window struct {
	start uint16
	count int
}

func (w window) contains(address uint16, quantity int) bool {
	return int(address) >= int(w.start) && int(address)+quantity <= int(w.start)+w.count
}

// profile 描述系列支援的位址空間
type profile struct {
	coils    bool
	discrete bool
	inputs   bool
	holding  []window
}

var commonHolding = []window{
	{regUartParameters, 1},
	{regDeviceAddress, 1},
	{regSoftwareVersion, 1},
}

func profileFor(f Family) profile {
	switch f {
	case FamilyDigital:
		// 控制模式同時映射在 0x0000 與 0x1000
		return profile{
			coils:    true,
			discrete: true,
			holding:  append([]window{{regChannelBase, channelCount}, {regChannelConfig, channelCount}}, commonHolding...),
		}
	case FamilyRelay:
		return profile{coils: true, holding: commonHolding}
	case FamilyAnalogIn:
		return profile{
			inputs:  true,
			holding: append([]window{{regChannelConfig, channelCount}}, commonHolding...),
		}
	case FamilyAnalogOut:
		return profile{
			holding: append([]window{{regChannelBase, channelCount}}, commonHolding...),
		}
	default:
		return profile{holding: commonHolding}
	}
}

func (p profile) holdingAllowed(address uint16, quantity int) bool {
	for _, w := range p.holding {
		if w.contains(address, quantity) {
			return true
		}
	}
	return false
}
