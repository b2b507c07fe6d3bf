package bus

import (
	"fmt"
	"strings"
)

// Baudrate 模組的鮑率代碼
type Baudrate uint8

const (
	B4800 Baudrate = iota
	B9600
	B19200
	B38400
	B57600
	B115200
	B128000
	B256000
)

var baudrateBps = [...]int{4800, 9600, 19200, 38400, 57600, 115200, 128000, 256000}

// Bps 返回每秒位元數
func (b Baudrate) Bps() int {
	if int(b) >= len(baudrateBps) {
		return 0
	}
	return baudrateBps[b]
}

func (b Baudrate) String() string {
	if bps := b.Bps(); bps != 0 {
		return fmt.Sprintf("%d", bps)
	}
	return "unknown"
}

// ParseBaudrate 由 bps 數值取得鮑率代碼
func ParseBaudrate(bps int) (Baudrate, error) {
	for i, v := range baudrateBps {
		if v == bps {
			return Baudrate(i), nil
		}
	}
	return 0, fmt.Errorf("%w: 不支援的鮑率 %d", ErrInvalidUartParameters, bps)
}

// Parity 校驗位代碼
type Parity uint8

const (
	ParityNone Parity = iota
	ParityEven
	ParityOdd
)

func (p Parity) String() string {
	switch p {
	case ParityNone:
		return "N"
	case ParityEven:
		return "E"
	case ParityOdd:
		return "O"
	default:
		return "unknown"
	}
}

// ParseParity 解析校驗位 ("N"/"E"/"O" 或 "none"/"even"/"odd")
func ParseParity(s string) (Parity, error) {
	switch strings.ToLower(s) {
	case "", "n", "none":
		return ParityNone, nil
	case "e", "even":
		return ParityEven, nil
	case "o", "odd":
		return ParityOdd, nil
	default:
		return 0, fmt.Errorf("%w: 不支援的校驗位 %q", ErrInvalidUartParameters, s)
	}
}

// UartParameters 序列埠參數
type UartParameters struct {
	Baudrate Baudrate
	Parity   Parity
}

// Word 打包為 (parity << 16) | baudrate
func (p UartParameters) Word() uint32 {
	return uint32(p.Parity)<<16 | uint32(p.Baudrate)
}

// Register 返回可寫入單一保持暫存器的值
func (p UartParameters) Register() (uint16, error) {
	if p.Baudrate > B256000 || p.Parity > ParityOdd {
		return 0, fmt.Errorf("%w: baudrate=%d parity=%d", ErrInvalidUartParameters, p.Baudrate, p.Parity)
	}
	w := p.Word()
	if w > 0xFFFF {
		return 0, fmt.Errorf("%w: 0x%08X 超出 16 位元暫存器", ErrInvalidUartParameters, w)
	}
	return uint16(w), nil
}
