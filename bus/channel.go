package bus

import "fmt"

// Channel 8 通道模組中的通道編號 (0-7)
type Channel uint8

const (
	Channel1 Channel = iota
	Channel2
	Channel3
	Channel4
	Channel5
	Channel6
	Channel7
	Channel8
)

// NewChannel 由整數建立通道，超出範圍時返回 ErrInvalidChannel
func NewChannel(n int) (Channel, error) {
	if n < 0 || n >= BankSize {
		return 0, fmt.Errorf("%w: %d", ErrInvalidChannel, n)
	}
	return Channel(n), nil
}

// Validate 驗證通道範圍
func (c Channel) Validate() error {
	if int(c) >= BankSize {
		return fmt.Errorf("%w: %d", ErrInvalidChannel, c)
	}
	return nil
}

func (c Channel) String() string {
	return fmt.Sprintf("CH%d", int(c)+1)
}

// ChannelAddress 計算 base + channel，並先驗證通道
func ChannelAddress(base uint16, ch Channel) (uint16, error) {
	if err := ch.Validate(); err != nil {
		return 0, err
	}
	return base + uint16(ch), nil
}

// SpanAddresses 計算從 start 起連續 n 個通道的位址
//
// 整批驗證：任何一個超出範圍即返回錯誤，不返回部分結果。
func SpanAddresses(base uint16, start Channel, n int) ([]uint16, error) {
	if err := start.Validate(); err != nil {
		return nil, err
	}
	if last := int(start) + n - 1; n > 0 && last >= BankSize {
		return nil, fmt.Errorf("%w: %d (起點 %d, 數量 %d)", ErrInvalidChannel, last, start, n)
	}

	addrs := make([]uint16, n)
	for i := range addrs {
		addrs[i] = base + uint16(start) + uint16(i)
	}
	return addrs, nil
}

// ValidateDeviceAddress 驗證設備位址 (1-255)
func ValidateDeviceAddress(addr int) (uint8, error) {
	if addr < 1 || addr > 255 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidDeviceAddress, addr)
	}
	return uint8(addr), nil
}
