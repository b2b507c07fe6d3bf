package bus

import "strings"

// BankState 8 通道開關狀態，通道 i 對應位元 i (LSB = 通道 0)
type BankState [BankSize]bool

// DecodeBank 將 8 位元字解碼為通道狀態
func DecodeBank(word uint8) BankState {
	var s BankState
	for i := range s {
		s[i] = word&(1<<i) != 0
	}
	return s
}

// Encode 將通道狀態打包為 8 位元字
func (s BankState) Encode() uint8 {
	return PackBits(s[:])
}

// Channel 取得單一通道狀態
func (s BankState) Channel(ch Channel) bool {
	if ch.Validate() != nil {
		return false
	}
	return s[ch]
}

// Actions 轉換為逐通道的開/關動作
func (s BankState) Actions() []Action {
	actions := make([]Action, BankSize)
	for i, on := range s {
		if on {
			actions[i] = ActionOn
		} else {
			actions[i] = ActionOff
		}
	}
	return actions
}

// String 以 CH1..CH8 順序輸出，例如 "10100000"
func (s BankState) String() string {
	var b strings.Builder
	for _, on := range s {
		if on {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

// PackBits 將布林序列打包為 8 位元字，超過 8 個的元素忽略
func PackBits(bits []bool) uint8 {
	var word uint8
	for i, bit := range bits {
		if i >= BankSize {
			break
		}
		if bit {
			word |= 1 << i
		}
	}
	return word
}
