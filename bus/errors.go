package bus

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidChannel 通道編號 (或批次起點加偏移) 超出 0-7
	ErrInvalidChannel = errors.New("無效的通道")
	// ErrInvalidDeviceAddress 設備位址不在 1-255
	ErrInvalidDeviceAddress = errors.New("無效的設備位址")
	// ErrInvalidUartParameters 序列埠參數無法放入單一保持暫存器
	ErrInvalidUartParameters = errors.New("無效的序列埠參數")
	// ErrValueOutOfRange 類比值轉換後超出 16 位元範圍
	ErrValueOutOfRange = errors.New("數值超出範圍")
	// ErrInvalidInterval 閃爍間隔超出硬體範圍
	ErrInvalidInterval = errors.New("無效的閃爍間隔")
	// ErrInvalidAction 線圈動作不是 on/off/flip
	ErrInvalidAction = errors.New("無效的動作")
)

// PartialWriteError 逐筆寫入在中途失敗
//
// Completed 之前的寫入已在設備上生效，之後的未送出。
type PartialWriteError struct {
	Completed int
	Total     int
	Err       error
}

func (e *PartialWriteError) Error() string {
	return fmt.Sprintf("批次寫入中斷 (%d/%d 已完成): %v", e.Completed, e.Total, e.Err)
}

func (e *PartialWriteError) Unwrap() error {
	return e.Err
}
