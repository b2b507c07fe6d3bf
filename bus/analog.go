package bus

import (
	"fmt"
	"math"
)

// AnalogScale 韌體定點比例 (毫伏/微安級)
const AnalogScale = 1000.0

// ToEngineering 原始暫存器值轉工程值
func ToEngineering(raw uint16) float64 {
	return float64(raw) / AnalogScale
}

// snapTolerance 乘以比例後與整數的差距在此範圍內時視為該整數
const snapTolerance = 1e-6

// scale 乘以比例後向零截斷
//
// 1.001*1000 在浮點數中為 1000.9999999999999，先貼齊整數再截斷，
// 否則會少一個單位。
func scale(value float64) float64 {
	x := value * AnalogScale
	if r := math.Round(x); math.Abs(x-r) < snapTolerance {
		return r
	}
	return math.Trunc(x)
}

// ToRaw 工程值轉原始暫存器值
//
// 向零截斷而非四捨五入，與模組韌體行為一致。不做範圍檢查，
// 超出 16 位元時結果無意義，需要檢查的呼叫端請用 ToRawChecked。
func ToRaw(value float64) uint16 {
	return uint16(int64(scale(value)))
}

// ToRawChecked 與 ToRaw 相同，但截斷後不在 0-65535 時返回 ErrValueOutOfRange
func ToRawChecked(value float64) (uint16, error) {
	scaled := scale(value)
	if math.IsNaN(scaled) || scaled < 0 || scaled > math.MaxUint16 {
		return 0, fmt.Errorf("%w: %g", ErrValueOutOfRange, value)
	}
	return uint16(scaled), nil
}
