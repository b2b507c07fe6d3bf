package simulator

import "fmt"

// Exception Modbus 異常碼
type Exception byte

const (
	ExceptionIllegalFunction     Exception = 0x01
	ExceptionIllegalDataAddress  Exception = 0x02
	ExceptionIllegalDataValue    Exception = 0x03
	ExceptionSlaveDeviceFailure  Exception = 0x04
	ExceptionGatewayTargetFailed Exception = 0x0B
)

func (e Exception) Error() string {
	switch e {
	case ExceptionIllegalFunction:
		return "modbus 異常: 不支援的功能碼"
	case ExceptionIllegalDataAddress:
		return "modbus 異常: 非法資料位址"
	case ExceptionIllegalDataValue:
		return "modbus 異常: 非法資料值"
	case ExceptionSlaveDeviceFailure:
		return "modbus 異常: 從站設備故障"
	case ExceptionGatewayTargetFailed:
		return "modbus 異常: 目標設備無回應"
	default:
		return fmt.Sprintf("modbus 異常: 0x%02X", byte(e))
	}
}
