package bus

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// loggedTransport 記錄每次請求的傳輸層裝飾器
type loggedTransport struct {
	next   Transport
	logger *zap.Logger
}

// WithLogging 以 zap 記錄每次請求 (Debug) 與失敗 (Warn)
func WithLogging(t Transport, logger *zap.Logger) Transport {
	if logger == nil {
		return t
	}
	return &loggedTransport{next: t, logger: logger}
}

func (l *loggedTransport) log(op string, table RegisterType, unit uint8, address uint16, start time.Time, err error, fields ...zap.Field) {
	fields = append(fields,
		zap.String("op", op),
		zap.Stringer("table", table),
		zap.Uint8("unit", unit),
		zap.Uint16("address", address),
		zap.Duration("elapsed", time.Since(start)),
	)
	if err != nil {
		l.logger.Warn("Modbus 請求失敗", append(fields, zap.Error(err))...)
		return
	}
	l.logger.Debug("Modbus 請求完成", fields...)
}

func (l *loggedTransport) Connect(ctx context.Context) error {
	err := l.next.Connect(ctx)
	if err != nil {
		l.logger.Warn("連線失敗", zap.Error(err))
	} else {
		l.logger.Debug("已連線")
	}
	return err
}

func (l *loggedTransport) Close() error {
	return l.next.Close()
}

func (l *loggedTransport) WriteSingleCoil(ctx context.Context, unit uint8, address, value uint16) error {
	start := time.Now()
	err := l.next.WriteSingleCoil(ctx, unit, address, value)
	l.log("write_coil", RegisterTypeCoil, unit, address, start, err, zap.Uint16("value", value))
	return err
}

func (l *loggedTransport) WriteSingleRegister(ctx context.Context, unit uint8, address, value uint16) error {
	start := time.Now()
	err := l.next.WriteSingleRegister(ctx, unit, address, value)
	l.log("write_register", RegisterTypeHoldingRegister, unit, address, start, err, zap.Uint16("value", value))
	return err
}

func (l *loggedTransport) WriteMultipleRegisters(ctx context.Context, unit uint8, address uint16, values []uint16) error {
	start := time.Now()
	err := l.next.WriteMultipleRegisters(ctx, unit, address, values)
	l.log("write_registers", RegisterTypeHoldingRegister, unit, address, start, err, zap.Uint16s("values", values))
	return err
}

func (l *loggedTransport) ReadHoldingRegisters(ctx context.Context, unit uint8, address, quantity uint16) ([]uint16, error) {
	start := time.Now()
	regs, err := l.next.ReadHoldingRegisters(ctx, unit, address, quantity)
	l.log("read_holding", RegisterTypeHoldingRegister, unit, address, start, err, zap.Uint16("quantity", quantity), zap.Uint16s("values", regs))
	return regs, err
}

func (l *loggedTransport) ReadInputRegisters(ctx context.Context, unit uint8, address, quantity uint16) ([]uint16, error) {
	start := time.Now()
	regs, err := l.next.ReadInputRegisters(ctx, unit, address, quantity)
	l.log("read_input", RegisterTypeInputRegister, unit, address, start, err, zap.Uint16("quantity", quantity), zap.Uint16s("values", regs))
	return regs, err
}

func (l *loggedTransport) ReadCoils(ctx context.Context, unit uint8, address, quantity uint16) ([]bool, error) {
	start := time.Now()
	bits, err := l.next.ReadCoils(ctx, unit, address, quantity)
	l.log("read_coils", RegisterTypeCoil, unit, address, start, err, zap.Uint16("quantity", quantity), zap.Bools("values", bits))
	return bits, err
}

func (l *loggedTransport) ReadDiscreteInputs(ctx context.Context, unit uint8, address, quantity uint16) ([]bool, error) {
	start := time.Now()
	bits, err := l.next.ReadDiscreteInputs(ctx, unit, address, quantity)
	l.log("read_discrete", RegisterTypeDiscreteInput, unit, address, start, err, zap.Uint16("quantity", quantity), zap.Bools("values", bits))
	return bits, err
}
