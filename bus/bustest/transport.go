// Package bustest 提供 bus.Transport 的 testify mock
package bustest

import (
	"context"

	"github.com/stretchr/testify/mock"

	"waveshare-io/bus"
)

// Transport mock 傳輸層
type Transport struct {
	mock.Mock
}

var _ bus.Transport = (*Transport)(nil)

// New 建立 mock 傳輸層
func New() *Transport {
	return &Transport{}
}

func (m *Transport) Connect(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *Transport) Close() error {
	args := m.Called()
	return args.Error(0)
}

func (m *Transport) WriteSingleCoil(ctx context.Context, unit uint8, address, value uint16) error {
	args := m.Called(ctx, unit, address, value)
	return args.Error(0)
}

func (m *Transport) WriteSingleRegister(ctx context.Context, unit uint8, address, value uint16) error {
	args := m.Called(ctx, unit, address, value)
	return args.Error(0)
}

func (m *Transport) WriteMultipleRegisters(ctx context.Context, unit uint8, address uint16, values []uint16) error {
	args := m.Called(ctx, unit, address, values)
	return args.Error(0)
}

func (m *Transport) ReadHoldingRegisters(ctx context.Context, unit uint8, address, quantity uint16) ([]uint16, error) {
	args := m.Called(ctx, unit, address, quantity)
	regs, _ := args.Get(0).([]uint16)
	return regs, args.Error(1)
}

func (m *Transport) ReadInputRegisters(ctx context.Context, unit uint8, address, quantity uint16) ([]uint16, error) {
	args := m.Called(ctx, unit, address, quantity)
	regs, _ := args.Get(0).([]uint16)
	return regs, args.Error(1)
}

func (m *Transport) ReadCoils(ctx context.Context, unit uint8, address, quantity uint16) ([]bool, error) {
	args := m.Called(ctx, unit, address, quantity)
	bits, _ := args.Get(0).([]bool)
	return bits, args.Error(1)
}

func (m *Transport) ReadDiscreteInputs(ctx context.Context, unit uint8, address, quantity uint16) ([]bool, error) {
	args := m.Called(ctx, unit, address, quantity)
	bits, _ := args.Get(0).([]bool)
	return bits, args.Error(1)
}

// AssertNoTransportCalls 確認沒有任何請求送出
func (m *Transport) AssertNoTransportCalls(t mock.TestingT) bool {
	ok := true
	for _, method := range []string{
		"WriteSingleCoil", "WriteSingleRegister", "WriteMultipleRegisters",
		"ReadHoldingRegisters", "ReadInputRegisters", "ReadCoils", "ReadDiscreteInputs",
	} {
		ok = m.AssertNumberOfCalls(t, method, 0) && ok
	}
	return ok
}
