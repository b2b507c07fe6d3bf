package simulator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tbrandon/mbserver"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"waveshare-io/bus"
)

func newTestRack(t *testing.T) *Rack {
	t.Helper()
	r := NewRack(nil)
	require.NoError(t, r.Attach(NewDevice(FamilyRelay, WithAddress(1))))
	require.NoError(t, r.Attach(NewDevice(FamilyAnalogOut, WithAddress(2))))
	return r
}

func TestRack_Attach_DuplicateAddress(t *testing.T) {
	r := newTestRack(t)

	err := r.Attach(NewDevice(FamilyDigital, WithAddress(2)))
	assert.Error(t, err)
	assert.Len(t, r.Devices(), 2)
}

func TestRack_HandleDispatch(t *testing.T) {
	r := newTestRack(t)

	_, err := r.Handle(1, bus.FuncCodeWriteSingleCoil, pdu(0, uint16(bus.ActionOn)))
	require.NoError(t, err)

	relay, ok := r.Device(1)
	require.True(t, ok)
	assert.True(t, relay.Outputs()[0])

	// 類比輸出模組不支援線圈
	_, err = r.Handle(2, bus.FuncCodeWriteSingleCoil, pdu(0, uint16(bus.ActionOn)))
	assert.ErrorIs(t, err, ExceptionIllegalFunction)

	_, err = r.Handle(9, bus.FuncCodeReadCoils, pdu(0, 8))
	assert.ErrorIs(t, err, ExceptionGatewayTargetFailed)
}

func TestRack_Readdress(t *testing.T) {
	r := newTestRack(t)

	_, err := r.Handle(1, bus.FuncCodeWriteSingleRegister, pdu(0x4000, 5))
	require.NoError(t, err)

	_, ok := r.Device(1)
	assert.False(t, ok)
	d, ok := r.Device(5)
	require.True(t, ok)
	assert.Equal(t, FamilyRelay, d.Family())
}

func TestRack_Broadcast(t *testing.T) {
	r := newTestRack(t)

	_, err := r.Handle(0, bus.FuncCodeWriteSingleRegister, pdu(0x2000, uint16(bus.B19200)))
	require.NoError(t, err)
	for _, d := range r.Devices() {
		assert.Equal(t, uint16(bus.B19200), d.UartParameters())
	}

	_, err = r.Handle(0, bus.FuncCodeReadHoldingRegisters, pdu(0x2000, 1))
	assert.ErrorIs(t, err, ExceptionIllegalFunction)
}

func TestRack_HandlerExceptions(t *testing.T) {
	r := newTestRack(t)
	h := r.handler(bus.FuncCodeReadHoldingRegisters)

	resp, ex := h(nil, &mbserver.TCPFrame{Device: 2, Function: bus.FuncCodeReadHoldingRegisters, Data: pdu(0, 2)})
	assert.Same(t, &mbserver.Success, ex)
	assert.Equal(t, []byte{4, 0, 0, 0, 0}, resp)

	_, ex = h(nil, &mbserver.TCPFrame{Device: 2, Function: bus.FuncCodeReadHoldingRegisters, Data: pdu(0x3000, 1)})
	require.NotNil(t, ex)
	assert.Equal(t, mbserver.Exception(ExceptionIllegalDataAddress), *ex)

	_, ex = h(nil, &mbserver.RTUFrame{Address: 42, Function: bus.FuncCodeReadHoldingRegisters, Data: pdu(0, 1)})
	require.NotNil(t, ex)
	assert.Equal(t, mbserver.Exception(ExceptionGatewayTargetFailed), *ex)
}

func TestRack_CloseWhenStopped(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	r := NewRack(zap.New(core))

	assert.NoError(t, r.Close())
	assert.Equal(t, RackStateStopped, r.State())
	assert.Zero(t, logs.Len())
}
