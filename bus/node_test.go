package bus_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"waveshare-io/bus"
	"waveshare-io/bus/bustest"
)

func TestNewNode_Defaults(t *testing.T) {
	n, err := bus.NewNode(bustest.New())
	require.NoError(t, err)
	assert.Equal(t, uint8(1), n.Unit())
}

func TestNewNode_InvalidAddress(t *testing.T) {
	_, err := bus.NewNode(bustest.New(), bus.WithDeviceAddress(256))
	assert.ErrorIs(t, err, bus.ErrInvalidDeviceAddress)

	_, err = bus.NewNode(nil)
	assert.Error(t, err)
}

func TestApplyOptions(t *testing.T) {
	o := bus.ApplyOptions(bus.WithDeviceAddress(7), bus.WithBaudRate(115200))
	assert.Equal(t, 7, o.DeviceAddress)
	assert.Equal(t, 115200, o.BaudRate)

	o = bus.ApplyOptions()
	assert.Equal(t, bus.DefaultDeviceAddress, o.DeviceAddress)
	assert.Equal(t, bus.DefaultBaudRate, o.BaudRate)
}

func TestNode_SetUnit(t *testing.T) {
	n, err := bus.NewNode(bustest.New())
	require.NoError(t, err)

	require.NoError(t, n.SetUnit(42))
	assert.Equal(t, uint8(42), n.Unit())

	assert.ErrorIs(t, n.SetUnit(0), bus.ErrInvalidDeviceAddress)
	assert.Equal(t, uint8(42), n.Unit())
}

func TestNode_WriteCoilSpan_PartialFailure(t *testing.T) {
	ctx := context.Background()
	tr := bustest.New()
	linkErr := errors.New("no response")
	tr.On("WriteSingleCoil", ctx, uint8(1), uint16(2), uint16(0xFF00)).Return(nil).Once()
	tr.On("WriteSingleCoil", ctx, uint8(1), uint16(3), uint16(0x0000)).Return(linkErr).Once()

	n, err := bus.NewNode(tr)
	require.NoError(t, err)

	err = n.WriteCoilSpan(ctx, 0, bus.Channel3, []bus.Action{bus.ActionOn, bus.ActionOff, bus.ActionOn})

	var partial *bus.PartialWriteError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, 1, partial.Completed)
	assert.Equal(t, 3, partial.Total)
	assert.ErrorIs(t, err, linkErr)
	tr.AssertExpectations(t)
	tr.AssertNumberOfCalls(t, "WriteSingleCoil", 2)
}

func TestNode_WriteCoilSpan_FlipWritesOff(t *testing.T) {
	ctx := context.Background()
	tr := bustest.New()
	tr.On("WriteSingleCoil", ctx, uint8(1), uint16(0), uint16(0x0000)).Return(nil).Once()

	n, err := bus.NewNode(tr)
	require.NoError(t, err)

	require.NoError(t, n.WriteCoilSpan(ctx, 0, bus.Channel1, []bus.Action{bus.ActionFlip}))
	tr.AssertExpectations(t)
}

func TestNode_ReadSoftwareVersion_ShortResponse(t *testing.T) {
	ctx := context.Background()
	tr := bustest.New()
	tr.On("ReadHoldingRegisters", ctx, uint8(1), uint16(0x8000), uint16(1)).Return([]uint16{}, nil)

	n, err := bus.NewNode(tr)
	require.NoError(t, err)

	_, err = n.ReadSoftwareVersion(ctx, 0x8000)
	assert.Error(t, err)
}

func TestNode_WriteUartParameters(t *testing.T) {
	ctx := context.Background()
	tr := bustest.New()
	tr.On("WriteSingleRegister", ctx, uint8(1), uint16(0x2000), uint16(0x0005)).Return(nil).Once()

	n, err := bus.NewNode(tr)
	require.NoError(t, err)

	require.NoError(t, n.WriteUartParameters(ctx, 0x2000, bus.UartParameters{Baudrate: bus.B115200}))

	err = n.WriteUartParameters(ctx, 0x2000, bus.UartParameters{Baudrate: bus.B9600, Parity: bus.ParityOdd})
	assert.ErrorIs(t, err, bus.ErrInvalidUartParameters)
	tr.AssertExpectations(t)
	tr.AssertNumberOfCalls(t, "WriteSingleRegister", 1)
}

func TestNode_ReadBanks(t *testing.T) {
	ctx := context.Background()
	tr := bustest.New()
	tr.On("ReadCoils", ctx, uint8(1), uint16(0), uint16(8)).
		Return([]bool{false, true, false, false, false, false, false, true}, nil)
	tr.On("ReadDiscreteInputs", ctx, uint8(1), mock.Anything, uint16(8)).
		Return(nil, errors.New("timeout"))

	n, err := bus.NewNode(tr)
	require.NoError(t, err)

	state, err := n.ReadCoilBank(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, uint8(0x82), state.Encode())

	_, err = n.ReadDiscreteBank(ctx, 0)
	assert.EqualError(t, err, "timeout")
}
