package analogin

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

func newTestController(t *testing.T) (*Controller, *bustest.Transport) {
	t.Helper()
	tr := bustest.New()
	c, err := New(tr, bus.WithDeviceAddress(2))
	require.NoError(t, err)
	return c, tr
}

func TestReadChannel(t *testing.T) {
	ctx := context.Background()
	c, tr := newTestController(t)
	tr.On("ReadInputRegisters", ctx, uint8(2), InputChannels+5, uint16(1)).Return([]uint16{4321}, nil)

	v, err := c.ReadChannel(ctx, bus.Channel6)
	require.NoError(t, err)
	assert.InDelta(t, 4.321, v, 1e-9)
}

func TestReadChannel_InvalidChannel(t *testing.T) {
	c, tr := newTestController(t)

	_, err := c.ReadChannel(context.Background(), bus.Channel(8))
	assert.ErrorIs(t, err, bus.ErrInvalidChannel)
	tr.AssertNoTransportCalls(t)
}

func TestReadChannels_OneRequestPerChannel(t *testing.T) {
	ctx := context.Background()
	c, tr := newTestController(t)
	for i := 0; i < bus.BankSize; i++ {
		tr.On("ReadInputRegisters", ctx, uint8(2), uint16(i), uint16(1)).Return([]uint16{uint16((i + 1) * 1000)}, nil).Once()
	}

	values, err := c.ReadChannels(ctx)
	require.NoError(t, err)
	assert.Equal(t, [8]float64{1, 2, 3, 4, 5, 6, 7, 8}, values)

	// 依通道遞增順序送出
	require.Len(t, tr.Calls, 8)
	for i, call := range tr.Calls {
		assert.Equal(t, uint16(i), call.Arguments.Get(2))
	}
	tr.AssertExpectations(t)
}

func TestReadChannels_AbortsOnFailure(t *testing.T) {
	ctx := context.Background()
	c, tr := newTestController(t)
	linkErr := errors.New("no response")
	tr.On("ReadInputRegisters", ctx, uint8(2), uint16(0), uint16(1)).Return([]uint16{1000}, nil).Once()
	tr.On("ReadInputRegisters", ctx, uint8(2), uint16(1), uint16(1)).Return(nil, linkErr).Once()

	_, err := c.ReadChannels(ctx)
	assert.ErrorIs(t, err, linkErr)
	tr.AssertNumberOfCalls(t, "ReadInputRegisters", 2)
}

func TestSetChannelType(t *testing.T) {
	ctx := context.Background()
	c, tr := newTestController(t)
	tr.On("WriteSingleRegister", ctx, uint8(2), HoldingChannelTypes+1, uint16(Current4To20mA)).Return(nil).Once()

	require.NoError(t, c.SetChannelType(ctx, bus.Channel2, Current4To20mA))
	assert.ErrorIs(t, c.SetChannelType(ctx, bus.Channel2, ChannelType(9)), ErrInvalidChannelType)
	assert.ErrorIs(t, c.SetChannelType(ctx, bus.Channel(8), Voltage0To10V), bus.ErrInvalidChannel)
	tr.AssertNumberOfCalls(t, "WriteSingleRegister", 1)
}

func TestChannelType(t *testing.T) {
	ctx := context.Background()
	c, tr := newTestController(t)
	tr.On("ReadHoldingRegisters", ctx, uint8(2), HoldingChannelTypes+3, uint16(1)).Return([]uint16{1}, nil)

	typ, err := c.ChannelType(ctx, bus.Channel4)
	require.NoError(t, err)
	assert.Equal(t, Voltage2To10V, typ)
}

func TestChannelTypes(t *testing.T) {
	ctx := context.Background()
	c, tr := newTestController(t)
	tr.On("ReadHoldingRegisters", ctx, uint8(2), HoldingChannelTypes, uint16(8)).
		Return([]uint16{0, 1, 2, 3, 4, 0, 1, 2}, nil)

	types, err := c.ChannelTypes(ctx)
	require.NoError(t, err)
	assert.Equal(t, [8]ChannelType{
		Voltage0To10V, Voltage2To10V, Current0To20mA, Current4To20mA,
		ADCOutput, Voltage0To10V, Voltage2To10V, Current0To20mA,
	}, types)
}

func TestChannelTypes_UnknownValue(t *testing.T) {
	ctx := context.Background()
	c, tr := newTestController(t)
	tr.On("ReadHoldingRegisters", ctx, uint8(2), HoldingChannelTypes, uint16(8)).
		Return([]uint16{0, 0, 0, 7, 0, 0, 0, 0}, nil)

	_, err := c.ChannelTypes(ctx)
	assert.ErrorIs(t, err, ErrInvalidChannelType)
	assert.Contains(t, err.Error(), "CH4")
}

func TestSetChannelTypes(t *testing.T) {
	ctx := context.Background()
	c, tr := newTestController(t)
	tr.On("WriteMultipleRegisters", ctx, uint8(2), HoldingChannelTypes, []uint16{3, 3, 3, 3, 0, 0, 0, 0}).Return(nil).Once()

	types := [8]ChannelType{Current4To20mA, Current4To20mA, Current4To20mA, Current4To20mA}
	require.NoError(t, c.SetChannelTypes(ctx, types))

	types[7] = ChannelType(5)
	assert.ErrorIs(t, c.SetChannelTypes(ctx, types), ErrInvalidChannelType)
	tr.AssertNumberOfCalls(t, "WriteMultipleRegisters", 1)
}

func TestSetDeviceAddress(t *testing.T) {
	ctx := context.Background()
	c, tr := newTestController(t)
	tr.On("WriteSingleRegister", ctx, uint8(2), HoldingDeviceAddress, uint16(255)).Return(nil).Once()

	require.NoError(t, c.SetDeviceAddress(ctx, 255))
	assert.ErrorIs(t, c.SetDeviceAddress(ctx, 256), bus.ErrInvalidDeviceAddress)
	tr.AssertNumberOfCalls(t, "WriteSingleRegister", 1)
}

func TestSetUartParameters(t *testing.T) {
	ctx := context.Background()
	c, tr := newTestController(t)
	tr.On("WriteSingleRegister", ctx, uint8(2), HoldingUartParameters, mock.Anything).Return(nil)

	require.NoError(t, c.SetUartParameters(ctx, bus.B19200, bus.ParityNone))
	assert.ErrorIs(t, c.SetUartParameters(ctx, bus.B19200, bus.ParityEven), bus.ErrInvalidUartParameters)
	tr.AssertNumberOfCalls(t, "WriteSingleRegister", 1)
}

func TestParseChannelType(t *testing.T) {
	typ, ok := ParseChannelType("4-20mA")
	assert.True(t, ok)
	assert.Equal(t, Current4To20mA, typ)
	assert.Equal(t, "adc", ADCOutput.String())
	assert.Equal(t, "unknown", ChannelType(42).String())
}
