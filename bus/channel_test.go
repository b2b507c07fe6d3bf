package bus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewChannel(t *testing.T) {
	for n := 0; n < BankSize; n++ {
		ch, err := NewChannel(n)
		require.NoError(t, err)
		assert.Equal(t, Channel(n), ch)
	}

	_, err := NewChannel(8)
	assert.ErrorIs(t, err, ErrInvalidChannel)

	_, err = NewChannel(-1)
	assert.ErrorIs(t, err, ErrInvalidChannel)
}

func TestChannel_String(t *testing.T) {
	assert.Equal(t, "CH1", Channel1.String())
	assert.Equal(t, "CH8", Channel8.String())
}

func TestChannelAddress(t *testing.T) {
	addr, err := ChannelAddress(0x0200, Channel4)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0203), addr)

	_, err = ChannelAddress(0x0000, Channel(8))
	assert.ErrorIs(t, err, ErrInvalidChannel)
}

func TestSpanAddresses(t *testing.T) {
	tests := []struct {
		name    string
		start   Channel
		n       int
		want    []uint16
		wantErr bool
	}{
		{"full bank", Channel1, 8, []uint16{0, 1, 2, 3, 4, 5, 6, 7}, false},
		{"tail", Channel7, 2, []uint16{6, 7}, false},
		{"empty", Channel3, 0, []uint16{}, false},
		{"overflow", Channel7, 3, nil, true},
		{"bad start", Channel(8), 1, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SpanAddresses(0, tt.start, tt.n)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidChannel)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateDeviceAddress(t *testing.T) {
	for _, addr := range []int{1, 100, 255} {
		unit, err := ValidateDeviceAddress(addr)
		require.NoError(t, err)
		assert.Equal(t, uint8(addr), unit)
	}

	for _, addr := range []int{0, 256, -1, 1000} {
		_, err := ValidateDeviceAddress(addr)
		assert.ErrorIs(t, err, ErrInvalidDeviceAddress, "addr %d", addr)
	}
}
