package bus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToEngineering(t *testing.T) {
	assert.Equal(t, 0.0, ToEngineering(0))
	assert.Equal(t, 1.0, ToEngineering(1000))
	assert.InDelta(t, 65.535, ToEngineering(0xFFFF), 1e-9)
}

func TestToRaw_Truncates(t *testing.T) {
	tests := []struct {
		in   float64
		want uint16
	}{
		{0, 0},
		{1.0, 1000},
		{1.5, 1500},
		{8.0, 8000},
		{1.9999, 1999},
		{0.0009, 0},
		{-0.0005, 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ToRaw(tt.in), "ToRaw(%g)", tt.in)
	}
}

func TestToRaw_IntegralValuesExact(t *testing.T) {
	for v := 0; v <= 65; v++ {
		assert.Equal(t, uint16(v*1000), ToRaw(float64(v)))
	}
}

func TestAnalog_RoundTripExact(t *testing.T) {
	for v := 0; v <= 0xFFFF; v++ {
		raw := uint16(v)
		if got := ToRaw(ToEngineering(raw)); got != raw {
			t.Fatalf("raw %d -> %d", v, got)
		}
		got, err := ToRawChecked(ToEngineering(raw))
		require.NoError(t, err)
		require.Equal(t, raw, got)
	}
}

func TestToRaw_RepresentationError(t *testing.T) {
	tests := []struct {
		in   float64
		want uint16
	}{
		{1.001, 1001},
		{1.003, 1003},
		{4.321, 4321},
		{0.0019, 1},
		{2.9999, 2999},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ToRaw(tt.in), "ToRaw(%g)", tt.in)
	}
}

func TestToRawChecked(t *testing.T) {
	raw, err := ToRawChecked(65.5)
	require.NoError(t, err)
	assert.Equal(t, uint16(65500), raw)

	_, err = ToRawChecked(65.536)
	assert.ErrorIs(t, err, ErrValueOutOfRange)

	_, err = ToRawChecked(-0.001)
	assert.ErrorIs(t, err, ErrValueOutOfRange)
}
