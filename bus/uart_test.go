package bus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBaudrate(t *testing.T) {
	b, err := ParseBaudrate(9600)
	require.NoError(t, err)
	assert.Equal(t, B9600, b)
	assert.Equal(t, 9600, b.Bps())

	b, err = ParseBaudrate(256000)
	require.NoError(t, err)
	assert.Equal(t, B256000, b)

	_, err = ParseBaudrate(1200)
	assert.ErrorIs(t, err, ErrInvalidUartParameters)
}

func TestParseParity(t *testing.T) {
	for in, want := range map[string]Parity{"": ParityNone, "N": ParityNone, "even": ParityEven, "O": ParityOdd} {
		p, err := ParseParity(in)
		require.NoError(t, err)
		assert.Equal(t, want, p)
	}

	_, err := ParseParity("mark")
	assert.ErrorIs(t, err, ErrInvalidUartParameters)
}

func TestUartParameters_Word(t *testing.T) {
	assert.Equal(t, uint32(0x00000001), UartParameters{Baudrate: B9600, Parity: ParityNone}.Word())
	assert.Equal(t, uint32(0x00010005), UartParameters{Baudrate: B115200, Parity: ParityEven}.Word())
	assert.Equal(t, uint32(0x00020007), UartParameters{Baudrate: B256000, Parity: ParityOdd}.Word())
}

func TestUartParameters_Register(t *testing.T) {
	v, err := UartParameters{Baudrate: B115200, Parity: ParityNone}.Register()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0005), v)

	_, err = UartParameters{Baudrate: B9600, Parity: ParityEven}.Register()
	assert.ErrorIs(t, err, ErrInvalidUartParameters)

	_, err = UartParameters{Baudrate: Baudrate(9)}.Register()
	assert.ErrorIs(t, err, ErrInvalidUartParameters)
}
