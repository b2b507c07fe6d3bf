package simulator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterMap_WriteHoldingRegisters(t *testing.T) {
	rm := NewRegisterMap()

	require.NoError(t, rm.WriteHoldingRegisters(0x1000, []uint16{1, 2, 3}))
	regs, err := rm.ReadHoldingRegisters(0x1000, 3)
	require.NoError(t, err)
	assert.Equal(t, []uint16{1, 2, 3}, regs)

	// 超出 64K 範圍時整批不寫入
	assert.Error(t, rm.WriteHoldingRegisters(0xFFFF, []uint16{7, 8}))
	assert.Equal(t, uint16(0), rm.HoldingRegister(0xFFFF))

	assert.Error(t, rm.WriteHoldingRegisters(0, nil))
}
