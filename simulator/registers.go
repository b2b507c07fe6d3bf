package simulator

import (
	"fmt"
	"sync"
)

// BankSize 每種暫存器的定址空間
const BankSize = 1 << 16

// RegisterMap 線程安全的暫存器映射表
type RegisterMap struct {
	mu sync.RWMutex

	coils            []bool   // 0x - Coils
	discreteInputs   []bool   // 1x - Discrete Inputs
	inputRegisters   []uint16 // 3x - Input Registers
	holdingRegisters []uint16 // 4x - Holding Registers
}

// NewRegisterMap 建立涵蓋完整 16 位元位址空間的映射表
func NewRegisterMap() *RegisterMap {
	return &RegisterMap{
		coils:            make([]bool, BankSize),
		discreteInputs:   make([]bool, BankSize),
		inputRegisters:   make([]uint16, BankSize),
		holdingRegisters: make([]uint16, BankSize),
	}
}

func span(address uint16, quantity int) (int, int, error) {
	end := int(address) + quantity
	if quantity <= 0 || end > BankSize {
		return 0, 0, fmt.Errorf("位址超出範圍: %d+%d", address, quantity)
	}
	return int(address), end, nil
}

// --- Coils (0x) ---

// ReadCoils 讀取多個線圈
func (rm *RegisterMap) ReadCoils(address uint16, quantity uint16) ([]bool, error) {
	start, end, err := span(address, int(quantity))
	if err != nil {
		return nil, err
	}

	rm.mu.RLock()
	defer rm.mu.RUnlock()

	result := make([]bool, quantity)
	copy(result, rm.coils[start:end])
	return result, nil
}

// Coil 讀取單一線圈
func (rm *RegisterMap) Coil(address uint16) bool {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return rm.coils[address]
}

// WriteCoil 寫入單一線圈
func (rm *RegisterMap) WriteCoil(address uint16, value bool) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.coils[address] = value
}

// WriteCoils 寫入多個線圈
func (rm *RegisterMap) WriteCoils(address uint16, values []bool) error {
	start, end, err := span(address, len(values))
	if err != nil {
		return err
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()

	copy(rm.coils[start:end], values)
	return nil
}

// ToggleCoil 翻轉線圈並返回新值
func (rm *RegisterMap) ToggleCoil(address uint16) bool {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	rm.coils[address] = !rm.coils[address]
	return rm.coils[address]
}

// --- Discrete Inputs (1x) ---

// ReadDiscreteInputs 讀取多個離散輸入
func (rm *RegisterMap) ReadDiscreteInputs(address uint16, quantity uint16) ([]bool, error) {
	start, end, err := span(address, int(quantity))
	if err != nil {
		return nil, err
	}

	rm.mu.RLock()
	defer rm.mu.RUnlock()

	result := make([]bool, quantity)
	copy(result, rm.discreteInputs[start:end])
	return result, nil
}

// SetDiscreteInput 設定離散輸入並返回先前的值
func (rm *RegisterMap) SetDiscreteInput(address uint16, value bool) bool {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	prev := rm.discreteInputs[address]
	rm.discreteInputs[address] = value
	return prev
}

// --- Input Registers (3x) ---

// ReadInputRegisters 讀取多個輸入暫存器
func (rm *RegisterMap) ReadInputRegisters(address uint16, quantity uint16) ([]uint16, error) {
	start, end, err := span(address, int(quantity))
	if err != nil {
		return nil, err
	}

	rm.mu.RLock()
	defer rm.mu.RUnlock()

	result := make([]uint16, quantity)
	copy(result, rm.inputRegisters[start:end])
	return result, nil
}

// SetInputRegister 設定輸入暫存器
func (rm *RegisterMap) SetInputRegister(address uint16, value uint16) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.inputRegisters[address] = value
}

// --- Holding Registers (4x) ---

// HoldingRegister 讀取單一保持暫存器
func (rm *RegisterMap) HoldingRegister(address uint16) uint16 {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return rm.holdingRegisters[address]
}

// ReadHoldingRegisters 讀取多個保持暫存器
func (rm *RegisterMap) ReadHoldingRegisters(address uint16, quantity uint16) ([]uint16, error) {
	start, end, err := span(address, int(quantity))
	if err != nil {
		return nil, err
	}

	rm.mu.RLock()
	defer rm.mu.RUnlock()

	result := make([]uint16, quantity)
	copy(result, rm.holdingRegisters[start:end])
	return result, nil
}

// WriteHoldingRegister 寫入單一保持暫存器
func (rm *RegisterMap) WriteHoldingRegister(address uint16, value uint16) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	rm.holdingRegisters[address] = value
}

// WriteHoldingRegisters 寫入多個保持暫存器
func (rm *RegisterMap) WriteHoldingRegisters(address uint16, values []uint16) error {
	start, end, err := span(address, len(values))
	if err != nil {
		return err
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()

	copy(rm.holdingRegisters[start:end], values)
	return nil
}
