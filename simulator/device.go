// Package simulator 在程序內模擬 Waveshare Modbus I/O 模組
package simulator

import (
	"encoding/binary"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"waveshare-io/bus"
)

// 數位模組通道控制模式
const (
	modeCommand uint16 = iota
	modeLinked
	modeFlip
)

const (
	maxChannelType   = 4
	maxFlashInterval = 0x7FFF
	flashUnit        = 100 * time.Millisecond

	// DefaultSoftwareVersion 預設韌體版本 (V1.00)
	DefaultSoftwareVersion uint16 = 0x0064
)

// DeviceStats 設備統計資訊
type DeviceStats struct {
	Requests        atomic.Uint64
	Errors          atomic.Uint64
	Writes          atomic.Uint64
	LastRequestTime atomic.Int64
}

// Option 設備配置選項
type Option func(*Device)

// WithAddress 設定初始設備位址
func WithAddress(addr uint8) Option {
	return func(d *Device) {
		d.registers.WriteHoldingRegister(regDeviceAddress, uint16(addr))
	}
}

// WithSoftwareVersion 設定韌體版本暫存器
func WithSoftwareVersion(v uint16) Option {
	return func(d *Device) {
		d.registers.WriteHoldingRegister(regSoftwareVersion, v)
	}
}

// WithLogger 設定日誌
func WithLogger(logger *zap.Logger) Option {
	return func(d *Device) {
		d.logger = logger
	}
}

// WithFailAfter 成功寫入 n 次後，之後的寫入一律回應從站故障
func WithFailAfter(n int) Option {
	return func(d *Device) {
		d.failAfter = int64(n)
	}
}

// WithJitter 每個請求加入 min..max 的延遲
func WithJitter(min, max time.Duration) Option {
	return func(d *Device) {
		d.jitterMin = min
		d.jitterMax = max
	}
}

// Device 單一模擬模組
type Device struct {
	family    Family
	profile   profile
	registers *RegisterMap
	logger    *zap.Logger

	failAfter int64
	jitterMin time.Duration
	jitterMax time.Duration

	mu     sync.Mutex
	timers map[uint16]*time.Timer

	stats DeviceStats
}

// NewDevice 建立指定系列的模擬設備，預設位址 1、鮑率 9600
func NewDevice(family Family, opts ...Option) *Device {
	d := &Device{
		family:    family,
		profile:   profileFor(family),
		registers: NewRegisterMap(),
		failAfter: -1,
		timers:    make(map[uint16]*time.Timer),
	}
	d.registers.WriteHoldingRegister(regDeviceAddress, bus.DefaultDeviceAddress)
	d.registers.WriteHoldingRegister(regUartParameters, uint16(bus.B9600))
	d.registers.WriteHoldingRegister(regSoftwareVersion, DefaultSoftwareVersion)

	for _, opt := range opts {
		opt(d)
	}

	if d.logger == nil {
		d.logger = zap.NewNop()
	}
	return d
}

// Family 返回模組系列
func (d *Device) Family() Family {
	return d.family
}

// Address 返回目前的設備位址
func (d *Device) Address() uint8 {
	return uint8(d.registers.HoldingRegister(regDeviceAddress))
}

// SoftwareVersion 返回韌體版本暫存器
func (d *Device) SoftwareVersion() uint16 {
	return d.registers.HoldingRegister(regSoftwareVersion)
}

// UartParameters 返回 UART 參數暫存器
func (d *Device) UartParameters() uint16 {
	return d.registers.HoldingRegister(regUartParameters)
}

// Registers 取得暫存器映射
func (d *Device) Registers() *RegisterMap {
	return d.registers
}

// Stats 取得統計資訊
func (d *Device) Stats() *DeviceStats {
	return &d.stats
}

// Outputs 返回 8 路輸出線圈狀態
func (d *Device) Outputs() bus.BankState {
	var state bus.BankState
	for i := range state {
		state[i] = d.registers.Coil(uint16(i))
	}
	return state
}

// Inputs 返回 8 路數位輸入狀態
func (d *Device) Inputs() bus.BankState {
	bits, _ := d.registers.ReadDiscreteInputs(0, channelCount)
	var state bus.BankState
	copy(state[:], bits)
	return state
}

// SetInput 模擬數位輸入變化，並依通道控制模式連動輸出
func (d *Device) SetInput(ch bus.Channel, on bool) error {
	if !d.profile.discrete {
		return fmt.Errorf("%v 模組沒有數位輸入", d.family)
	}
	if err := ch.Validate(); err != nil {
		return err
	}

	addr := uint16(ch)
	prev := d.registers.SetDiscreteInput(addr, on)

	switch d.registers.HoldingRegister(regChannelConfig + addr) {
	case modeLinked:
		d.registers.WriteCoil(addr, on)
	case modeFlip:
		if on && !prev {
			d.registers.ToggleCoil(addr)
		}
	}
	return nil
}

// SetAnalogInput 設定類比輸入通道的量測值 (V 或 mA)
func (d *Device) SetAnalogInput(ch bus.Channel, value float64) error {
	if !d.profile.inputs {
		return fmt.Errorf("%v 模組沒有類比輸入", d.family)
	}
	if err := ch.Validate(); err != nil {
		return err
	}
	raw, err := bus.ToRawChecked(value)
	if err != nil {
		return err
	}
	d.registers.SetInputRegister(uint16(ch), raw)
	return nil
}

// AnalogOutputs 返回類比輸出設定值
func (d *Device) AnalogOutputs() [channelCount]float64 {
	var values [channelCount]float64
	regs, _ := d.registers.ReadHoldingRegisters(regChannelBase, channelCount)
	for i := range values {
		values[i] = bus.ToEngineering(regs[i])
	}
	return values
}

// Close 停止所有閃爍計時器
func (d *Device) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for addr, t := range d.timers {
		t.Stop()
		delete(d.timers, addr)
	}
}

// Handle 處理一個 PDU，返回回應資料 (不含功能碼)
//
// 錯誤為 Exception 時代表 Modbus 異常回應。
func (d *Device) Handle(function uint8, data []byte) ([]byte, error) {
	d.applyJitter()
	d.stats.Requests.Add(1)
	d.stats.LastRequestTime.Store(time.Now().UnixNano())

	resp, err := d.dispatch(function, data)
	if err != nil {
		d.stats.Errors.Add(1)
		d.logger.Debug("請求被拒絕",
			zap.Uint8("unit", d.Address()),
			zap.Uint8("function", function),
			zap.Error(err),
		)
	}
	return resp, err
}

func (d *Device) dispatch(function uint8, data []byte) ([]byte, error) {
	if len(data) < 4 {
		return nil, ExceptionIllegalDataValue
	}
	address := binary.BigEndian.Uint16(data[0:2])
	value := binary.BigEndian.Uint16(data[2:4])

	switch function {
	case bus.FuncCodeReadCoils:
		return d.readBits(d.profile.coils, address, value, d.registers.ReadCoils)
	case bus.FuncCodeReadDiscreteInputs:
		return d.readBits(d.profile.discrete, address, value, d.registers.ReadDiscreteInputs)
	case bus.FuncCodeReadHoldingRegisters:
		if value == 0 || value > bus.MaxRegistersPerRead {
			return nil, ExceptionIllegalDataValue
		}
		if !d.profile.holdingAllowed(address, int(value)) {
			return nil, ExceptionIllegalDataAddress
		}
		return d.readRegisters(address, value, d.registers.ReadHoldingRegisters)
	case bus.FuncCodeReadInputRegisters:
		if !d.profile.inputs {
			return nil, ExceptionIllegalFunction
		}
		if value == 0 || value > bus.MaxRegistersPerRead {
			return nil, ExceptionIllegalDataValue
		}
		if !(window{0, channelCount}).contains(address, int(value)) {
			return nil, ExceptionIllegalDataAddress
		}
		return d.readRegisters(address, value, d.registers.ReadInputRegisters)
	case bus.FuncCodeWriteSingleCoil:
		if err := d.writeSingleCoil(address, value); err != nil {
			return nil, err
		}
		return data[:4], nil
	case bus.FuncCodeWriteSingleRegister:
		if err := d.writeHolding(address, []uint16{value}); err != nil {
			return nil, err
		}
		return data[:4], nil
	case bus.FuncCodeWriteMultipleCoils:
		if err := d.writeMultipleCoils(address, value, data[4:]); err != nil {
			return nil, err
		}
		return data[:4], nil
	case bus.FuncCodeWriteMultipleRegisters:
		values, err := multipleRegisters(value, data[4:])
		if err != nil {
			return nil, err
		}
		if err := d.writeHolding(address, values); err != nil {
			return nil, err
		}
		return data[:4], nil
	default:
		return nil, ExceptionIllegalFunction
	}
}

func (d *Device) readBits(supported bool, address, quantity uint16, read func(uint16, uint16) ([]bool, error)) ([]byte, error) {
	if !supported {
		return nil, ExceptionIllegalFunction
	}
	if quantity == 0 || quantity > bus.MaxCoilsPerRead {
		return nil, ExceptionIllegalDataValue
	}
	if !(window{0, channelCount}).contains(address, int(quantity)) {
		return nil, ExceptionIllegalDataAddress
	}
	bits, err := read(address, quantity)
	if err != nil {
		return nil, ExceptionIllegalDataAddress
	}
	packed := bus.CoilsToBytes(bits)
	return append([]byte{byte(len(packed))}, packed...), nil
}

func (d *Device) readRegisters(address, quantity uint16, read func(uint16, uint16) ([]uint16, error)) ([]byte, error) {
	regs, err := read(address, quantity)
	if err != nil {
		return nil, ExceptionIllegalDataAddress
	}
	packed := bus.RegistersToBytes(regs)
	return append([]byte{byte(len(packed))}, packed...), nil
}

// beginWrite 檢查故障注入設定
func (d *Device) beginWrite() error {
	if d.failAfter >= 0 && int64(d.stats.Writes.Load()) >= d.failAfter {
		return ExceptionSlaveDeviceFailure
	}
	return nil
}

func (d *Device) writeSingleCoil(address, value uint16) error {
	if !d.profile.coils {
		return ExceptionIllegalFunction
	}

	var apply func()
	switch {
	case address < channelCount:
		cmd, err := coilCommand(value)
		if err != nil {
			return err
		}
		apply = func() { d.applyCoil(address, cmd) }
	case address == coilControlAll:
		cmd, err := coilCommand(value)
		if err != nil {
			return err
		}
		apply = func() {
			for ch := uint16(0); ch < channelCount; ch++ {
				d.applyCoil(ch, cmd)
			}
		}
	case address >= coilFlashOn && address < coilFlashOn+channelCount:
		if value == 0 || value > maxFlashInterval {
			return ExceptionIllegalDataValue
		}
		apply = func() { d.flash(address-coilFlashOn, true, value) }
	case address >= coilFlashOff && address < coilFlashOff+channelCount:
		if value == 0 || value > maxFlashInterval {
			return ExceptionIllegalDataValue
		}
		apply = func() { d.flash(address-coilFlashOff, false, value) }
	default:
		return ExceptionIllegalDataAddress
	}

	if err := d.beginWrite(); err != nil {
		return err
	}
	apply()
	d.stats.Writes.Add(1)
	return nil
}

func coilCommand(value uint16) (bus.Action, error) {
	action := bus.Action(value)
	if !action.Valid() {
		return 0, ExceptionIllegalDataValue
	}
	return action, nil
}

func (d *Device) applyCoil(ch uint16, action bus.Action) {
	d.cancelFlash(ch)
	switch action {
	case bus.ActionOn:
		d.registers.WriteCoil(ch, true)
	case bus.ActionOff:
		d.registers.WriteCoil(ch, false)
	case bus.ActionFlip:
		d.registers.ToggleCoil(ch)
	}
}

// flash 設定輸出後於 units*100ms 自動恢復
func (d *Device) flash(ch uint16, on bool, units uint16) {
	d.cancelFlash(ch)
	d.registers.WriteCoil(ch, on)

	d.mu.Lock()
	defer d.mu.Unlock()

	var t *time.Timer
	t = time.AfterFunc(time.Duration(units)*flashUnit, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if d.timers[ch] != t {
			return
		}
		delete(d.timers, ch)
		d.registers.WriteCoil(ch, !on)
	})
	d.timers[ch] = t
}

func (d *Device) cancelFlash(ch uint16) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if t, ok := d.timers[ch]; ok {
		t.Stop()
		delete(d.timers, ch)
	}
}

func (d *Device) writeMultipleCoils(address, quantity uint16, payload []byte) error {
	if !d.profile.coils {
		return ExceptionIllegalFunction
	}
	if quantity == 0 || len(payload) < 1 || int(payload[0]) != (int(quantity)+7)/8 || len(payload)-1 < int(payload[0]) {
		return ExceptionIllegalDataValue
	}
	if !(window{0, channelCount}).contains(address, int(quantity)) {
		return ExceptionIllegalDataAddress
	}
	if err := d.beginWrite(); err != nil {
		return err
	}

	values := bus.ByteToCoils(payload[1:], int(quantity))
	for i := range values {
		d.cancelFlash(address + uint16(i))
	}
	if err := d.registers.WriteCoils(address, values); err != nil {
		return ExceptionIllegalDataAddress
	}
	d.stats.Writes.Add(1)
	return nil
}

func multipleRegisters(quantity uint16, payload []byte) ([]uint16, error) {
	if quantity == 0 || quantity > bus.MaxRegistersPerWrite {
		return nil, ExceptionIllegalDataValue
	}
	if len(payload) < 1 || int(payload[0]) != int(quantity)*2 || len(payload)-1 < int(payload[0]) {
		return nil, ExceptionIllegalDataValue
	}
	return bus.BytesToRegisters(payload[1 : 1+int(payload[0])]), nil
}

func (d *Device) writeHolding(address uint16, values []uint16) error {
	if !d.profile.holdingAllowed(address, len(values)) {
		return ExceptionIllegalDataAddress
	}
	for i, v := range values {
		if err := d.validateHolding(address+uint16(i), v); err != nil {
			return err
		}
	}
	if err := d.beginWrite(); err != nil {
		return err
	}

	for i, v := range values {
		d.storeHolding(address+uint16(i), v)
	}
	if err := d.registers.WriteHoldingRegisters(address, values); err != nil {
		return ExceptionIllegalDataAddress
	}
	d.stats.Writes.Add(1)
	return nil
}

func (d *Device) validateHolding(address, value uint16) error {
	switch {
	case address == regSoftwareVersion:
		return ExceptionIllegalDataAddress
	case address == regDeviceAddress:
		if value < 1 || value > 255 {
			return ExceptionIllegalDataValue
		}
	case address == regUartParameters:
		if value&0xFF > uint16(bus.B256000) || value>>8 > uint16(bus.ParityOdd) {
			return ExceptionIllegalDataValue
		}
	case d.family == FamilyDigital && address < regChannelConfig+channelCount:
		if value > modeFlip {
			return ExceptionIllegalDataValue
		}
	case d.family == FamilyAnalogIn:
		if value > maxChannelType {
			return ExceptionIllegalDataValue
		}
	}
	return nil
}

// storeHolding 處理單一保持暫存器寫入的附帶效果 (日誌與控制模式別名)，
// 本身的值由 writeHolding 整批寫入
func (d *Device) storeHolding(address, value uint16) {
	switch {
	case address == regDeviceAddress:
		d.logger.Info("設備位址已變更",
			zap.Uint8("from", d.Address()),
			zap.Uint16("to", value),
		)
	case address == regUartParameters:
		d.logger.Info("UART 參數已變更", zap.Uint16("value", value))
	case d.family == FamilyDigital && address < channelCount:
		// 0x0000 區段為控制模式的別名
		d.registers.WriteHoldingRegister(regChannelConfig+address, value)
	case d.family == FamilyDigital && address >= regChannelConfig && address < regChannelConfig+channelCount:
		d.registers.WriteHoldingRegister(address-regChannelConfig, value)
	}
}

// applyJitter 套用延遲抖動
func (d *Device) applyJitter() {
	if d.jitterMax <= 0 {
		return
	}
	jitter := d.jitterMin
	if d.jitterMax > d.jitterMin {
		jitter += time.Duration(rand.Int63n(int64(d.jitterMax - d.jitterMin)))
	}
	time.Sleep(jitter)
}
