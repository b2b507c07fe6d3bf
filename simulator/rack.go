package simulator

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goburrow/serial"
	"github.com/tbrandon/mbserver"
	"go.uber.org/zap"

	"waveshare-io/bus"
)

// RackState 機架狀態
type RackState int32

const (
	RackStateStopped RackState = iota
	RackStateRunning
)

func (s RackState) String() string {
	switch s {
	case RackStateStopped:
		return "stopped"
	case RackStateRunning:
		return "running"
	default:
		return "unknown"
	}
}

// Rack 共用一條匯流排 (或 TCP 閘道) 的多個模擬設備
//
// 請求依 unit id 分派給目前位址相符的設備，
// 因此設備位址變更後立即以新位址回應。
type Rack struct {
	mu      sync.RWMutex
	devices []*Device

	state  atomic.Int32
	server *mbserver.Server
	logger *zap.Logger

	startTime time.Time
}

// NewRack 建立空的機架
func NewRack(logger *zap.Logger) *Rack {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Rack{logger: logger}
}

// Attach 加入設備，位址不可重複
func (r *Rack) Attach(d *Device) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.devices {
		if existing.Address() == d.Address() {
			return fmt.Errorf("設備位址 %d 已被使用", d.Address())
		}
	}
	r.devices = append(r.devices, d)
	return nil
}

// Device 依位址取得設備
func (r *Rack) Device(unit uint8) (*Device, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, d := range r.devices {
		if d.Address() == unit {
			return d, true
		}
	}
	return nil, false
}

// Devices 返回所有設備
func (r *Rack) Devices() []*Device {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Device, len(r.devices))
	copy(result, r.devices)
	return result
}

// State 取得當前狀態
func (r *Rack) State() RackState {
	return RackState(r.state.Load())
}

// ListenTCP 以 Modbus TCP 提供服務
func (r *Rack) ListenTCP(addr string) error {
	return r.start(addr, func(s *mbserver.Server) error {
		return s.ListenTCP(addr)
	})
}

// ListenRTU 於序列埠以 Modbus RTU 提供服務
func (r *Rack) ListenRTU(port string, baudRate int) error {
	cfg := &serial.Config{
		Address:  port,
		BaudRate: baudRate,
		DataBits: 8,
		StopBits: 1,
		Parity:   "N",
		Timeout:  10 * time.Second,
	}
	return r.start(port, func(s *mbserver.Server) error {
		return s.ListenRTU(cfg)
	})
}

func (r *Rack) start(target string, listen func(*mbserver.Server) error) error {
	if !r.state.CompareAndSwap(int32(RackStateStopped), int32(RackStateRunning)) {
		return errors.New("模擬器已經在運行中")
	}

	server := mbserver.NewServer()
	for _, fc := range []uint8{
		bus.FuncCodeReadCoils,
		bus.FuncCodeReadDiscreteInputs,
		bus.FuncCodeReadHoldingRegisters,
		bus.FuncCodeReadInputRegisters,
		bus.FuncCodeWriteSingleCoil,
		bus.FuncCodeWriteSingleRegister,
		bus.FuncCodeWriteMultipleCoils,
		bus.FuncCodeWriteMultipleRegisters,
	} {
		server.RegisterFunctionHandler(fc, r.handler(fc))
	}

	if err := listen(server); err != nil {
		r.state.Store(int32(RackStateStopped))
		return fmt.Errorf("監聽 %s 失敗: %w", target, err)
	}

	r.server = server
	r.startTime = time.Now()
	r.logger.Info("模擬器已啟動",
		zap.String("addr", target),
		zap.Int("devices", len(r.Devices())),
	)
	return nil
}

// Close 停止服務與所有設備計時器
func (r *Rack) Close() error {
	if !r.state.CompareAndSwap(int32(RackStateRunning), int32(RackStateStopped)) {
		return nil
	}

	r.server.Close()
	for _, d := range r.Devices() {
		d.Close()
	}

	r.logger.Info("模擬器已停止",
		zap.Duration("uptime", time.Since(r.startTime)),
	)
	return nil
}

func (r *Rack) handler(function uint8) func(*mbserver.Server, mbserver.Framer) ([]byte, *mbserver.Exception) {
	return func(_ *mbserver.Server, frame mbserver.Framer) ([]byte, *mbserver.Exception) {
		resp, err := r.Handle(frameUnit(frame), function, frame.GetData())
		if err != nil {
			return []byte{}, toException(err)
		}
		return resp, &mbserver.Success
	}
}

// Handle 將請求分派至對應設備；unit 0 為廣播寫入
func (r *Rack) Handle(unit, function uint8, data []byte) ([]byte, error) {
	if unit == 0 {
		return r.broadcast(function, data)
	}

	d, ok := r.Device(unit)
	if !ok {
		r.logger.Debug("找不到設備", zap.Uint8("unit", unit))
		return nil, ExceptionGatewayTargetFailed
	}
	return d.Handle(function, data)
}

func (r *Rack) broadcast(function uint8, data []byte) ([]byte, error) {
	switch function {
	case bus.FuncCodeWriteSingleCoil, bus.FuncCodeWriteSingleRegister,
		bus.FuncCodeWriteMultipleCoils, bus.FuncCodeWriteMultipleRegisters:
	default:
		return nil, ExceptionIllegalFunction
	}

	var (
		resp    []byte
		lastErr error
	)
	for _, d := range r.Devices() {
		out, err := d.Handle(function, data)
		if err != nil {
			lastErr = err
			continue
		}
		resp = out
	}
	if resp == nil && lastErr != nil {
		return nil, lastErr
	}
	return resp, nil
}

func frameUnit(frame mbserver.Framer) uint8 {
	switch f := frame.(type) {
	case *mbserver.TCPFrame:
		return f.Device
	case *mbserver.RTUFrame:
		return f.Address
	default:
		return bus.DefaultDeviceAddress
	}
}

func toException(err error) *mbserver.Exception {
	var ex Exception
	if !errors.As(err, &ex) {
		ex = ExceptionSlaveDeviceFailure
	}
	code := mbserver.Exception(ex)
	return &code
}
