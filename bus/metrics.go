package bus

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// TransportMetrics 傳輸層的 Prometheus 指標
type TransportMetrics struct {
	Requests *prometheus.CounterVec
	Errors   *prometheus.CounterVec
	Duration *prometheus.HistogramVec
}

// NewTransportMetrics 建立並註冊指標
func NewTransportMetrics(reg prometheus.Registerer) *TransportMetrics {
	m := &TransportMetrics{
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "waveshare_io_requests_total",
				Help: "Modbus requests issued, by operation and unit.",
			},
			[]string{"op", "unit"},
		),
		Errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "waveshare_io_request_errors_total",
				Help: "Modbus requests that failed, by operation and unit.",
			},
			[]string{"op", "unit"},
		),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "waveshare_io_request_duration_seconds",
				Help:    "Modbus request round trip time.",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"op"},
		),
	}

	if reg != nil {
		reg.MustRegister(m.Requests, m.Errors, m.Duration)
	}
	return m
}

type instrumentedTransport struct {
	next    Transport
	metrics *TransportMetrics
}

// WithMetrics 為傳輸層加上請求計數、錯誤計數與延遲直方圖
func WithMetrics(t Transport, m *TransportMetrics) Transport {
	if m == nil {
		return t
	}
	return &instrumentedTransport{next: t, metrics: m}
}

func (i *instrumentedTransport) observe(op string, unit uint8, start time.Time, err error) {
	u := strconv.Itoa(int(unit))
	i.metrics.Requests.WithLabelValues(op, u).Inc()
	i.metrics.Duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		i.metrics.Errors.WithLabelValues(op, u).Inc()
	}
}

func (i *instrumentedTransport) Connect(ctx context.Context) error {
	return i.next.Connect(ctx)
}

func (i *instrumentedTransport) Close() error {
	return i.next.Close()
}

func (i *instrumentedTransport) WriteSingleCoil(ctx context.Context, unit uint8, address, value uint16) error {
	start := time.Now()
	err := i.next.WriteSingleCoil(ctx, unit, address, value)
	i.observe("write_coil", unit, start, err)
	return err
}

func (i *instrumentedTransport) WriteSingleRegister(ctx context.Context, unit uint8, address, value uint16) error {
	start := time.Now()
	err := i.next.WriteSingleRegister(ctx, unit, address, value)
	i.observe("write_register", unit, start, err)
	return err
}

func (i *instrumentedTransport) WriteMultipleRegisters(ctx context.Context, unit uint8, address uint16, values []uint16) error {
	start := time.Now()
	err := i.next.WriteMultipleRegisters(ctx, unit, address, values)
	i.observe("write_registers", unit, start, err)
	return err
}

func (i *instrumentedTransport) ReadHoldingRegisters(ctx context.Context, unit uint8, address, quantity uint16) ([]uint16, error) {
	start := time.Now()
	regs, err := i.next.ReadHoldingRegisters(ctx, unit, address, quantity)
	i.observe("read_holding", unit, start, err)
	return regs, err
}

func (i *instrumentedTransport) ReadInputRegisters(ctx context.Context, unit uint8, address, quantity uint16) ([]uint16, error) {
	start := time.Now()
	regs, err := i.next.ReadInputRegisters(ctx, unit, address, quantity)
	i.observe("read_input", unit, start, err)
	return regs, err
}

func (i *instrumentedTransport) ReadCoils(ctx context.Context, unit uint8, address, quantity uint16) ([]bool, error) {
	start := time.Now()
	bits, err := i.next.ReadCoils(ctx, unit, address, quantity)
	i.observe("read_coils", unit, start, err)
	return bits, err
}

func (i *instrumentedTransport) ReadDiscreteInputs(ctx context.Context, unit uint8, address, quantity uint16) ([]bool, error) {
	start := time.Now()
	bits, err := i.next.ReadDiscreteInputs(ctx, unit, address, quantity)
	i.observe("read_discrete", unit, start, err)
	return bits, err
}
