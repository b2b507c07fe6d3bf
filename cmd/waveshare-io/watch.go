package main

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"waveshare-io/analogin"
	"waveshare-io/analogout"
	"waveshare-io/bus"
	"waveshare-io/config"
	"waveshare-io/digitalio"
	"waveshare-io/relay"
	"waveshare-io/simulator"
)

// watchTarget 一個被輪詢的設備
type watchTarget struct {
	name string
	poll func(ctx context.Context) ([bus.BankSize]float64, error)
}

// Poller 週期性讀取設備通道並匯出為 Prometheus 指標
type Poller struct {
	targets  []watchTarget
	interval time.Duration
	logger   *zap.Logger

	values *prometheus.GaugeVec
	errors *prometheus.CounterVec
	polled atomic.Bool

	onSample func(name string, values [bus.BankSize]float64)

	stopChan chan struct{}
	wg       sync.WaitGroup
	running  bool
	mu       sync.Mutex
}

// NewPoller 建立輪詢器並註冊指標
func NewPoller(targets []watchTarget, interval time.Duration, reg prometheus.Registerer, logger *zap.Logger) *Poller {
	p := &Poller{
		targets:  targets,
		interval: interval,
		logger:   logger,
		values: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "waveshare_io_channel_value",
			Help: "Last polled channel value (0/1 for digital, V or mA for analog).",
		}, []string{"device", "channel"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "waveshare_io_poll_errors_total",
			Help: "Failed polls, by device.",
		}, []string{"device"}),
	}
	if reg != nil {
		reg.MustRegister(p.values, p.errors)
	}
	return p
}

// Start 啟動週期輪詢
func (p *Poller) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return
	}
	p.running = true
	p.stopChan = make(chan struct{})
	p.wg.Add(1)
	go p.pollLoop(p.stopChan)

	p.logger.Info("輪詢已啟動",
		zap.Int("devices", len(p.targets)),
		zap.Duration("interval", p.interval),
	)
}

// Stop 停止輪詢並等待進行中的讀取結束
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	stop := p.stopChan
	p.mu.Unlock()

	close(stop)
	p.wg.Wait()

	p.logger.Info("輪詢已停止")
}

// Ready 至少完成一輪輪詢
func (p *Poller) Ready() bool {
	return p.polled.Load()
}

func (p *Poller) pollLoop(stop <-chan struct{}) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.PollOnce(context.Background())
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			p.PollOnce(context.Background())
		}
	}
}

// PollOnce 依序讀取所有設備一次
func (p *Poller) PollOnce(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, p.interval)
	defer cancel()

	for _, t := range p.targets {
		values, err := t.poll(ctx)
		if err != nil {
			p.errors.WithLabelValues(t.name).Inc()
			p.logger.Error("輪詢失敗",
				zap.String("device", t.name),
				zap.Error(err),
			)
			continue
		}

		for i, v := range values {
			p.values.WithLabelValues(t.name, bus.Channel(i).String()).Set(v)
		}
		if p.onSample != nil {
			p.onSample(t.name, values)
		}
	}
	p.polled.Store(true)
}

func bankValues(state bus.BankState) [bus.BankSize]float64 {
	var values [bus.BankSize]float64
	for i, on := range state {
		if on {
			values[i] = 1
		}
	}
	return values
}

// newWatchTarget 依系列建立讀取函式
func newWatchTarget(t bus.Transport, d config.DeviceConfig) (watchTarget, error) {
	family, err := simulator.ParseFamily(d.Family)
	if err != nil {
		return watchTarget{}, err
	}
	opt := bus.WithDeviceAddress(d.Address)
	target := watchTarget{name: d.Name}

	switch family {
	case simulator.FamilyDigital:
		c, err := digitalio.New(t, opt)
		if err != nil {
			return watchTarget{}, err
		}
		target.poll = func(ctx context.Context) ([bus.BankSize]float64, error) {
			state, err := c.ReadChannels(ctx)
			return bankValues(state), err
		}
	case simulator.FamilyRelay:
		c, err := relay.New(t, opt)
		if err != nil {
			return watchTarget{}, err
		}
		target.poll = func(ctx context.Context) ([bus.BankSize]float64, error) {
			state, err := c.ReadChannels(ctx)
			return bankValues(state), err
		}
	case simulator.FamilyAnalogIn:
		c, err := analogin.New(t, opt)
		if err != nil {
			return watchTarget{}, err
		}
		target.poll = c.ReadChannels
	case simulator.FamilyAnalogOut:
		c, err := analogout.New(t, opt)
		if err != nil {
			return watchTarget{}, err
		}
		target.poll = c.ChannelValues
	}
	return target, nil
}

// watchCmd 輪詢命令
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "週期輪詢配置中的設備",
	Long:  "依固定間隔讀取配置中的所有設備 (或 --device 指定的設備)，輸出變化並匯出 Prometheus 指標。",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		interval, _ := cmd.Flags().GetDuration("interval")
		if interval <= 0 {
			return fmt.Errorf("無效的輪詢間隔: %v", interval)
		}

		devices := appConfig.Devices
		if deviceName != "" {
			d, ok := appConfig.Device(deviceName)
			if !ok {
				return fmt.Errorf("配置中找不到設備: %s", deviceName)
			}
			devices = []config.DeviceConfig{d}
		}
		if len(devices) == 0 {
			return fmt.Errorf("配置中沒有設備")
		}

		ctx := cmd.Context()
		reg := newRegistry()

		t, err := openBus(ctx, reg)
		if err != nil {
			return err
		}
		defer t.Close()

		targets := make([]watchTarget, 0, len(devices))
		for _, d := range devices {
			target, err := newWatchTarget(t, d)
			if err != nil {
				return err
			}
			targets = append(targets, target)
		}

		poller := NewPoller(targets, interval, reg, logger)
		last := make(map[string][bus.BankSize]float64)
		poller.onSample = func(name string, values [bus.BankSize]float64) {
			if prev, ok := last[name]; ok && prev == values {
				return
			}
			last[name] = values
			fmt.Printf("%s %-12s %v\n", time.Now().Format(time.TimeOnly), name, values)
		}

		if appConfig.Metrics.Enabled {
			startMetricsServer(ctx, appConfig.Metrics, reg, poller.Ready)
		}

		poller.Start()
		<-ctx.Done()
		poller.Stop()
		return nil
	},
}

func init() {
	watchCmd.Flags().Duration("interval", time.Second, "輪詢間隔")
}
