package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"waveshare-io/config"
	"waveshare-io/simulator"
)

// buildRack 依配置建立模擬設備；沒有設備清單時建立單一 simulator.family 設備
func buildRack(cfg *config.Config, failAfter int, jitter time.Duration) (*simulator.Rack, error) {
	rack := simulator.NewRack(logger)

	devices := cfg.Devices
	if len(devices) == 0 {
		devices = []config.DeviceConfig{{
			Name:    "sim",
			Family:  cfg.Simulator.Family,
			Address: 1,
		}}
	}

	for _, d := range devices {
		family, err := simulator.ParseFamily(d.Family)
		if err != nil {
			return nil, err
		}
		opts := []simulator.Option{
			simulator.WithAddress(uint8(d.Address)),
			simulator.WithSoftwareVersion(cfg.Simulator.SoftwareVersion),
			simulator.WithLogger(logger.With(zap.String("device", d.Name))),
		}
		if failAfter > 0 {
			opts = append(opts, simulator.WithFailAfter(failAfter))
		}
		if jitter > 0 {
			opts = append(opts, simulator.WithJitter(0, jitter))
		}

		if err := rack.Attach(simulator.NewDevice(family, opts...)); err != nil {
			return nil, err
		}
		logger.Info("模擬設備",
			zap.String("name", d.Name),
			zap.Stringer("family", family),
			zap.Int("unit", d.Address),
		)
	}
	return rack, nil
}

// simulateCmd 模擬器命令
var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "啟動模組模擬器",
	Long: `以 Modbus TCP (或 --rtu 指定的序列埠) 模擬配置中的設備。
未配置設備時模擬單一 simulator.family 模組於位址 1。`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if listen, _ := cmd.Flags().GetString("listen"); listen != "" {
			appConfig.Simulator.Listen = listen
		}
		if family, _ := cmd.Flags().GetString("family"); family != "" {
			appConfig.Simulator.Family = family
		}
		rtuPort, _ := cmd.Flags().GetString("rtu")
		failAfter, _ := cmd.Flags().GetInt("fail-after")
		jitter, _ := cmd.Flags().GetDuration("jitter")

		rack, err := buildRack(appConfig, failAfter, jitter)
		if err != nil {
			return err
		}

		if rtuPort != "" {
			err = rack.ListenRTU(rtuPort, appConfig.Bus.BaudRate)
		} else {
			err = rack.ListenTCP(appConfig.Simulator.Listen)
		}
		if err != nil {
			return fmt.Errorf("啟動模擬器失敗: %w", err)
		}

		ctx := cmd.Context()
		if appConfig.Metrics.Enabled {
			startMetricsServer(ctx, appConfig.Metrics, newRegistry(), func() bool {
				return rack.State() == simulator.RackStateRunning
			})
		}

		<-ctx.Done()
		logger.Info("收到關閉信號")

		var requests, errors uint64
		for _, d := range rack.Devices() {
			requests += d.Stats().Requests.Load()
			errors += d.Stats().Errors.Load()
		}
		logger.Info("模擬統計",
			zap.Uint64("requests", requests),
			zap.Uint64("errors", errors),
		)
		return rack.Close()
	},
}

func init() {
	simulateCmd.Flags().StringP("listen", "l", "", "TCP 監聽位址 (覆蓋 simulator.listen)")
	simulateCmd.Flags().StringP("family", "f", "", "模組系列 digital|relay|analog_in|analog_out")
	simulateCmd.Flags().String("rtu", "", "改以 RTU 模式監聽此序列埠")
	simulateCmd.Flags().Int("fail-after", 0, "成功寫入 N 次後回應從站故障 (0 為停用)")
	simulateCmd.Flags().Duration("jitter", 0, "每個請求的最大隨機延遲")
}
