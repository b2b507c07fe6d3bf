package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"waveshare-io/config"
)

var (
	cfgFile    string
	deviceName string
	unitFlag   int
	logger     *zap.Logger
	appConfig  *config.Config
)

// rootCmd 根命令
var rootCmd = &cobra.Command{
	Use:   "waveshare-io",
	Short: "Waveshare Modbus RTU I/O 模組工具",
	Long: `控制 Waveshare 8 路數位 I/O、繼電器、類比輸入與類比輸出模組。
支援 RTU 序列埠與 Modbus TCP 閘道，並內建模擬器。`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		// 載入配置 (除了 version、help 與 generate 命令)
		appConfig = config.Default()
		var loadErr error
		if cmd.Name() != "version" && cmd.Name() != "help" && cmd.Name() != "generate" {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				loadErr = err
			} else {
				appConfig = cfg
			}
		}

		logger, err = initLogger(appConfig.Logging.Level)
		if err != nil {
			return fmt.Errorf("初始化日誌失敗: %w", err)
		}

		if loadErr != nil && cfgFile != "" {
			logger.Warn("載入配置檔失敗，使用預設配置", zap.Error(loadErr))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// configCmd 配置命令組
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "配置管理命令",
	Long:  "管理配置檔。",
}

// configValidateCmd 驗證配置
var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "驗證配置檔",
	Long:  "驗證指定的配置檔是否有效，並列出所有問題。",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		fmt.Println("配置驗證通過")
		fmt.Printf("  Bus: %s (%s)\n", cfg.Bus.Protocol, busTarget(cfg.Bus))
		fmt.Printf("  Devices: %d\n", len(cfg.Devices))
		for _, d := range cfg.Devices {
			fmt.Printf("    - %-12s %-10s unit %d\n", d.Name, d.Family, d.Address)
		}
		return nil
	},
}

// configGenerateCmd 生成配置
var configGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "生成範例配置",
	Long:  "生成 YAML 範例配置檔。",
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")

		cfg := config.Default()
		cfg.Devices = []config.DeviceConfig{
			{Name: "dio", Family: "digital", Address: 1},
			{Name: "relays", Family: "relay", Address: 2},
			{Name: "sensors", Family: "analog_in", Address: 3},
			{Name: "outputs", Family: "analog_out", Address: 4},
		}

		if err := cfg.Save(output); err != nil {
			return fmt.Errorf("生成配置失敗: %w", err)
		}

		fmt.Printf("範例配置已生成: %s\n", output)
		return nil
	},
}

// versionCmd 版本命令
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "顯示版本資訊",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("waveshare-io version %s\n", Version)
		fmt.Printf("  Build: %s\n", BuildTime)
		fmt.Printf("  Commit: %s\n", GitCommit)
	},
}

func init() {
	// 全域 flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "配置檔路徑")
	rootCmd.PersistentFlags().StringVarP(&deviceName, "device", "d", "", "配置檔中的設備名稱")
	rootCmd.PersistentFlags().IntVarP(&unitFlag, "unit", "u", 0, "設備位址 (1-255)，覆蓋 --device")

	// config 命令 flags
	configGenerateCmd.Flags().StringP("output", "o", "waveshare-io.yaml", "輸出檔案路徑")

	// 組裝命令樹
	configCmd.AddCommand(configValidateCmd, configGenerateCmd)

	rootCmd.AddCommand(
		digitalCmd,
		relayCmd,
		analogInCmd,
		analogOutCmd,
		deviceCmd,
		watchCmd,
		simulateCmd,
		demoCmd,
		configCmd,
		versionCmd,
	)
}

func initLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	if level != "" {
		lvl, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return nil, err
		}
		cfg.Level = lvl
	}
	return cfg.Build()
}

func busTarget(b config.BusConfig) string {
	if b.Protocol == config.ProtocolTCP {
		return b.Address
	}
	return fmt.Sprintf("%s %d %d%s%d", b.Port, b.BaudRate, b.DataBits, b.Parity, b.StopBits)
}

// Execute 執行 CLI，收到 SIGINT/SIGTERM 時取消 context
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}
