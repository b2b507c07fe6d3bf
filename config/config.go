// Package config 載入與驗證 waveshare-io 的配置
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"waveshare-io/bus"
	"waveshare-io/simulator"
)

// EnvPrefix 環境變數前綴
const EnvPrefix = "WAVESHARE_IO"

// Config 全域配置
type Config struct {
	Bus       BusConfig       `mapstructure:"bus" yaml:"bus"`
	Devices   []DeviceConfig  `mapstructure:"devices" yaml:"devices"`
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics" yaml:"metrics"`
	Simulator SimulatorConfig `mapstructure:"simulator" yaml:"simulator"`
}

// BusConfig 匯流排連線配置
type BusConfig struct {
	Protocol string        `mapstructure:"protocol" yaml:"protocol"`
	Port     string        `mapstructure:"port" yaml:"port"`
	Address  string        `mapstructure:"address" yaml:"address"`
	BaudRate int           `mapstructure:"baud_rate" yaml:"baud_rate"`
	DataBits int           `mapstructure:"data_bits" yaml:"data_bits"`
	Parity   string        `mapstructure:"parity" yaml:"parity"`
	StopBits int           `mapstructure:"stop_bits" yaml:"stop_bits"`
	Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// DeviceConfig 匯流排上的具名設備
type DeviceConfig struct {
	Name    string `mapstructure:"name" yaml:"name"`
	Family  string `mapstructure:"family" yaml:"family"`
	Address int    `mapstructure:"address" yaml:"address"`
}

// LoggingConfig 日誌配置
type LoggingConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
}

// MetricsConfig 指標配置
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Listen  string `mapstructure:"listen" yaml:"listen"`
	Path    string `mapstructure:"path" yaml:"path"`
}

// SimulatorConfig 模擬器配置
type SimulatorConfig struct {
	Listen          string `mapstructure:"listen" yaml:"listen"`
	Family          string `mapstructure:"family" yaml:"family"`
	SoftwareVersion uint16 `mapstructure:"software_version" yaml:"software_version"`
}

// 匯流排協定
const (
	ProtocolRTU = "rtu"
	ProtocolTCP = "tcp"
)

// Default 返回預設配置
func Default() *Config {
	return &Config{
		Bus: BusConfig{
			Protocol: ProtocolRTU,
			Port:     "/dev/ttyUSB0",
			Address:  "127.0.0.1:502",
			BaudRate: bus.DefaultBaudRate,
			DataBits: 8,
			Parity:   "N",
			StopBits: 1,
			Timeout:  time.Second,
		},
		Devices: []DeviceConfig{},
		Logging: LoggingConfig{
			Level: "info",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Listen:  ":9090",
			Path:    "/metrics",
		},
		Simulator: SimulatorConfig{
			Listen:          "127.0.0.1:5020",
			Family:          simulator.FamilyRelay.String(),
			SoftwareVersion: simulator.DefaultSoftwareVersion,
		},
	}
}

// Load 載入配置檔，未指定路徑時搜尋預設位置
func Load(path string) (*Config, error) {
	cfg := Default()
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/waveshare-io/")
		v.AddConfigPath("$HOME/.waveshare-io/")
	}

	// 環境變數覆蓋，例如 WAVESHARE_IO_BUS_PORT
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("讀取配置檔失敗: %w", err)
		}
		// 配置檔不存在，使用預設值
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("解析配置失敗: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("配置驗證失敗: %w", err)
	}

	return cfg, nil
}

// bindEnv 讓純量欄位在沒有配置檔時也能由環境變數覆蓋
func bindEnv(v *viper.Viper) {
	for _, key := range []string{
		"bus.protocol", "bus.port", "bus.address", "bus.baud_rate", "bus.data_bits",
		"bus.parity", "bus.stop_bits", "bus.timeout",
		"logging.level",
		"metrics.enabled", "metrics.listen", "metrics.path",
		"simulator.listen", "simulator.family", "simulator.software_version",
	} {
		_ = v.BindEnv(key)
	}
}

// Validate 驗證配置，一次回報所有問題
func (c *Config) Validate() error {
	var result *multierror.Error

	switch c.Bus.Protocol {
	case ProtocolRTU:
		if c.Bus.Port == "" {
			result = multierror.Append(result, errors.New("rtu 匯流排必須指定序列埠"))
		}
		if _, err := bus.ParseBaudrate(c.Bus.BaudRate); err != nil {
			result = multierror.Append(result, err)
		}
		if c.Bus.DataBits < 5 || c.Bus.DataBits > 8 {
			result = multierror.Append(result, fmt.Errorf("無效的資料位元: %d", c.Bus.DataBits))
		}
		if c.Bus.StopBits != 1 && c.Bus.StopBits != 2 {
			result = multierror.Append(result, fmt.Errorf("無效的停止位元: %d", c.Bus.StopBits))
		}
		if _, err := bus.ParseParity(c.Bus.Parity); err != nil {
			result = multierror.Append(result, err)
		}
	case ProtocolTCP:
		if c.Bus.Address == "" {
			result = multierror.Append(result, errors.New("tcp 匯流排必須指定位址"))
		}
	default:
		result = multierror.Append(result, fmt.Errorf("未知的匯流排協定: %q", c.Bus.Protocol))
	}

	if c.Bus.Timeout <= 0 {
		result = multierror.Append(result, fmt.Errorf("逾時必須大於 0: %v", c.Bus.Timeout))
	}

	names := make(map[string]bool)
	addrs := make(map[int]string)
	for i, d := range c.Devices {
		if d.Name == "" {
			result = multierror.Append(result, fmt.Errorf("設備 #%d 缺少名稱", i))
		} else if names[d.Name] {
			result = multierror.Append(result, fmt.Errorf("設備名稱重複: %s", d.Name))
		}
		names[d.Name] = true

		if _, err := simulator.ParseFamily(d.Family); err != nil {
			result = multierror.Append(result, fmt.Errorf("設備 %q: %w", d.Name, err))
		}
		if _, err := bus.ValidateDeviceAddress(d.Address); err != nil {
			result = multierror.Append(result, fmt.Errorf("設備 %q: %w", d.Name, err))
		} else if other, ok := addrs[d.Address]; ok {
			result = multierror.Append(result, fmt.Errorf("設備 %q 與 %q 位址相同: %d", d.Name, other, d.Address))
		}
		addrs[d.Address] = d.Name
	}

	if c.Metrics.Enabled && c.Metrics.Listen == "" {
		result = multierror.Append(result, errors.New("啟用指標時必須指定監聽位址"))
	}
	if _, err := simulator.ParseFamily(c.Simulator.Family); err != nil {
		result = multierror.Append(result, fmt.Errorf("simulator: %w", err))
	}

	return result.ErrorOrNil()
}

// Device 依名稱取得設備
func (c *Config) Device(name string) (DeviceConfig, bool) {
	for _, d := range c.Devices {
		if d.Name == name {
			return d, true
		}
	}
	return DeviceConfig{}, false
}

// Transport 依匯流排配置建立傳輸層
func (b BusConfig) Transport() *bus.ModbusTransport {
	if b.Protocol == ProtocolTCP {
		return bus.NewTCPTransport(bus.TCPConfig{
			Address: b.Address,
			Timeout: b.Timeout,
		})
	}
	return bus.NewSerialTransport(bus.SerialConfig{
		Port:     b.Port,
		BaudRate: b.BaudRate,
		DataBits: b.DataBits,
		Parity:   b.Parity,
		StopBits: b.StopBits,
		Timeout:  b.Timeout,
	})
}

// Save 以 YAML 儲存配置
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("序列化配置失敗: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("寫入配置檔失敗: %w", err)
	}

	return nil
}
