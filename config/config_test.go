package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waveshare-io/bus"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, ProtocolRTU, cfg.Bus.Protocol)
	assert.Equal(t, 9600, cfg.Bus.BaudRate)
	assert.Equal(t, time.Second, cfg.Bus.Timeout)
	assert.Equal(t, "relay", cfg.Simulator.Family)
	assert.False(t, cfg.Metrics.Enabled)
	assert.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name: "valid tcp bus",
			modify: func(c *Config) {
				c.Bus.Protocol = ProtocolTCP
				c.Bus.Port = ""
			},
			wantErr: false,
		},
		{
			name: "unknown protocol",
			modify: func(c *Config) {
				c.Bus.Protocol = "ascii"
			},
			wantErr: true,
		},
		{
			name: "unsupported baud rate",
			modify: func(c *Config) {
				c.Bus.BaudRate = 1200
			},
			wantErr: true,
		},
		{
			name: "invalid parity",
			modify: func(c *Config) {
				c.Bus.Parity = "X"
			},
			wantErr: true,
		},
		{
			name: "zero timeout",
			modify: func(c *Config) {
				c.Bus.Timeout = 0
			},
			wantErr: true,
		},
		{
			name: "device address out of range",
			modify: func(c *Config) {
				c.Devices = []DeviceConfig{{Name: "relay", Family: "relay", Address: 256}}
			},
			wantErr: true,
		},
		{
			name: "duplicate device address",
			modify: func(c *Config) {
				c.Devices = []DeviceConfig{
					{Name: "relay", Family: "relay", Address: 3},
					{Name: "dio", Family: "digital", Address: 3},
				}
			},
			wantErr: true,
		},
		{
			name: "unknown family",
			modify: func(c *Config) {
				c.Devices = []DeviceConfig{{Name: "x", Family: "thermostat", Address: 1}}
			},
			wantErr: true,
		},
		{
			name: "metrics without listen address",
			modify: func(c *Config) {
				c.Metrics.Enabled = true
				c.Metrics.Listen = ""
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_Validate_ReportsAllProblems(t *testing.T) {
	cfg := Default()
	cfg.Bus.BaudRate = 1200
	cfg.Bus.StopBits = 3
	cfg.Devices = []DeviceConfig{{Name: "", Family: "relay", Address: 0}}

	err := cfg.Validate()
	require.Error(t, err)

	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	assert.Len(t, merr.Errors, 4)
	assert.ErrorIs(t, err, bus.ErrInvalidDeviceAddress)
}

func TestConfig_Device(t *testing.T) {
	cfg := Default()
	cfg.Devices = []DeviceConfig{{Name: "pump", Family: "relay", Address: 4}}

	d, ok := cfg.Device("pump")
	require.True(t, ok)
	assert.Equal(t, 4, d.Address)

	_, ok = cfg.Device("fan")
	assert.False(t, ok)
}

func TestBusConfig_Transport(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "/dev/ttyUSB0", cfg.Bus.Transport().String())

	cfg.Bus.Protocol = ProtocolTCP
	cfg.Bus.Address = "10.0.0.5:502"
	assert.Equal(t, "10.0.0.5:502", cfg.Bus.Transport().String())
}

func TestConfig_SaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "waveshare-io.yaml")

	cfg := Default()
	cfg.Bus.Port = "/dev/ttyAMA0"
	cfg.Bus.BaudRate = 115200
	cfg.Bus.Timeout = 500 * time.Millisecond
	cfg.Devices = []DeviceConfig{
		{Name: "outputs", Family: "relay", Address: 1},
		{Name: "sensors", Family: "analog_in", Address: 2},
	}

	require.NoError(t, cfg.Save(configPath))

	_, err := os.Stat(configPath)
	require.NoError(t, err)

	loaded, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, cfg.Bus, loaded.Bus)
	assert.Equal(t, cfg.Devices, loaded.Devices)
	assert.Equal(t, cfg.Simulator, loaded.Simulator)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "partial.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("bus:\n  protocol: tcp\n  address: 192.168.1.200:502\n"), 0644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, ProtocolTCP, cfg.Bus.Protocol)
	assert.Equal(t, "192.168.1.200:502", cfg.Bus.Address)
	assert.Equal(t, time.Second, cfg.Bus.Timeout)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_EnvOverride(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "env.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("logging:\n  level: info\n"), 0644))
	t.Setenv("WAVESHARE_IO_LOGGING_LEVEL", "debug")
	t.Setenv("WAVESHARE_IO_BUS_PORT", "/dev/ttyS1")

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "/dev/ttyS1", cfg.Bus.Port)
}

func TestLoad_InvalidFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("bus:\n  protocol: ascii\n"), 0644))

	_, err := Load(configPath)
	assert.Error(t, err)
}
