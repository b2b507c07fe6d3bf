package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"waveshare-io/bus"
	"waveshare-io/simulator"
)

// commandTimeout 單次命令的逾時
const commandTimeout = 10 * time.Second

// openBus 依配置建立並連線傳輸層，reg 不為 nil 時加上指標
func openBus(ctx context.Context, reg prometheus.Registerer) (bus.Transport, error) {
	var t bus.Transport = appConfig.Bus.Transport()
	t = bus.WithLogging(t, logger)
	if reg != nil {
		t = bus.WithMetrics(t, bus.NewTransportMetrics(reg))
	}

	if err := t.Connect(ctx); err != nil {
		return nil, err
	}
	return t, nil
}

// resolveUnit 決定命令目標的設備位址
//
// 優先順序: --unit、--device、配置中第一個同系列設備、預設位址 1。
func resolveUnit(family simulator.Family) (int, error) {
	if unitFlag != 0 {
		return unitFlag, nil
	}

	if deviceName != "" {
		d, ok := appConfig.Device(deviceName)
		if !ok {
			return 0, fmt.Errorf("配置中找不到設備: %s", deviceName)
		}
		f, err := simulator.ParseFamily(d.Family)
		if err != nil {
			return 0, err
		}
		if f != family {
			return 0, fmt.Errorf("設備 %s 是 %v 模組，不是 %v", d.Name, f, family)
		}
		return d.Address, nil
	}

	return configuredUnit(family), nil
}

// configuredUnit 返回配置中第一個同系列設備的位址
func configuredUnit(family simulator.Family) int {
	for _, d := range appConfig.Devices {
		if f, err := simulator.ParseFamily(d.Family); err == nil && f == family {
			return d.Address
		}
	}
	return bus.DefaultDeviceAddress
}

// runWith 建立指定系列的控制器並執行 fn
func runWith[C any](cmd *cobra.Command, family simulator.Family,
	build func(bus.Transport, ...bus.Option) (C, error),
	fn func(context.Context, C) error,
) error {
	unit, err := resolveUnit(family)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()

	t, err := openBus(ctx, nil)
	if err != nil {
		return err
	}
	defer t.Close()

	c, err := build(t, bus.WithDeviceAddress(unit))
	if err != nil {
		return err
	}
	return fn(ctx, c)
}

// parseChannel 解析 1-8 的通道編號
func parseChannel(s string) (bus.Channel, error) {
	n, err := strconv.Atoi(strings.TrimPrefix(strings.ToUpper(s), "CH"))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", bus.ErrInvalidChannel, s)
	}
	return bus.NewChannel(n - 1)
}

// parseAction 解析 on/off/flip
func parseAction(s string) (bus.Action, error) {
	switch strings.ToLower(s) {
	case "on", "1", "close":
		return bus.ActionOn, nil
	case "off", "0", "open":
		return bus.ActionOff, nil
	case "flip", "toggle":
		return bus.ActionFlip, nil
	default:
		return 0, fmt.Errorf("%w: %q (on|off|flip)", bus.ErrInvalidAction, s)
	}
}

func parseActions(args []string) ([]bus.Action, error) {
	actions := make([]bus.Action, 0, len(args))
	for _, a := range args {
		action, err := parseAction(a)
		if err != nil {
			return nil, err
		}
		actions = append(actions, action)
	}
	return actions, nil
}

func printBank(label string, state bus.BankState) {
	fmt.Printf("%s: %s\n", label, state)
	for i, on := range state {
		mark := "off"
		if on {
			mark = "ON"
		}
		fmt.Printf("  %v  %s\n", bus.Channel(i), mark)
	}
}

func printValues(label, unit string, values []float64) {
	fmt.Printf("%s:\n", label)
	for i, v := range values {
		fmt.Printf("  %v  %7.3f %s\n", bus.Channel(i), v, unit)
	}
}
