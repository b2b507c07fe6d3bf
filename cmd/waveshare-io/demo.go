package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"waveshare-io/analogin"
	"waveshare-io/analogout"
	"waveshare-io/bus"
	"waveshare-io/digitalio"
	"waveshare-io/simulator"
)

// chaseDelay 跑馬燈每步間隔
const chaseDelay = 250 * time.Millisecond

// demoCmd 範例命令組
var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "範例流程",
}

// runChase 依序點亮 8 路輸出，再依序逐路關閉
func runChase(ctx context.Context, c *digitalio.Controller, delay time.Duration) error {
	for ch := bus.Channel1; ch <= bus.Channel8; ch++ {
		if err := c.SetChannelOn(ctx, ch); err != nil {
			return err
		}
		fmt.Printf("%v ON\n", ch)
		if err := sleep(ctx, delay); err != nil {
			return err
		}
	}
	for ch := bus.Channel1; ch <= bus.Channel8; ch++ {
		if err := c.SetChannelOff(ctx, ch); err != nil {
			return err
		}
		fmt.Printf("%v OFF\n", ch)
		if err := sleep(ctx, delay); err != nil {
			return err
		}
	}
	return nil
}

// 掃描範圍 (原始值)：0 至 9.9 V，每步 0.1 V
const (
	sweepTop  = 10000
	sweepStep = 100
)

// sweepSample 掃描的一個取樣點
type sweepSample struct {
	Output float64
	Inputs [bus.BankSize]float64
}

// runSweep 8 路類比輸出同步由 0 V 遞增，每步讀回全部類比輸入
func runSweep(ctx context.Context, out *analogout.Controller, in *analogin.Controller,
	delay time.Duration, each func(sweepSample),
) error {
	for raw := 0; raw < sweepTop; raw += sweepStep {
		v := bus.ToEngineering(uint16(raw))
		var values [bus.BankSize]float64
		for i := range values {
			values[i] = v
		}
		if err := out.SetChannels(ctx, values); err != nil {
			return err
		}
		inputs, err := in.ReadChannels(ctx)
		if err != nil {
			return err
		}
		if each != nil {
			each(sweepSample{Output: v, Inputs: inputs})
		}
		if err := sleep(ctx, delay); err != nil {
			return err
		}
	}
	return nil
}

// printVersion 輸出模組韌體版本
func printVersion(ctx context.Context, label string, read func(context.Context) (uint16, error)) error {
	v, err := read(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%s 版本: V%d.%02d\n", label, v/100, v%100)
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

var demoChaseCmd = &cobra.Command{
	Use:   "chase",
	Short: "數位輸出跑馬燈",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		unit, err := resolveUnit(simulator.FamilyDigital)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		t, err := openBus(ctx, nil)
		if err != nil {
			return err
		}
		defer t.Close()

		c, err := digitalio.New(t, bus.WithDeviceAddress(unit))
		if err != nil {
			return err
		}
		if err := printVersion(ctx, "數位 I/O", c.ReadSoftwareVersion); err != nil {
			return err
		}
		return runChase(ctx, c, chaseDelay)
	},
}

var demoSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "8 路類比輸出 0-9.9 V 掃描並讀回全部類比輸入",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		outUnit, err := resolveUnit(simulator.FamilyAnalogOut)
		if err != nil {
			return err
		}
		inUnit := configuredUnit(simulator.FamilyAnalogIn)
		if u, _ := cmd.Flags().GetInt("in-unit"); u != 0 {
			inUnit = u
		}
		delay, _ := cmd.Flags().GetDuration("delay")

		ctx := cmd.Context()
		t, err := openBus(ctx, nil)
		if err != nil {
			return err
		}
		defer t.Close()

		out, err := analogout.New(t, bus.WithDeviceAddress(outUnit))
		if err != nil {
			return err
		}
		in, err := analogin.New(t, bus.WithDeviceAddress(inUnit))
		if err != nil {
			return err
		}

		if err := printVersion(ctx, "類比輸出", out.ReadSoftwareVersion); err != nil {
			return err
		}
		if err := printVersion(ctx, "類比輸入", in.ReadSoftwareVersion); err != nil {
			return err
		}

		return runSweep(ctx, out, in, delay, func(s sweepSample) {
			fmt.Printf("out %4.1f V  in %v\n", s.Output, s.Inputs)
		})
	},
}

func init() {
	demoSweepCmd.Flags().Int("in-unit", 0, "類比輸入模組位址 (預設取配置)")
	demoSweepCmd.Flags().Duration("delay", 100*time.Millisecond, "每步等待時間")

	demoCmd.AddCommand(demoChaseCmd, demoSweepCmd)
}
