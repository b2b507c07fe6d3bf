package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"waveshare-io/bus"
	"waveshare-io/digitalio"
	"waveshare-io/simulator"
)

func withDigital(cmd *cobra.Command, fn func(context.Context, *digitalio.Controller) error) error {
	return runWith(cmd, simulator.FamilyDigital, digitalio.New, fn)
}

// digitalCmd 數位 I/O 命令組
var digitalCmd = &cobra.Command{
	Use:   "digital",
	Short: "數位 I/O 模組命令",
}

var digitalSetCmd = &cobra.Command{
	Use:   "set <start-ch> <action>...",
	Short: "設定輸出通道 (on|off|flip)",
	Long: `由起始通道依序設定輸出。單一 flip 以翻轉指令送出；
多路寫入時 on 以外的動作一律寫為 off。`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		start, err := parseChannel(args[0])
		if err != nil {
			return err
		}
		actions, err := parseActions(args[1:])
		if err != nil {
			return err
		}

		return withDigital(cmd, func(ctx context.Context, c *digitalio.Controller) error {
			if len(actions) == 1 && actions[0] == bus.ActionFlip {
				return c.ToggleChannel(ctx, start)
			}
			return c.SetChannels(ctx, start, actions)
		})
	},
}

var digitalToggleCmd = &cobra.Command{
	Use:   "toggle <ch>",
	Short: "翻轉輸出通道",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ch, err := parseChannel(args[0])
		if err != nil {
			return err
		}
		return withDigital(cmd, func(ctx context.Context, c *digitalio.Controller) error {
			return c.ToggleChannel(ctx, ch)
		})
	},
}

var digitalAllCmd = &cobra.Command{
	Use:   "all <on|off|flip>",
	Short: "同時控制全部輸出",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		action, err := parseAction(args[0])
		if err != nil {
			return err
		}
		return withDigital(cmd, func(ctx context.Context, c *digitalio.Controller) error {
			return c.SetAllChannels(ctx, action)
		})
	},
}

var digitalModeCmd = &cobra.Command{
	Use:   "mode <ch> <command|linked|flip>",
	Short: "設定輸出通道控制模式",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ch, err := parseChannel(args[0])
		if err != nil {
			return err
		}
		mode, ok := digitalio.ParseControlMode(args[1])
		if !ok {
			return fmt.Errorf("未知的控制模式: %q", args[1])
		}
		return withDigital(cmd, func(ctx context.Context, c *digitalio.Controller) error {
			return c.SetChannelControlMode(ctx, ch, mode)
		})
	},
}

var digitalReadCmd = &cobra.Command{
	Use:   "read",
	Short: "讀取數位輸入",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDigital(cmd, func(ctx context.Context, c *digitalio.Controller) error {
			state, err := c.ReadChannels(ctx)
			if err != nil {
				return err
			}
			printBank("Inputs", state)
			return nil
		})
	},
}

var digitalOutputsCmd = &cobra.Command{
	Use:   "outputs",
	Short: "讀取輸出狀態",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDigital(cmd, func(ctx context.Context, c *digitalio.Controller) error {
			state, err := c.ReadOutputChannels(ctx)
			if err != nil {
				return err
			}
			printBank("Outputs", state)
			return nil
		})
	},
}

func init() {
	digitalCmd.AddCommand(digitalSetCmd, digitalToggleCmd, digitalAllCmd, digitalModeCmd, digitalReadCmd, digitalOutputsCmd)
}
