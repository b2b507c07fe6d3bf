package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"waveshare-io/relay"
	"waveshare-io/simulator"
)

func withRelay(cmd *cobra.Command, fn func(context.Context, *relay.Controller) error) error {
	return runWith(cmd, simulator.FamilyRelay, relay.New, fn)
}

// relayCmd 繼電器命令組
var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "繼電器模組命令",
}

var relayOnCmd = &cobra.Command{
	Use:   "on <ch>",
	Short: "吸合繼電器",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ch, err := parseChannel(args[0])
		if err != nil {
			return err
		}
		return withRelay(cmd, func(ctx context.Context, c *relay.Controller) error {
			return c.CloseChannel(ctx, ch)
		})
	},
}

var relayOffCmd = &cobra.Command{
	Use:   "off <ch>",
	Short: "釋放繼電器",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ch, err := parseChannel(args[0])
		if err != nil {
			return err
		}
		return withRelay(cmd, func(ctx context.Context, c *relay.Controller) error {
			return c.OpenChannel(ctx, ch)
		})
	},
}

var relayToggleCmd = &cobra.Command{
	Use:   "toggle <ch>",
	Short: "翻轉繼電器",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ch, err := parseChannel(args[0])
		if err != nil {
			return err
		}
		return withRelay(cmd, func(ctx context.Context, c *relay.Controller) error {
			return c.ToggleChannel(ctx, ch)
		})
	},
}

var relayAllCmd = &cobra.Command{
	Use:   "all <on|off|flip>",
	Short: "同時控制全部繼電器",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		action, err := parseAction(args[0])
		if err != nil {
			return err
		}
		return withRelay(cmd, func(ctx context.Context, c *relay.Controller) error {
			return c.SetAllChannels(ctx, action)
		})
	},
}

var relaySetCmd = &cobra.Command{
	Use:   "set <start-ch> <action>...",
	Short: "由起始通道依序設定多路繼電器",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		start, err := parseChannel(args[0])
		if err != nil {
			return err
		}
		actions, err := parseActions(args[1:])
		if err != nil {
			return err
		}
		return withRelay(cmd, func(ctx context.Context, c *relay.Controller) error {
			return c.SetChannels(ctx, start, actions)
		})
	},
}

var relayFlashCmd = &cobra.Command{
	Use:   "flash <ch> <on|off>",
	Short: "閃爍: 短暫吸合 (on) 或短暫釋放 (off) 後自動恢復",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ch, err := parseChannel(args[0])
		if err != nil {
			return err
		}
		interval, _ := cmd.Flags().GetDuration("interval")

		return withRelay(cmd, func(ctx context.Context, c *relay.Controller) error {
			switch args[1] {
			case "on":
				return c.FlashOn(ctx, ch, interval)
			case "off":
				return c.FlashOff(ctx, ch, interval)
			default:
				return fmt.Errorf("未知的閃爍方向: %q (on|off)", args[1])
			}
		})
	},
}

var relayReadCmd = &cobra.Command{
	Use:   "read",
	Short: "讀取繼電器狀態",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRelay(cmd, func(ctx context.Context, c *relay.Controller) error {
			state, err := c.ReadChannels(ctx)
			if err != nil {
				return err
			}
			printBank("Relays", state)
			return nil
		})
	},
}

func init() {
	relayFlashCmd.Flags().Duration("interval", relay.FlashUnit*5, "閃爍時間 (100ms 為單位)")

	relayCmd.AddCommand(relayOnCmd, relayOffCmd, relayToggleCmd, relayAllCmd, relaySetCmd, relayFlashCmd, relayReadCmd)
}
