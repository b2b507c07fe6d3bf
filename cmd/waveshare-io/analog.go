package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"waveshare-io/analogin"
	"waveshare-io/analogout"
	"waveshare-io/bus"
	"waveshare-io/simulator"
)

func withAnalogIn(cmd *cobra.Command, fn func(context.Context, *analogin.Controller) error) error {
	return runWith(cmd, simulator.FamilyAnalogIn, analogin.New, fn)
}

func withAnalogOut(cmd *cobra.Command, fn func(context.Context, *analogout.Controller) error) error {
	return runWith(cmd, simulator.FamilyAnalogOut, analogout.New, fn)
}

// analogInCmd 類比輸入命令組
var analogInCmd = &cobra.Command{
	Use:   "analog-in",
	Short: "類比輸入模組命令",
}

var analogInReadCmd = &cobra.Command{
	Use:   "read [ch]",
	Short: "讀取類比輸入 (V 或 mA)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			ch, err := parseChannel(args[0])
			if err != nil {
				return err
			}
			return withAnalogIn(cmd, func(ctx context.Context, c *analogin.Controller) error {
				v, err := c.ReadChannel(ctx, ch)
				if err != nil {
					return err
				}
				fmt.Printf("%v: %.3f\n", ch, v)
				return nil
			})
		}

		return withAnalogIn(cmd, func(ctx context.Context, c *analogin.Controller) error {
			values, err := c.ReadChannels(ctx)
			if err != nil {
				return err
			}
			printValues("Analog inputs", "", values[:])
			return nil
		})
	},
}

var analogInTypeCmd = &cobra.Command{
	Use:   "type <ch> [0-10V|2-10V|0-20mA|4-20mA|adc]",
	Short: "讀取或設定通道量測類型",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ch, err := parseChannel(args[0])
		if err != nil {
			return err
		}

		if len(args) == 2 {
			typ, ok := analogin.ParseChannelType(args[1])
			if !ok {
				return fmt.Errorf("%w: %q", analogin.ErrInvalidChannelType, args[1])
			}
			return withAnalogIn(cmd, func(ctx context.Context, c *analogin.Controller) error {
				return c.SetChannelType(ctx, ch, typ)
			})
		}

		return withAnalogIn(cmd, func(ctx context.Context, c *analogin.Controller) error {
			typ, err := c.ChannelType(ctx, ch)
			if err != nil {
				return err
			}
			fmt.Printf("%v: %v\n", ch, typ)
			return nil
		})
	},
}

var analogInTypesCmd = &cobra.Command{
	Use:   "types",
	Short: "讀取全部通道量測類型",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAnalogIn(cmd, func(ctx context.Context, c *analogin.Controller) error {
			types, err := c.ChannelTypes(ctx)
			if err != nil {
				return err
			}
			for i, typ := range types {
				fmt.Printf("  %v  %v\n", bus.Channel(i), typ)
			}
			return nil
		})
	},
}

// analogOutCmd 類比輸出命令組
var analogOutCmd = &cobra.Command{
	Use:   "analog-out",
	Short: "類比輸出模組命令",
}

var analogOutSetCmd = &cobra.Command{
	Use:   "set <ch> <value>",
	Short: "設定單一通道輸出值",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ch, err := parseChannel(args[0])
		if err != nil {
			return err
		}
		v, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("無效的數值: %q", args[1])
		}
		return withAnalogOut(cmd, func(ctx context.Context, c *analogout.Controller) error {
			return c.SetChannel(ctx, ch, v)
		})
	},
}

var analogOutSetAllCmd = &cobra.Command{
	Use:   "set-all <v1> ... <v8>",
	Short: "以單次寫入設定全部 8 個通道",
	Args:  cobra.ExactArgs(bus.BankSize),
	RunE: func(cmd *cobra.Command, args []string) error {
		var values [bus.BankSize]float64
		for i, a := range args {
			v, err := strconv.ParseFloat(a, 64)
			if err != nil {
				return fmt.Errorf("無效的數值: %q", a)
			}
			values[i] = v
		}
		return withAnalogOut(cmd, func(ctx context.Context, c *analogout.Controller) error {
			return c.SetChannels(ctx, values)
		})
	},
}

var analogOutReadCmd = &cobra.Command{
	Use:   "read",
	Short: "讀回全部通道設定值",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAnalogOut(cmd, func(ctx context.Context, c *analogout.Controller) error {
			values, err := c.ChannelValues(ctx)
			if err != nil {
				return err
			}
			printValues("Analog outputs", "", values[:])
			return nil
		})
	},
}

func init() {
	analogInCmd.AddCommand(analogInReadCmd, analogInTypeCmd, analogInTypesCmd)
	analogOutCmd.AddCommand(analogOutSetCmd, analogOutSetAllCmd, analogOutReadCmd)
}
