package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"waveshare-io/bus"
	"waveshare-io/digitalio"
)

// 各系列共用的設定暫存器位址
const (
	regUartParameters  = digitalio.HoldingUartParameters
	regDeviceAddress   = digitalio.HoldingDeviceAddress
	regSoftwareVersion = digitalio.HoldingSoftwareVersion
)

// withNode 以不分系列的節點執行設定命令
func withNode(cmd *cobra.Command, fn func(context.Context, *bus.Node) error) error {
	unit := unitFlag
	if unit == 0 && deviceName != "" {
		d, ok := appConfig.Device(deviceName)
		if !ok {
			return fmt.Errorf("配置中找不到設備: %s", deviceName)
		}
		unit = d.Address
	}
	if unit == 0 {
		unit = bus.DefaultDeviceAddress
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()

	t, err := openBus(ctx, nil)
	if err != nil {
		return err
	}
	defer t.Close()

	node, err := bus.NewNode(t, bus.WithDeviceAddress(unit))
	if err != nil {
		return err
	}
	return fn(ctx, &node)
}

// deviceCmd 設備設定命令組
var deviceCmd = &cobra.Command{
	Use:   "device",
	Short: "設備位址、UART 與版本 (適用所有系列)",
}

var deviceAddressCmd = &cobra.Command{
	Use:   "set-address <new-address>",
	Short: "寫入新的設備位址 (1-255)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("%w: %q", bus.ErrInvalidDeviceAddress, args[0])
		}
		return withNode(cmd, func(ctx context.Context, n *bus.Node) error {
			if err := n.WriteDeviceAddress(ctx, regDeviceAddress, addr); err != nil {
				return err
			}
			fmt.Printf("設備位址 %d -> %d\n", n.Unit(), addr)
			return nil
		})
	},
}

var deviceUartCmd = &cobra.Command{
	Use:   "set-uart <baud> [N|E|O]",
	Short: "寫入 UART 鮑率與校驗位",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		bps, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("%w: %q", bus.ErrInvalidUartParameters, args[0])
		}
		baud, err := bus.ParseBaudrate(bps)
		if err != nil {
			return err
		}
		parity := bus.ParityNone
		if len(args) == 2 {
			if parity, err = bus.ParseParity(args[1]); err != nil {
				return err
			}
		}

		return withNode(cmd, func(ctx context.Context, n *bus.Node) error {
			return n.WriteUartParameters(ctx, regUartParameters, bus.UartParameters{Baudrate: baud, Parity: parity})
		})
	},
}

var deviceVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "讀取韌體版本",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withNode(cmd, func(ctx context.Context, n *bus.Node) error {
			v, err := n.ReadSoftwareVersion(ctx, regSoftwareVersion)
			if err != nil {
				return err
			}
			fmt.Printf("unit %d 韌體版本: V%d.%02d (0x%04X)\n", n.Unit(), v/100, v%100, v)
			return nil
		})
	},
}

func init() {
	deviceCmd.AddCommand(deviceAddressCmd, deviceUartCmd, deviceVersionCmd)
}
