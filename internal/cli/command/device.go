package command

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/sasmint-go/internal/cli/connection"
	"github.com/yndnr/sasmint-go/internal/cli/output"
)

// DeviceCommand returns the device subcommand group.
func DeviceCommand() *cli.Command {
	return &cli.Command{
		Name:    "device",
		Aliases: []string{"dev"},
		Usage:   "Manage registered devices",
		Subcommands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List registered devices",
				Action: deviceList,
			},
			{
				Name:      "show",
				Usage:     "Show device details",
				ArgsUsage: "DEVICE_ID",
				Action:    deviceShow,
			},
			{
				Name:      "register",
				Aliases:   []string{"add"},
				Usage:     "Register a device with freshly generated keys",
				ArgsUsage: "DEVICE_ID",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "hub",
						Usage:    "Broker hostname the device connects to",
						Required: true,
					},
				},
				Action: deviceRegister,
			},
			{
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     "Delete a device",
				ArgsUsage: "DEVICE_ID",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "force",
						Aliases: []string{"f"},
						Usage:   "Skip confirmation",
					},
				},
				Action: deviceDelete,
			},
			{
				Name:      "disable",
				Usage:     "Disable a device (blocks credential issuance)",
				ArgsUsage: "DEVICE_ID",
				Action:    deviceSetDisabled(true),
			},
			{
				Name:      "enable",
				Usage:     "Enable a device",
				ArgsUsage: "DEVICE_ID",
				Action:    deviceSetDisabled(false),
			},
			{
				Name:      "rotate",
				Usage:     "Rotate one of the device's signing keys",
				ArgsUsage: "DEVICE_ID",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "slot",
						Usage: "Key slot to rotate: primary or secondary",
						Value: "secondary",
					},
				},
				Action: deviceRotate,
			},
		},
	}
}

// deviceInfo mirrors the server's device response.
type deviceInfo struct {
	ID        string `json:"id"`
	Hub       string `json:"hub"`
	Disabled  bool   `json:"disabled"`
	CreatedAt int64  `json:"created_at" table:"wide"`
	UpdatedAt int64  `json:"updated_at" table:"wide"`
}

func deviceList(c *cli.Context) error {
	client, err := EnsureConnected(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	resp, err := client.Get(ctx, "/v1/devices")
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	var result struct {
		Devices []deviceInfo `json:"devices"`
		Total   int          `json:"total"`
	}
	if err := connection.ParseResponse(resp, &result); err != nil {
		return err
	}

	flags := ParseGlobalFlags(c)
	formatter := output.NewFormatter(output.Format(flags.Output), flags.Wide)
	if err := formatter.Format(os.Stdout, result.Devices); err != nil {
		return err
	}
	if output.Format(flags.Output) == output.FormatTable {
		fmt.Printf("\nTotal: %d devices\n", result.Total)
	}
	return nil
}

func deviceShow(c *cli.Context) error {
	deviceID := c.Args().First()
	if deviceID == "" {
		return fmt.Errorf("device ID required")
	}

	client, err := EnsureConnected(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	resp, err := client.Get(ctx, "/v1/devices/"+deviceID)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	var device deviceInfo
	if err := connection.ParseResponse(resp, &device); err != nil {
		return err
	}

	flags := ParseGlobalFlags(c)
	formatter := output.NewFormatter(output.Format(flags.Output), flags.Wide)
	return formatter.Format(os.Stdout, device)
}

func deviceRegister(c *cli.Context) error {
	deviceID := c.Args().First()
	if deviceID == "" {
		return fmt.Errorf("device ID required")
	}

	client, err := EnsureConnected(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	resp, err := client.Post(ctx, "/v1/devices", map[string]string{
		"id":  deviceID,
		"hub": c.String("hub"),
	})
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	var device deviceInfo
	if err := connection.ParseResponse(resp, &device); err != nil {
		return err
	}

	fmt.Printf("Device %s registered (hub: %s)\n", device.ID, device.Hub)
	return nil
}

func deviceDelete(c *cli.Context) error {
	deviceID := c.Args().First()
	if deviceID == "" {
		return fmt.Errorf("device ID required")
	}

	if !c.Bool("force") {
		fmt.Printf("Delete device %s? [y/N]: ", deviceID)
		var answer string
		fmt.Scanln(&answer)
		if answer != "y" && answer != "Y" {
			fmt.Println("Aborted")
			return nil
		}
	}

	client, err := EnsureConnected(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	resp, err := client.Delete(ctx, "/v1/devices/"+deviceID)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	if err := connection.ParseResponse(resp, nil); err != nil {
		return err
	}

	fmt.Printf("Device %s deleted\n", deviceID)
	return nil
}

func deviceSetDisabled(disabled bool) cli.ActionFunc {
	return func(c *cli.Context) error {
		deviceID := c.Args().First()
		if deviceID == "" {
			return fmt.Errorf("device ID required")
		}

		client, err := EnsureConnected(c)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		resp, err := client.Post(ctx, "/v1/devices/"+deviceID+"/status", map[string]bool{
			"disabled": disabled,
		})
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}
		if err := connection.ParseResponse(resp, nil); err != nil {
			return err
		}

		if disabled {
			fmt.Printf("Device %s disabled\n", deviceID)
		} else {
			fmt.Printf("Device %s enabled\n", deviceID)
		}
		return nil
	}
}

func deviceRotate(c *cli.Context) error {
	deviceID := c.Args().First()
	if deviceID == "" {
		return fmt.Errorf("device ID required")
	}

	client, err := EnsureConnected(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	resp, err := client.Post(ctx, "/v1/devices/"+deviceID+"/rotate", map[string]string{
		"key_slot": c.String("slot"),
	})
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	if err := connection.ParseResponse(resp, nil); err != nil {
		return err
	}

	fmt.Printf("Device %s %s key rotated\n", deviceID, c.String("slot"))
	return nil
}
