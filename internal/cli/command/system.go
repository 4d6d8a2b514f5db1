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

// SystemCommand returns the system subcommand group.
func SystemCommand() *cli.Command {
	return &cli.Command{
		Name:    "system",
		Aliases: []string{"sys"},
		Usage:   "System management commands",
		Subcommands: []*cli.Command{
			{
				Name:   "status",
				Usage:  "Show system status summary",
				Action: systemStatus,
			},
			{
				Name:   "health",
				Usage:  "Check server health",
				Action: systemHealth,
			},
			{
				Name:   "gc",
				Usage:  "Trigger a storage garbage collection pass",
				Action: systemGC,
			},
		},
	}
}

func systemStatus(c *cli.Context) error {
	client, err := EnsureConnected(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	resp, err := client.Get(ctx, "/admin/v1/status/summary")
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	var result struct {
		Version      string `json:"version"`
		Commit       string `json:"commit"`
		DeviceCount  int    `json:"device_count"`
		APIKeyCount  int    `json:"api_key_count"`
		StorageBytes uint64 `json:"storage_bytes"`
	}
	if err := connection.ParseResponse(resp, &result); err != nil {
		return err
	}

	flags := ParseGlobalFlags(c)
	switch output.Format(flags.Output) {
	case output.FormatJSON, output.FormatYAML:
		formatter := output.NewFormatter(output.Format(flags.Output), flags.Wide)
		return formatter.Format(os.Stdout, result)
	default:
		fmt.Printf("Version:       %s (%s)\n", result.Version, result.Commit)
		fmt.Printf("Devices:       %d\n", result.DeviceCount)
		fmt.Printf("API keys:      %d\n", result.APIKeyCount)
		fmt.Printf("Storage:       %d bytes\n", result.StorageBytes)
		return nil
	}
}

func systemHealth(c *cli.Context) error {
	client, err := EnsureConnected(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	resp, err := client.Get(ctx, "/health")
	if err != nil {
		return fmt.Errorf("server unreachable: %w", err)
	}
	if err := connection.ParseResponse(resp, nil); err != nil {
		return err
	}

	resp, err = client.Get(ctx, "/ready")
	if err != nil {
		return fmt.Errorf("server unreachable: %w", err)
	}
	if err := connection.ParseResponse(resp, nil); err != nil {
		return fmt.Errorf("server not ready: %w", err)
	}

	fmt.Println("Server is healthy")
	return nil
}

func systemGC(c *cli.Context) error {
	client, err := EnsureConnected(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	resp, err := client.Post(ctx, "/admin/v1/gc/trigger", nil)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	var result struct {
		BytesReclaimed uint64 `json:"bytes_reclaimed"`
	}
	if err := connection.ParseResponse(resp, &result); err != nil {
		return err
	}

	fmt.Printf("GC complete: %d bytes reclaimed\n", result.BytesReclaimed)
	return nil
}
