package command

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/sasmint-go/internal/cli/connection"
	"github.com/yndnr/sasmint-go/internal/cli/output"
	"github.com/yndnr/sasmint-go/pkg/sas"
	"github.com/yndnr/sasmint-go/pkg/sas/iothub"
)

// TokenCommand returns the token subcommand group.
func TokenCommand() *cli.Command {
	return &cli.Command{
		Name:    "token",
		Aliases: []string{"tok"},
		Usage:   "Issue and mint SAS credentials",
		Subcommands: []*cli.Command{
			{
				Name:      "issue",
				Usage:     "Issue a credential for a registered device",
				ArgsUsage: "DEVICE_ID",
				Flags: []cli.Flag{
					&cli.UintFlag{
						Name:    "lifetime",
						Aliases: []string{"l"},
						Usage:   "Credential lifetime in minutes",
						Value:   60,
					},
					&cli.StringFlag{
						Name:  "slot",
						Usage: "Key slot to sign with: primary or secondary",
					},
				},
				Action: tokenIssue,
			},
			{
				Name:  "mint",
				Usage: "Mint a credential locally from a device key (no server)",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "hub",
						Usage:    "Broker hostname",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "device",
						Aliases:  []string{"d"},
						Usage:    "Device ID",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "key",
						Usage:    "Base64 device key",
						Required: true,
					},
					&cli.UintFlag{
						Name:    "lifetime",
						Aliases: []string{"l"},
						Usage:   "Credential lifetime in minutes",
						Value:   60,
					},
					&cli.StringFlag{
						Name:  "key-name",
						Usage: "Shared access policy name (optional)",
					},
				},
				Action: tokenMint,
			},
		},
	}
}

// tokenInfo mirrors the server's token response.
type tokenInfo struct {
	DeviceID  string `json:"device_id"`
	Resource  string `json:"resource"`
	Token     string `json:"token"`
	KeySlot   string `json:"key_slot"`
	IssuedAt  uint64 `json:"issued_at"`
	ExpiresAt uint64 `json:"expires_at"`
}

func tokenIssue(c *cli.Context) error {
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

	body := map[string]any{
		"lifetime_minutes": c.Uint("lifetime"),
	}
	if slot := c.String("slot"); slot != "" {
		body["key_slot"] = slot
	}

	resp, err := client.Post(ctx, "/v1/devices/"+deviceID+"/token", body)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	var result tokenInfo
	if err := connection.ParseResponse(resp, &result); err != nil {
		return err
	}

	flags := ParseGlobalFlags(c)
	switch output.Format(flags.Output) {
	case output.FormatJSON, output.FormatYAML:
		formatter := output.NewFormatter(output.Format(flags.Output), flags.Wide)
		return formatter.Format(os.Stdout, result)
	default:
		// The raw credential on stdout so it can be piped straight
		// into a device provisioning step.
		fmt.Println(result.Token)
		fmt.Fprintf(os.Stderr, "expires: %s (slot: %s)\n",
			time.Unix(int64(result.ExpiresAt), 0).UTC().Format(time.RFC3339), result.KeySlot)
		return nil
	}
}

func tokenMint(c *cli.Context) error {
	canon, err := iothub.New(iothub.Scope{
		Host:     c.String("hub"),
		DeviceID: c.String("device"),
		KeyName:  c.String("key-name"),
	})
	if err != nil {
		return err
	}

	sigBuf := make([]byte, 64)
	tokenBuf := make([]byte, 512)
	gen := sas.New([]byte(c.String("key")), canon, canon, sigBuf, tokenBuf)

	lifetime := c.Uint("lifetime")
	if err := gen.Generate(uint32(lifetime)); err != nil {
		return fmt.Errorf("mint failed: %w", err)
	}

	token := string(gen.Get())

	flags := ParseGlobalFlags(c)
	switch output.Format(flags.Output) {
	case output.FormatJSON, output.FormatYAML:
		formatter := output.NewFormatter(output.Format(flags.Output), flags.Wide)
		return formatter.Format(os.Stdout, tokenInfo{
			DeviceID:  c.String("device"),
			Resource:  canon.Resource(),
			Token:     token,
			ExpiresAt: gen.Expiration(),
		})
	default:
		fmt.Println(token)
		fmt.Fprintf(os.Stderr, "expires: %s\n",
			time.Unix(int64(gen.Expiration()), 0).UTC().Format(time.RFC3339))
		return nil
	}
}
