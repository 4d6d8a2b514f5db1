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

// APIKeyCommand returns the apikey subcommand group.
func APIKeyCommand() *cli.Command {
	return &cli.Command{
		Name:    "apikey",
		Aliases: []string{"key"},
		Usage:   "Manage management API keys",
		Subcommands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List API keys",
				Action: apikeyList,
			},
			{
				Name:  "create",
				Usage: "Create a new API key",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "name",
						Aliases:  []string{"n"},
						Usage:    "Key name",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "role",
						Aliases:  []string{"r"},
						Usage:    "Key role (admin, issuer, metrics)",
						Required: true,
					},
				},
				Action: apikeyCreate,
			},
			{
				Name:      "disable",
				Usage:     "Disable an API key",
				ArgsUsage: "KEY_ID",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "force",
						Aliases: []string{"f"},
						Usage:   "Skip confirmation",
					},
				},
				Action: apikeySetDisabled(true),
			},
			{
				Name:      "enable",
				Usage:     "Enable an API key",
				ArgsUsage: "KEY_ID",
				Action:    apikeySetDisabled(false),
			},
		},
	}
}

// apikeyInfo mirrors the server's API key response.
type apikeyInfo struct {
	KeyID     string `json:"key_id"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	Disabled  bool   `json:"disabled"`
	CreatedAt int64  `json:"created_at" table:"wide"`
	LastUsed  int64  `json:"last_used,omitempty" table:"wide"`
}

func apikeyList(c *cli.Context) error {
	client, err := EnsureConnected(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	resp, err := client.Get(ctx, "/admin/v1/keys")
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	var result struct {
		Keys []apikeyInfo `json:"keys"`
	}
	if err := connection.ParseResponse(resp, &result); err != nil {
		return err
	}

	flags := ParseGlobalFlags(c)
	formatter := output.NewFormatter(output.Format(flags.Output), flags.Wide)
	return formatter.Format(os.Stdout, result.Keys)
}

func apikeyCreate(c *cli.Context) error {
	client, err := EnsureConnected(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	resp, err := client.Post(ctx, "/admin/v1/keys", map[string]string{
		"name": c.String("name"),
		"role": c.String("role"),
	})
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	var result struct {
		KeyID  string `json:"key_id"`
		Secret string `json:"secret"`
		Name   string `json:"name"`
		Role   string `json:"role"`
	}
	if err := connection.ParseResponse(resp, &result); err != nil {
		return err
	}

	fmt.Printf("API key created:\n\n")
	fmt.Printf("  Key ID: %s\n", result.KeyID)
	fmt.Printf("  Secret: %s\n", result.Secret)
	fmt.Printf("  Role:   %s\n\n", result.Role)
	fmt.Println("Store the secret now; the server keeps only a hash of it.")
	return nil
}

func apikeySetDisabled(disabled bool) cli.ActionFunc {
	return func(c *cli.Context) error {
		keyID := c.Args().First()
		if keyID == "" {
			return fmt.Errorf("key ID required")
		}

		if disabled && !c.Bool("force") {
			fmt.Printf("Disable API key %s? [y/N]: ", keyID)
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

		resp, err := client.Post(ctx, "/admin/v1/keys/"+keyID+"/status", map[string]bool{
			"disabled": disabled,
		})
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}
		if err := connection.ParseResponse(resp, nil); err != nil {
			return err
		}

		if disabled {
			fmt.Printf("API key %s disabled\n", keyID)
		} else {
			fmt.Printf("API key %s enabled\n", keyID)
		}
		return nil
	}
}
