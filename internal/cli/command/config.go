package command

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	cliconfig "github.com/yndnr/sasmint-go/internal/cli/config"
	"github.com/yndnr/sasmint-go/internal/cli/output"
)

// ConfigCommand returns the config subcommand group for the CLI's own
// local configuration file.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Manage local CLI configuration",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "file",
				Usage: "Config file path (default ~/.sasmint/cli.yaml)",
			},
		},
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show CLI configuration",
				Action: configShow,
			},
			{
				Name:      "set-server",
				Usage:     "Set the default server address",
				ArgsUsage: "SERVER",
				Action:    configSetServer,
			},
			{
				Name:      "set-output",
				Usage:     "Set the default output format",
				ArgsUsage: "FORMAT",
				Action:    configSetOutput,
			},
		},
	}
}

func configPath(c *cli.Context) string {
	return c.String("file")
}

func configShow(c *cli.Context) error {
	cfg, err := cliconfig.Load(configPath(c))
	if err != nil {
		return err
	}

	// Secrets in saved connections are masked on display.
	shown := *cfg
	shown.Connections = make(map[string]cliconfig.ConnectionConfig, len(cfg.Connections))
	for name, conn := range cfg.Connections {
		if conn.APIKey != "" {
			conn.APIKey = "***"
		}
		shown.Connections[name] = conn
	}

	formatter := &output.YAMLFormatter{}
	return formatter.Format(os.Stdout, shown)
}

func configSetServer(c *cli.Context) error {
	server := c.Args().First()
	if server == "" {
		return fmt.Errorf("server address required")
	}

	cfg, err := cliconfig.Load(configPath(c))
	if err != nil {
		return err
	}
	cfg.DefaultServer = server
	if err := cliconfig.Save(cfg, configPath(c)); err != nil {
		return err
	}

	fmt.Printf("Default server set to %s\n", server)
	return nil
}

func configSetOutput(c *cli.Context) error {
	format := c.Args().First()
	switch output.Format(format) {
	case output.FormatTable, output.FormatJSON, output.FormatYAML:
	default:
		return fmt.Errorf("unknown output format %q (table, json, yaml)", format)
	}

	cfg, err := cliconfig.Load(configPath(c))
	if err != nil {
		return err
	}
	cfg.DefaultOutput = format
	if err := cliconfig.Save(cfg, configPath(c)); err != nil {
		return err
	}

	fmt.Printf("Default output set to %s\n", format)
	return nil
}
