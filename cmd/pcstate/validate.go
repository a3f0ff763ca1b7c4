package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/atlanticdynamic/pcstate/internal/config"
	"github.com/atlanticdynamic/pcstate/internal/fancy"
	"github.com/urfave/cli/v3"
)

func newValidateCmd() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Aliases:   []string{"lint"},
		Usage:     "Validate a configuration file",
		ArgsUsage: "<config>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "tree",
				Aliases: []string{"t"},
				Usage:   "Show detailed tree view of the validated configuration",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the configuration file",
			},
		},
		Action: validateAction,
	}
}

// configPathArg reads --config, falling back to the first positional argument.
func configPathArg(cmd *cli.Command) (string, error) {
	if p := cmd.String("config"); p != "" {
		return p, nil
	}
	if cmd.Args().Len() < 1 {
		return "", fmt.Errorf(
			"config file path required (use the --config flag, or provide the config file as positional argument)",
		)
	}
	return cmd.Args().First(), nil
}

func validateAction(ctx context.Context, cmd *cli.Command) error {
	configPath, err := configPathArg(cmd)
	if err != nil {
		return err
	}

	w := cmd.Root().Writer
	cfg, err := config.NewConfig(configPath)
	if err != nil {
		fmt.Fprintf(w, "%s %s\n", fancy.ErrorText("invalid:"), fancy.PathText(configPath))
		return fmt.Errorf("validation failed: %w", err)
	}

	fmt.Fprintf(w, "%s %s\n", fancy.ValidText("valid:"), fancy.PathText(configPath))
	if cmd.Bool("tree") {
		_, err = fmt.Fprintln(w, cfg)
		return err
	}
	_, err = fmt.Fprintln(w, renderConfigSummary(configPath, cfg))
	return err
}

// renderConfigSummary creates a formatted summary string for the configuration
func renderConfigSummary(path string, cfg *config.Config) string {
	var summary strings.Builder

	summary.WriteString("\nConfig Summary:\n")
	fmt.Fprintf(&summary, "- Path: %s\n", path)
	fmt.Fprintf(&summary, "- Version: %s\n", cfg.Version)
	fmt.Fprintf(&summary, "- Store: %s\n", cfg.Store.Backend)
	fmt.Fprintf(&summary, "- Optimistic: %t\n", cfg.Transaction.Optimistic)
	fmt.Fprintf(&summary, "- Retain values: %t\n", cfg.Transaction.RetainValues)
	summary.WriteString("\nUse --tree for a more detailed view of the config.")

	return summary.String()
}
