package main

import (
	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/tonimelisma/sharepoint-go/internal/config"
)

const redacted = "********"

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
	}

	cmd.AddCommand(newConfigShowCmd())

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display effective configuration after all overrides",
		Args:  cobra.NoArgs,
		RunE:  runConfigShow,
	}
}

// effectiveConfig returns a copy of cfg safe to print.
func effectiveConfig(cfg *config.Config) config.Config {
	out := *cfg
	if out.SharePoint.ClientSecret != "" {
		out.SharePoint.ClientSecret = redacted
	}

	return out
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	cc := mustCLIContext(cmd.Context())
	cfg := effectiveConfig(cc.Cfg.Config())

	if cc.Flags.JSON {
		return printJSON(cc.Out, cfg)
	}

	if path := cc.Cfg.Path(); path != "" {
		cc.Statusf("# config file: %s\n", path)
	}

	return toml.NewEncoder(cc.Out).Encode(cfg)
}
