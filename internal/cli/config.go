package cli

import (
	"strconv"

	"github.com/spf13/cobra"
)

// newConfigCmd is the parent command for config operations.
func newConfigCmd(opts *rootOptions) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
		Long:  `Commands for inspecting the slowcors configuration.`,
	}

	var asJSON, asYAML bool

	// configShowCmd shows the resolved configuration.
	configShowCmd := &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  `Display the configuration after applying --latency, --port and --verbose to the defaults.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case asJSON:
				return printJSON(out, cfg)
			case asYAML:
				return printYAML(out, cfg)
			}

			printTable(out, []string{"Key", "Value"}, [][]string{
				{"latency", strconv.Itoa(cfg.Latency) + "ms"},
				{"port", strconv.Itoa(cfg.Port)},
				{"log.level", cfg.Log.Level},
			})
			return nil
		},
	}
	configShowCmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	configShowCmd.Flags().BoolVar(&asYAML, "yaml", false, "output as YAML")
	configShowCmd.MarkFlagsMutuallyExclusive("json", "yaml")

	configCmd.AddCommand(configShowCmd)
	return configCmd
}
