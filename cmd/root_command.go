package cmd

import (
	"github.com/spf13/cobra"
)

// NewRootCommand wires the flags shared by every binary and hands run the loaded config.
func NewRootCommand(use, short string, run func(cmd *cobra.Command, config *WorkerConfig) error) *cobra.Command {
	var configPath, dotEnvPath string
	root := &cobra.Command{
		Use:           use,
		Short:         short,
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			config, err := LoadWorkerConfig(configPath, dotEnvPath)
			if err != nil {
				return err
			}
			return run(cmd, config)
		},
	}
	root.Flags().StringVar(&configPath, "config-file", "worker-config.json", "Path to the worker config file (json or yaml)")
	root.Flags().StringVar(&dotEnvPath, "env-file", ".env", "Path to .env-like file, \"-\" or non-existing file for none")
	return root
}
