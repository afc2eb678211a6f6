package main

import (
	"github.com/spf13/cobra"

	"github.com/kbukum/eventhub/app"
	"github.com/kbukum/eventhub/config"
)

// configFlags are shared by the commands that load configuration.
type configFlags struct {
	configFile string
	envFile    string
}

func (f *configFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.configFile, "config", "c", "", "config file (default: discovered config.yml)")
	cmd.Flags().StringVar(&f.envFile, "env-file", "", ".env file loaded before environment overrides")
}

func (f *configFlags) load() (*app.Config, error) {
	opts := []config.LoaderOption{config.WithEnvPrefix("EVENTHUB")}
	if f.configFile != "" {
		opts = append(opts, config.WithConfigFile(f.configFile))
	}
	if f.envFile != "" {
		opts = append(opts, config.WithEnvFile(f.envFile))
	}
	return app.Load(opts...)
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "eventhub",
		Short:         "Broadcast events to server-sent-event subscribers",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newServeCommand(),
		newTailCommand(),
		newConfigCommand(),
		newVersionCommand(),
	)
	return root
}
