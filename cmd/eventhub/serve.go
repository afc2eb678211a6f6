package main

import (
	"github.com/spf13/cobra"

	"github.com/kbukum/eventhub/app"
	"github.com/kbukum/eventhub/bootstrap"
)

func newServeCommand() *cobra.Command {
	var flags configFlags
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the hub, its producers and the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			a, err := bootstrap.NewApp(cfg)
			if err != nil {
				return err
			}
			if _, err := app.Register(a); err != nil {
				return err
			}
			return a.Run(cmd.Context())
		},
	}
	flags.register(cmd)
	return cmd
}
