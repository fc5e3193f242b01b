package main

import (
	"github.com/spf13/cobra"

	"github.com/ehrlich-b/termbot/internal/config"
	"github.com/ehrlich-b/termbot/internal/daemon"
	"github.com/ehrlich-b/termbot/internal/logger"
)

func serveCmd() *cobra.Command {
	var configPath string
	var dangerFlag bool
	var weakFlag bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if dangerFlag {
				cfg.Automation.DangerMode = true
			}
			if weakFlag {
				cfg.Auth.WeakSecurity = true
			}
			if err := logger.Setup(cfg.Logging.Level, cfg.Logging.File); err != nil {
				return err
			}
			return daemon.Run(cfg)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "termbot.yaml", "Path to the config file")
	cmd.Flags().BoolVar(&dangerFlag, "dangerously-attach-to-any-window", false,
		"List and connect to any window, not just known terminals")
	cmd.Flags().BoolVar(&weakFlag, "use-weak-security", false,
		"Disable OTP authentication (owner binding still applies)")
	return cmd
}
