package main

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/ehrlich-b/termbot/internal/config"
	"github.com/ehrlich-b/termbot/internal/window"
)

func doctorCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the environment the bot needs",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("termbot doctor")
			fmt.Println()

			fmt.Println("Automation tools:")
			for _, tool := range window.RequiredTools() {
				path, err := exec.LookPath(tool)
				if err != nil {
					fmt.Printf("  %-14s not found\n", tool)
				} else {
					fmt.Printf("  %-14s %s\n", tool, path)
				}
			}
			if runtime.GOOS == "linux" {
				fmt.Println()
				fmt.Println("Display:")
				if os.Getenv("DISPLAY") == "" {
					fmt.Println("  DISPLAY        not set")
				} else {
					fmt.Printf("  DISPLAY        %s\n", os.Getenv("DISPLAY"))
				}
			}
			fmt.Println()

			fmt.Println("Configuration:")
			cfg, err := config.LoadLenient(configPath)
			if err != nil {
				fmt.Printf("  config         %v\n", err)
				return nil
			}
			fmt.Printf("  config         %s ok\n", configPath)
			if cfg.Telegram.Token != "" {
				fmt.Println("  telegram token set")
			} else {
				fmt.Println("  telegram token not set (telegram.token or TELEGRAM_TOKEN)")
			}
			fmt.Printf("  database       %s\n", cfg.Database.Path)
			if cfg.Ntfy.Topic != "" {
				fmt.Println("  ntfy alerts    enabled")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "termbot.yaml", "Path to the config file")
	return cmd
}
