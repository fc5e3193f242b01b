package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "termbot",
		Short: "termbot — drive a terminal window from Telegram",
		Long: "Controls a local terminal window over a Telegram chat: pick a window,\n" +
			"send it keystrokes (plain text plus emoji modifiers), get a screenshot back.",
		SilenceUsage: true,
	}

	root.AddCommand(
		serveCmd(),
		doctorCmd(),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
