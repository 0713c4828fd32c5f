package cmd

import (
	"fmt"
	"log"
	"os"

	"HipsterFM/server"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "hipsterfm_server",
	Short: "HipsterFM is a multiplayer music timeline game server.",
	Run: func(cmd *cobra.Command, args []string) {
		log.Println("Starting HipsterFM server...")
		server.Start()
	},
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
