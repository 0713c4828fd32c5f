package cmd

import (
	"HipsterFM/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "启动HipsterFM服务器",
	Long:  `启动HipsterFM音乐猜年份游戏的HTTP服务器，提供房间API和WebSocket推送`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
