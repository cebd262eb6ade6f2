package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/teranos/classdb/cmd/classdb/commands"
	"github.com/teranos/classdb/logger"
)

var rootCmd = &cobra.Command{
	Use:   "classdb",
	Short: "classdb - searchable store of classifier predictions",
	Long: `classdb - searchable store of classifier predictions.

classdb runs items (image URIs, documents) through the configured classifier
endpoints, stores every prediction with its score, and answers ranked queries
over them.

Available commands:
  index    - Classify and store items
  unindex  - Remove every prediction about items
  search   - Query stored predictions
  classify - Ask one classifier about one item, without storing
  serve    - Start the HTTP server
  config   - Manage classdb configuration
  db       - Inspect the classification database

Examples:
  classdb index file://dataset/1.dcm file://dataset/2.dcm
  classdb search 'liver AND NOT convnet/pancreas:true'
  classdb serve --static fixtures.toml`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return commands.Setup(cmd)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Cleanup()
	},
}

func init() {
	commands.AddGlobalFlags(rootCmd)

	rootCmd.AddCommand(commands.IndexCmd)
	rootCmd.AddCommand(commands.UnindexCmd)
	rootCmd.AddCommand(commands.SearchCmd)
	rootCmd.AddCommand(commands.ClassifyCmd)
	rootCmd.AddCommand(commands.ServeCmd)
	rootCmd.AddCommand(commands.ConfigCmd)
	rootCmd.AddCommand(commands.DbCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
