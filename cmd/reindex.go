package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Sync people and samples with the files in the dataset directory",
	Args:  cobra.NoArgs,
	RunE:  runReindex,
}

func init() {
	rootCmd.AddCommand(reindexCmd)
}

func runReindex(cmd *cobra.Command, args []string) error {
	service, err := bootstrap()
	if err != nil {
		return err
	}
	defer service.Close()

	result, err := service.Reindex()
	if err != nil {
		return err
	}
	fmt.Printf("People: %d, samples: %d (added %d, removed %d)\n", result.People, result.Samples, result.Added, result.Removed)
	return nil
}
