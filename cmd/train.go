package cmd

import (
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train the recognizer on all stored samples",
	Args:  cobra.NoArgs,
	RunE:  runTrain,
}

func init() {
	rootCmd.AddCommand(trainCmd)
	trainCmd.Flags().Bool("quiet", false, "Do not show a progress bar")
}

func runTrain(cmd *cobra.Command, args []string) error {
	service, err := bootstrap()
	if err != nil {
		return err
	}
	defer service.Close()

	var bar *progressbar.ProgressBar
	progress := func(done, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetDescription("Reading samples"),
				progressbar.OptionShowCount(),
				progressbar.OptionShowIts(),
				progressbar.OptionSetItsString("files"),
				progressbar.OptionShowElapsedTimeOnFinish(),
				progressbar.OptionFullWidth(),
			)
		}
		_ = bar.Set(done)
	}
	if mustGetBool(cmd, "quiet") {
		progress = nil
	}
	result, err := service.TrainWithProgress(progress)
	if bar != nil {
		_ = bar.Finish()
		fmt.Println()
	}
	if err != nil {
		return err
	}
	fmt.Printf("Trained on %d faces of %d people in %d ms (%d files skipped)\n",
		result.Faces, result.Labels, result.DurationMs, result.Skipped)
	return nil
}
