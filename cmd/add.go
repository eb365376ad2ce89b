package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:   "add <image> <name> [id]",
	Short: "Enroll the face found in an image file",
	Long: `Detects the face in the image and stores it as a new sample of the person.
Without an id the label of an existing person with the same name is reused,
otherwise the next free label is assigned.`,
	Args: cobra.RangeArgs(2, 3),
	RunE: runAdd,
}

func init() {
	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	label := 0
	if len(args) == 3 {
		var err error
		if label, err = strconv.Atoi(args[2]); err != nil || label <= 0 {
			return fmt.Errorf("invalid id %q, must be a positive number", args[2])
		}
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	service, err := bootstrap()
	if err != nil {
		return err
	}
	defer service.Close()

	result, err := service.AddFace(args[1], label, data)
	if err != nil {
		return err
	}
	fmt.Printf("Added %s as %s (label %d), %d samples, trained: %v\n",
		result.Sample, result.Name, result.Label, result.Samples, result.Trained)
	return nil
}
