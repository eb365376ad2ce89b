package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var recognizeCmd = &cobra.Command{
	Use:   "recognize <image>",
	Short: "Recognize the faces in an image file",
	Args:  cobra.ExactArgs(1),
	RunE:  runRecognize,
}

func init() {
	rootCmd.AddCommand(recognizeCmd)
	recognizeCmd.Flags().Bool("json", false, "Print the full result as JSON")
}

func runRecognize(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	service, err := bootstrap()
	if err != nil {
		return err
	}
	defer service.Close()

	result, err := service.Recognize(data)
	if err != nil {
		return err
	}
	if mustGetBool(cmd, "json") {
		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}
	fmt.Println(result.Name)
	for _, face := range result.Faces {
		fmt.Printf("  %-20s label: %-4d confidence: %6.2f at %d,%d %dx%d\n",
			face.Name, face.Label, face.Confidence, face.Box.X, face.Box.Y, face.Box.W, face.Box.H)
	}
	return nil
}
