package cmd

import (
	"fmt"
	"os"

	"facerec/config"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "facerec",
	Short: "Face enrollment and recognition service",
	Long: `facerec stores labeled face images, trains a face recognizer on them
and answers recognition requests over HTTP. Without a subcommand it starts the server.`,
	RunE:         runServe,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	addServeFlags(rootCmd)
}

func initConfig() {
	// .env file is optional
	_ = godotenv.Load()
	config.Load()
}
