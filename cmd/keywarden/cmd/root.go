package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	serverURL string
	username  string
)

var rootCmd = &cobra.Command{
	Use:   "keywarden",
	Short: "Keywarden is a zero-knowledge password manager",
	Long: `A zero-knowledge password manager. The master password never leaves
this machine, vault records and the TOTP seed are encrypted client-side,
and the server only ever sees opaque blobs and an authentication tag.`,
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8465/api/v1", "Base URL of the verification server")
	rootCmd.PersistentFlags().StringVarP(&username, "username", "u", "", "Account username")
}
