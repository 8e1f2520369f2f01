package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a new account",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := requireUsername()
		if err != nil {
			return err
		}
		password, err := promptPassword("Master password: ")
		if err != nil {
			return err
		}
		confirm, err := promptPassword("Confirm master password: ")
		if err != nil {
			return err
		}
		if password != confirm {
			return fmt.Errorf("passwords do not match")
		}

		c := newClient()
		if err := c.Register(cmd.Context(), user, password); err != nil {
			return err
		}
		defer c.Logout()

		fmt.Printf("Account %s registered.\n", user)
		fmt.Println("Your master password is the only way to decrypt your vault. It cannot be recovered.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(registerCmd)
}
