package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmcleod/keywarden/vault"
)

var (
	recordLabel string
	recordLogin string
	recordURI   string
)

var vaultCmd = &cobra.Command{
	Use:   "vault",
	Short: "Manage encrypted vault records",
}

var vaultAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Store a new credential",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer c.Logout()

		secret, err := promptPassword("Secret to store: ")
		if err != nil {
			return err
		}
		id, err := c.PutCredential(cmd.Context(), vault.Record{
			Label:  recordLabel,
			Login:  recordLogin,
			Secret: secret,
			URI:    recordURI,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Stored %s\n", id)
		return nil
	},
}

var vaultGetCmd = &cobra.Command{
	Use:   "get <item-id>",
	Short: "Decrypt and print a credential",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer c.Logout()

		rec, err := c.GetCredential(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Label:  %s\n", rec.Label)
		fmt.Printf("Login:  %s\n", rec.Login)
		fmt.Printf("Secret: %s\n", rec.Secret)
		if rec.URI != "" {
			fmt.Printf("URI:    %s\n", rec.URI)
		}
		return nil
	},
}

var vaultListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored credential IDs",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer c.Logout()

		ids, err := c.ListCredentials(cmd.Context())
		if err != nil {
			return err
		}
		for _, id := range ids {
			fmt.Println(id)
		}
		return nil
	},
}

var vaultDeleteCmd = &cobra.Command{
	Use:   "delete <item-id>",
	Short: "Delete a credential",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer c.Logout()

		return c.DeleteCredential(cmd.Context(), args[0])
	},
}

func init() {
	vaultAddCmd.Flags().StringVar(&recordLabel, "label", "", "Account label (e.g. GitHub)")
	vaultAddCmd.Flags().StringVar(&recordLogin, "login", "", "Login name")
	vaultAddCmd.Flags().StringVar(&recordURI, "uri", "", "Optional URI")

	vaultCmd.AddCommand(vaultAddCmd, vaultGetCmd, vaultListCmd, vaultDeleteCmd)
	rootCmd.AddCommand(vaultCmd)
}
