package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var recoveryCmd = &cobra.Command{
	Use:   "recovery",
	Short: "Manage single-use backup codes",
}

var recoveryRedeemCmd = &cobra.Command{
	Use:   "redeem <code>",
	Short: "Consume a backup code",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer c.Logout()

		if err := c.RedeemBackupCode(cmd.Context(), args[0]); err != nil {
			return err
		}
		remaining, err := c.UnusedBackupCodes(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Code accepted. %d backup codes remaining.\n", remaining)
		return nil
	},
}

var recoveryRegenerateCmd = &cobra.Command{
	Use:   "regenerate",
	Short: "Replace all backup codes with a fresh batch",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer c.Logout()

		codes, err := c.RegenerateBackupCodes(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println("New backup codes (previous codes no longer work):")
		for _, code := range codes {
			fmt.Printf("  %s\n", code)
		}
		return nil
	},
}

var recoveryStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show how many backup codes remain",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer c.Logout()

		remaining, err := c.UnusedBackupCodes(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("%d backup codes remaining.\n", remaining)
		return nil
	},
}

func init() {
	recoveryCmd.AddCommand(recoveryRedeemCmd, recoveryRegenerateCmd, recoveryStatusCmd)
	rootCmd.AddCommand(recoveryCmd)
}
