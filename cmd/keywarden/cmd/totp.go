package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var qrOutPath string

var totpCmd = &cobra.Command{
	Use:   "totp",
	Short: "Manage time-based one-time passwords",
}

var totpEnableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Enable TOTP and print the provisioning URI",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer c.Logout()

		enrollment, err := c.EnableTOTP(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Println("Scan this URI with your authenticator app:")
		fmt.Println(enrollment.URI)
		if qrOutPath != "" {
			if err := os.WriteFile(qrOutPath, enrollment.QRPNG, 0o600); err != nil {
				return fmt.Errorf("writing QR code: %w", err)
			}
			fmt.Printf("QR code written to %s\n", qrOutPath)
		}

		fmt.Println("\nBackup codes (store these somewhere safe, each works once):")
		for _, code := range enrollment.BackupCodes {
			fmt.Printf("  %s\n", code)
		}
		return nil
	},
}

var totpDisableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Disable TOTP and discard backup codes",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer c.Logout()

		return c.DisableTOTP(cmd.Context())
	},
}

var totpCodeCmd = &cobra.Command{
	Use:   "code",
	Short: "Print the current TOTP code",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer c.Logout()

		code, err := c.TOTPCode(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println(code)
		return nil
	},
}

var totpVerifyCmd = &cobra.Command{
	Use:   "verify <code>",
	Short: "Check a TOTP code against the derived seed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer c.Logout()

		ok, err := c.VerifyTOTP(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("code rejected")
		}
		fmt.Println("Code accepted.")
		return nil
	},
}

func init() {
	totpEnableCmd.Flags().StringVar(&qrOutPath, "qr-out", "", "Write the provisioning QR code PNG to this file")

	totpCmd.AddCommand(totpEnableCmd, totpDisableCmd, totpCodeCmd, totpVerifyCmd)
	rootCmd.AddCommand(totpCmd)
}
