package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AlexZinkM/tkey-wallet/internal/config"
	"github.com/AlexZinkM/tkey-wallet/internal/crypto"
)

func rekeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rekey <device-share-file>",
		Short: "Re-encrypt a device share file under a new passphrase",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			oldPassword, err := config.ReadPassword("Current passphrase: ")
			if err != nil {
				return err
			}
			defer clear(oldPassword)

			newPassword, err := config.ReadPassword("New passphrase: ")
			if err != nil {
				return err
			}
			defer clear(newPassword)

			confirm, err := config.ReadPassword("Repeat new passphrase: ")
			if err != nil {
				return err
			}
			defer clear(confirm)
			if string(confirm) != string(newPassword) {
				return errors.New("passphrases do not match")
			}

			if err := crypto.ReencryptDeviceShare(args[0], oldPassword, newPassword, crypto.DefaultKDFParams()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Device share re-encrypted: %s\n", args[0])
			return nil
		},
	}
}
