package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"refpool/cmd/internal/passphrase"
	"refpool/crypto"
)

func keygenCmd() *cobra.Command {
	var (
		out     string
		passEnv string
		force   bool
	)
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate an ed25519 key and write it to an encrypted keystore",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" {
				return fmt.Errorf("--out is required")
			}
			if _, err := os.Stat(out); err == nil && !force {
				return fmt.Errorf("keystore %s already exists; pass --force to overwrite", out)
			}
			pass, err := passphrase.NewSource(passEnv).Get()
			if err != nil {
				return err
			}
			key, err := crypto.GeneratePrivateKey()
			if err != nil {
				return err
			}
			if err := crypto.SaveToKeystore(out, key, pass); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), key.Address().String())
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "Output path for the keystore file")
	cmd.PersistentFlags().StringVar(&passEnv, "pass-env", defaultPassEnv, "Environment variable containing the keystore passphrase")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing keystore file")

	cmd.AddCommand(&cobra.Command{
		Use:   "show <keystore>",
		Short: "Decrypt a keystore and print its address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pass, err := passphrase.NewSource(passEnv).Get()
			if err != nil {
				return err
			}
			key, err := crypto.LoadFromKeystore(args[0], pass)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), key.Address().String())
			return nil
		},
	})
	return cmd
}
