package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chimerakang/uat-go/audit"
	"github.com/chimerakang/uat-go/keys"
)

func addKeygenCommandTo(parent *cobra.Command, a *app) {
	var (
		overwrite bool
		bits      int
	)
	cmd := &cobra.Command{
		Use:     "keygen",
		Example: "  uatctl keygen --overwrite",
		Short:   "Generates the RSA key pair used to sign tokens.",
		Long: `Generates a 2048-bit RSA key pair and writes private_key.pem and public_key.pem
into the configured key directory. An existing pair is kept unless --overwrite is
given. Replacing the key invalidates every configuration registered with the old one.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := []keys.GenerateOption{keys.WithBits(bits)}
			if overwrite {
				opts = append(opts, keys.WithOverwrite())
			}
			pair, err := a.keyStore().Generate(opts...)
			if err != nil {
				a.audit.LogContext(cmd.Context(), audit.Event{
					Action: audit.ActionKeyGenerate,
					Result: audit.ResultFailure,
					Error:  err.Error(),
				})
				if errors.Is(err, keys.ErrKeyExists) {
					return fmt.Errorf("%w (pass --overwrite to replace it)", err)
				}
				return err
			}
			a.audit.LogContext(cmd.Context(), audit.Event{
				Action:   audit.ActionKeyGenerate,
				Result:   audit.ResultSuccess,
				Resource: pair.PublicKeyPath,
			})

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "private key: %s\n", pair.PrivateKeyPath)
			fmt.Fprintf(out, "public key:  %s\n", pair.PublicKeyPath)
			if overwrite {
				fmt.Fprintln(out, "note: configurations registered with the previous key no longer validate new tokens")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing key pair.")
	cmd.Flags().IntVar(&bits, "bits", keys.MinBits, "RSA modulus size in bits (at least 2048).")
	parent.AddCommand(cmd)
}
