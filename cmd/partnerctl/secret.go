package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/persona-ai/partner-gateway/pkg/cryptox"
)

func newSecretCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secret",
		Short: "Manage partner shared secrets",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "generate",
		Short: "Print a new random partner secret and its fingerprint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			secret, err := cryptox.GenerateSecret()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "secret:      %s\nfingerprint: %s\n",
				secret, cryptox.Fingerprint([]byte(secret)))
			return err
		},
	})
	return cmd
}
