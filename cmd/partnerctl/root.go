package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "partnerctl",
		Short:         "partnerctl helps partners and operators work with gateway tokens",
		Long:          "partnerctl mints embed and API tokens, decodes tokens for debugging and generates partner secrets.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newTokenCmd(), newSecretCmd())
	return root
}
