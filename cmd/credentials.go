package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	credsOwner   string
	credsService string
	credsKey     string
)

var credentialsCmd = &cobra.Command{
	Use:   "credentials",
	Short: "Manage per-user service credentials",
	Long:  "Stores API credentials scoped to an owner. A run without a config-level extraction key uses the owner's stored gemini/api_key.",
}

var credentialsSetCmd = &cobra.Command{
	Use:   "set <secret>",
	Short: "Store a credential for an owner",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		if err := st.SetCredential(ctx, credsOwner, credsService, credsKey, args[0]); err != nil {
			return eris.Wrap(err, "credentials set")
		}

		zap.L().Info("credential stored",
			zap.String("owner", credsOwner),
			zap.String("service", credsService),
			zap.String("key", credsKey),
		)
		return nil
	},
}

func init() {
	credentialsCmd.PersistentFlags().StringVar(&credsOwner, "owner", "", "owner user id (required)")
	_ = credentialsCmd.MarkPersistentFlagRequired("owner")
	credentialsSetCmd.Flags().StringVar(&credsService, "service", "gemini", "service name")
	credentialsSetCmd.Flags().StringVar(&credsKey, "key", "api_key", "credential key")
	credentialsCmd.AddCommand(credentialsSetCmd)
	rootCmd.AddCommand(credentialsCmd)
}
