package cli

import (
	"fmt"

	"mafiamadness/internal/app"

	"github.com/spf13/cobra"
)

func newMigrateCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create tables or indexes for the configured store",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Opening the stores runs AutoMigrate for SQL and creates Mongo indexes.
			stores, err := app.OpenStores(cmd.Context(), rt.cfg, rt.logWriter)
			if err != nil {
				return err
			}
			defer stores.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "%s store is ready\n", rt.cfg.DBDriver)
			return nil
		},
	}
}
