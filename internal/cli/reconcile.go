package cli

import (
	"encoding/json"

	"mafiamadness/internal/app"
	"mafiamadness/internal/services"

	"github.com/spf13/cobra"
)

func newReconcileCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Rebuild user back-references from the stored games",
		Long: `reconcile re-derives every user's games_participate and games_created lists from
the games' player lists and creators, and saves only the users that changed.
Run it after a partially failed game operation.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			stores, err := app.OpenStores(cmd.Context(), rt.cfg, rt.logWriter)
			if err != nil {
				return err
			}
			defer stores.Close()

			report, err := services.NewGameService(stores.Users, stores.Games, nil).Reconcile(cmd.Context())
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}
}
