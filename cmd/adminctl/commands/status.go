package commands

import (
	"github.com/spf13/cobra"
)

func statusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Resolve and print the onboarding stage",
		RunE: func(cmd *cobra.Command, args []string) error {
			orch := a.orchestrator()
			err := orch.Refresh(cmd.Context())
			if perr := printJSON(cmd.OutOrStdout(), orch.View()); perr != nil {
				return perr
			}
			return err
		},
	}
}
