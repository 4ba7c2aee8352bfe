package commands

import (
	"github.com/spf13/cobra"

	"github.com/lores-mesh/site-admin/internal/tui"
)

func tuiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Interactive onboarding in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			return tui.Run(cmd.Context(), a.orchestrator())
		},
	}
}
