package commands

import (
	"github.com/spf13/cobra"

	"github.com/lores-mesh/site-admin/internal/domain"
	"github.com/lores-mesh/site-admin/internal/onboarding"
)

func onboardCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "onboard",
		Short: "Run one onboarding step",
	}
	cmd.AddCommand(
		onboardRegionCmd(a),
		onboardJoinCmd(a),
		onboardLocalCmd(a),
		onboardBootstrapCmd(a),
	)
	return cmd
}

// runStep resolves the current stage, runs step and prints the view.
func runStep(cmd *cobra.Command, a *app, step func(*onboarding.Orchestrator) (onboarding.View, error)) error {
	orch := a.orchestrator()
	if err := orch.Refresh(cmd.Context()); err != nil {
		_ = printJSON(cmd.OutOrStdout(), orch.View())
		return err
	}
	v, err := step(orch)
	if perr := printJSON(cmd.OutOrStdout(), v); perr != nil {
		return perr
	}
	return err
}

func onboardRegionCmd(a *app) *cobra.Command {
	var form domain.NewRegion
	cmd := &cobra.Command{
		Use:   "region",
		Short: "Create a new region",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStep(cmd, a, func(o *onboarding.Orchestrator) (onboarding.View, error) {
				return o.CreateRegion(cmd.Context(), form)
			})
		},
	}
	cmd.Flags().StringVar(&form.Name, "name", "", "region name")
	cmd.Flags().StringVar(&form.Description, "description", "", "region description")
	return cmd
}

func onboardJoinCmd(a *app) *cobra.Command {
	var (
		network string
		peerID  string
		peerIP  string
	)
	cmd := &cobra.Command{
		Use:   "join",
		Short: "Join an existing region",
		RunE: func(cmd *cobra.Command, args []string) error {
			form := domain.JoinRegion{NetworkName: network}
			if peerID != "" || peerIP != "" {
				form.BootstrapPeer = &domain.BootstrapPeer{NodeID: peerID, IP4: peerIP}
			}
			return runStep(cmd, a, func(o *onboarding.Orchestrator) (onboarding.View, error) {
				return o.JoinRegion(cmd.Context(), form)
			})
		},
	}
	cmd.Flags().StringVar(&network, "network", "", "network name of the region")
	cmd.Flags().StringVar(&peerID, "peer-node-id", "", "node id of a known peer")
	cmd.Flags().StringVar(&peerIP, "peer-ip", "", "IPv4 address of that peer")
	return cmd
}

func onboardLocalCmd(a *app) *cobra.Command {
	var form domain.NewLocal
	cmd := &cobra.Command{
		Use:   "local",
		Short: "Create this node or site",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStep(cmd, a, func(o *onboarding.Orchestrator) (onboarding.View, error) {
				return o.CreateLocal(cmd.Context(), form)
			})
		},
	}
	cmd.Flags().StringVar(&form.Name, "name", "", "node or site name")
	return cmd
}

func onboardBootstrapCmd(a *app) *cobra.Command {
	var form domain.BootstrapNode
	cmd := &cobra.Command{
		Use:   "bootstrap-node",
		Short: "Point this node at a peer of an existing network",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStep(cmd, a, func(o *onboarding.Orchestrator) (onboarding.View, error) {
				return o.BootstrapNode(cmd.Context(), form)
			})
		},
	}
	cmd.Flags().StringVar(&form.NetworkName, "network", "", "network name")
	cmd.Flags().StringVar(&form.NodeID, "node-id", "", "peer node id")
	cmd.Flags().StringVar(&form.IPAddress, "ip", "", "peer IPv4 address")
	return cmd
}
