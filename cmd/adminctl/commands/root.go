package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/lores-mesh/site-admin/config"
	"github.com/lores-mesh/site-admin/internal/bootstrap"
	"github.com/lores-mesh/site-admin/internal/domain"
	"github.com/lores-mesh/site-admin/internal/gateway"
	"github.com/lores-mesh/site-admin/internal/logging"
	"github.com/lores-mesh/site-admin/internal/onboarding"
)

// cliSession names the orchestrator session used by one CLI invocation.
const cliSession = "adminctl"

// app is the state shared by every subcommand, filled in by the root
// command's PersistentPreRunE.
type app struct {
	cfg    *config.Config
	client *gateway.Client
	kind   domain.ScopeKind
}

func (a *app) orchestrator() *onboarding.Orchestrator {
	return bootstrap.NewOrchestrator(a.client, a.kind, nil, cliSession)
}

func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

func NewRootCmd() *cobra.Command {
	var (
		configFile string
		nodeAPIURL string
		scopeName  string
		a          = &app{}
	)

	root := &cobra.Command{
		Use:          "adminctl",
		Short:        "Onboard and inspect a LoRes mesh node from the terminal",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if configFile != "" {
				if err := cfg.Overlay(configFile); err != nil {
					return err
				}
			}
			if nodeAPIURL != "" {
				cfg.NodeAPI.URL = nodeAPIURL
			}
			if scopeName != "" {
				cfg.NodeAPI.Scope = scopeName
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			kind, err := domain.ParseScopeKind(cfg.NodeAPI.Scope)
			if err != nil {
				return err
			}

			logging.SetLevel(cfg.App.LogLevel)
			a.cfg = cfg
			a.kind = kind
			a.client = gateway.NewClient(cfg.NodeAPI.URL,
				gateway.WithTimeout(cfg.NodeAPI.Timeout),
				gateway.WithRateLimit(rate.Limit(cfg.NodeAPI.Rate), cfg.NodeAPI.Burst),
			)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&configFile, "config", "", "YAML config file overlaid on the environment")
	root.PersistentFlags().StringVar(&nodeAPIURL, "node-api", "", "node API base URL (overrides NODE_API_URL)")
	root.PersistentFlags().StringVar(&scopeName, "scope", "", "local scope to onboard: node or site (overrides LOCAL_SCOPE)")

	root.AddCommand(
		statusCmd(a),
		onboardCmd(a),
		tuiCmd(a),
		restartCmd(a),
		eventsCmd(a),
	)
	return root
}

func printJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
