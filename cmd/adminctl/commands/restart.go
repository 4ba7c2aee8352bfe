package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lores-mesh/site-admin/internal/gateway"
	"github.com/lores-mesh/site-admin/internal/result"
)

func restartCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "restart [node|p2panda]",
		Short:     "Restart the node or its network process",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"node", "p2panda"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := "node"
			if len(args) == 1 {
				target = args[0]
			}

			var (
				res result.Result[json.RawMessage]
				err error
			)
			switch target {
			case "p2panda":
				res, err = gateway.NewPandaNodeAPI(a.client).Restart(cmd.Context())
			default:
				res, err = gateway.NewNodeAPI(a.client).Restart(cmd.Context())
			}
			if err != nil {
				return err
			}
			if !res.IsOk() {
				return res.Error()
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s restart requested\n", target)
			return nil
		},
	}
}
