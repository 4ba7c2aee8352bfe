package commands

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/lores-mesh/site-admin/internal/bootstrap"
	"github.com/lores-mesh/site-admin/internal/events"
)

func eventsCmd(a *app) *cobra.Command {
	var (
		sessionID string
		limit     int
		follow    bool
	)
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show onboarding transitions recorded by the admin server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.Redis.Addr == "" {
				return errors.New("REDIS_ADDR is not set, the server keeps events in memory only")
			}

			rdb, err := bootstrap.OpenRedis(cmd.Context(), bootstrap.RedisOptions{
				Addr:     a.cfg.Redis.Addr,
				Password: a.cfg.Redis.Password,
				DB:       a.cfg.Redis.DB,
			})
			if err != nil {
				return err
			}
			defer rdb.Close()

			store := events.NewRedisStore(rdb, a.cfg.Redis.EventTTL)
			out := cmd.OutOrStdout()

			if !follow {
				list, err := store.Recent(cmd.Context(), sessionID, limit)
				if err != nil {
					return err
				}
				for i := len(list) - 1; i >= 0; i-- {
					writeEvent(out, list[i])
				}
				return nil
			}

			ch, err := store.Subscribe(cmd.Context())
			if err != nil {
				return err
			}
			for ev := range ch {
				if sessionID != "" && ev.SessionID != sessionID {
					continue
				}
				writeEvent(out, ev)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "", "only this session (default all)")
	cmd.Flags().IntVar(&limit, "limit", events.DefaultLimit, "number of events to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "stream new events")
	return cmd
}

func writeEvent(w io.Writer, ev events.Event) {
	from, to := "-", "-"
	if ev.From != nil {
		from = ev.From.String()
	}
	if ev.To != nil {
		to = ev.To.String()
	}
	line := fmt.Sprintf("%s  %-14s %s -> %s  session=%s", ev.At.Format("2006-01-02 15:04:05"), ev.Trigger, from, to, ev.SessionID)
	if ev.Error != "" {
		line += "  error=" + ev.Error
	}
	fmt.Fprintln(w, line)
}
