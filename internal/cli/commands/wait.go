package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"hotcache/internal/resource"
	"hotcache/internal/store"
	"hotcache/internal/util"
)

func newWaitCmd(g *globalFlags) *cobra.Command {
	var (
		contains string
		timeout  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "wait <key>",
		Short: "Block until a text resource contains a string",
		Long: `Load the key as text and sync once per tick until its content contains
--contains. The file does not need to exist yet.

Examples:
  hotcache wait --contains done build/status.txt
  hotcache wait --contains ready --timeout 30s --root /srv/app health.txt`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if contains == "" {
				return errors.New("--contains is required")
			}
			s, err := g.openStore(nil)
			if err != nil {
				return err
			}
			defer s.Close()

			sess := &session{out: cmd.OutOrStdout()}
			h := store.GetProxied[resource.Text[*session]](s, store.ParseKey(args[0]), sess, func() resource.Text[*session] {
				return resource.Text[*session]{}
			})

			cfg := util.DefaultPollConfig()
			cfg.Timeout = timeout
			cfg.Interval = g.settings.Tick()
			err = util.PollUntil(cmd.Context(), cfg, func() bool {
				if err := s.Sync(sess); err != nil {
					reportSyncErrors(cmd, err)
				}
				return strings.Contains(h.Get().Content, contains)
			})
			if errors.Is(err, context.DeadlineExceeded) {
				return fmt.Errorf("timed out after %s waiting for %q in %s", timeout, contains, h.Key().Value())
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s contains %q (v%d)\n", h.Key().Value(), contains, h.Version())
			return nil
		},
	}
	cmd.Flags().StringVar(&contains, "contains", "", "text to wait for")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "give up after this long (0: wait forever)")
	return cmd
}
