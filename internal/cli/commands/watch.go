package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dustin/go-humanize"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"hotcache/internal/resource"
	"hotcache/internal/store"
	"hotcache/internal/util"
)

type watchOptions struct {
	contains string
	count    int
	quiet    bool
}

// watched pairs a handle with the version last printed.
type watched struct {
	handle *store.Handle[resource.Text[*session]]
	seen   uint64
}

func newWatchCmd(g *globalFlags) *cobra.Command {
	opts := &watchOptions{}
	cmd := &cobra.Command{
		Use:   "watch <key>...",
		Short: "Watch text resources and report every reload",
		Long: `Load the given keys as text and sync the cache once per tick, printing a
line for every reload. Files that do not exist yet are watched and reported
once they appear. With discovery patterns in the settings, new matching files
under the roots are picked up as well.

Stops on Ctrl-C, after --count reloads, or when a resource contains --contains.

Examples:
  hotcache watch shader.wgsl
  hotcache watch --root assets --contains ready status.txt`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, cmd, g, opts, args)
		},
	}
	cmd.Flags().StringVar(&opts.contains, "contains", "", "stop once a watched resource contains this text")
	cmd.Flags().IntVar(&opts.count, "count", 0, "stop after this many reloads (0: never)")
	cmd.Flags().BoolVar(&opts.quiet, "quiet", false, "do not print content on reload")
	return cmd
}

func runWatch(ctx context.Context, cmd *cobra.Command, g *globalFlags, opts *watchOptions, args []string) error {
	out := cmd.OutOrStdout()
	sess := &session{out: out}

	var handles []*watched
	found := func(s *store.Store[*session], key store.Key, sess *session) {
		h, err := store.Get[resource.Text[*session]](s, key, sess)
		if err != nil {
			log.WithError(err).Warnf("discovered %s but could not load it", key)
			return
		}
		fmt.Fprintf(sess.out, "discovered %s\n", key.Value())
		handles = append(handles, &watched{handle: h, seen: h.Version()})
	}

	s, err := g.openStore(found)
	if err != nil {
		return err
	}
	defer s.Close()

	for _, arg := range args {
		h := store.GetProxied[resource.Text[*session]](s, store.ParseKey(arg), sess, func() resource.Text[*session] {
			return resource.Text[*session]{}
		})
		fmt.Fprintf(out, "watching %s (%s)\n", h.Key().Value(), humanize.Bytes(uint64(len(h.Get().Content))))
		handles = append(handles, &watched{handle: h, seen: h.Version()})
	}
	if opts.contains != "" && anyContains(handles, opts.contains) {
		return nil
	}

	reloads := 0
	err = util.Ticker(ctx, g.settings.Tick(), func() bool {
		if err := s.Sync(sess); err != nil {
			reportSyncErrors(cmd, err)
		}
		for _, w := range handles {
			v := w.handle.Version()
			if v == w.seen {
				continue
			}
			w.seen = v
			reloads++
			content := w.handle.Get().Content
			fmt.Fprintf(out, "reloaded %s v%d (%s)\n", w.handle.Key().Value(), v, humanize.Bytes(uint64(len(content))))
			if !opts.quiet {
				fmt.Fprintln(out, strings.TrimRight(content, "\n"))
			}
		}
		if opts.count > 0 && reloads >= opts.count {
			return false
		}
		return opts.contains == "" || !anyContains(handles, opts.contains)
	})
	st := s.Stats()
	fmt.Fprintf(out, "%d loaded, %d reloaded, %d failed reloads, %d tracked, %d cached\n",
		st.Loads, st.Reloads, st.ReloadFailures, st.Tracked, st.Entries)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func anyContains(handles []*watched, s string) bool {
	for _, w := range handles {
		if strings.Contains(w.handle.Get().Content, s) {
			return true
		}
	}
	return false
}

// reportSyncErrors prints each failed reload on stderr; the previous values
// stay in place.
func reportSyncErrors(cmd *cobra.Command, err error) {
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		for _, e := range joined.Unwrap() {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", e)
		}
		return
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
}
