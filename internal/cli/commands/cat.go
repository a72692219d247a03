package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"hotcache/internal/resource"
	"hotcache/internal/store"
)

type catOptions struct {
	as    string
	query string
}

func newCatCmd(g *globalFlags) *cobra.Command {
	opts := &catOptions{}
	cmd := &cobra.Command{
		Use:   "cat <key>",
		Short: "Load a resource once and print it",
		Long: `Load a resource through the cache and print it.

--as selects the resource type:
  text   file content (default)
  yaml   decoded YAML, optionally narrowed with --query a.b.c
  json   JSON, optionally queried with a gjson path (--query items.#.name)
  blob   size and path of the raw bytes
  env    environment variable named by a logical key
  manifest  concatenation of the files listed under "files:"

Examples:
  hotcache cat notes.txt
  hotcache cat --as yaml --query window.title sketch.yaml
  hotcache cat --as env logical:HOME`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCat(cmd, g, opts, store.ParseKey(args[0]))
		},
	}
	cmd.Flags().StringVar(&opts.as, "as", "text", "resource type: text, yaml, json, blob, env, manifest")
	cmd.Flags().StringVarP(&opts.query, "query", "q", "", "path inside a yaml or json document")
	return cmd
}

func runCat(cmd *cobra.Command, g *globalFlags, opts *catOptions, key store.Key) error {
	s, err := g.openStore(nil)
	if err != nil {
		return err
	}
	defer s.Close()

	out := cmd.OutOrStdout()
	ctx := &session{out: out}

	switch strings.ToLower(opts.as) {
	case "text":
		h, err := store.Get[resource.Text[*session]](s, key, ctx)
		if err != nil {
			return err
		}
		_, err = io.WriteString(out, h.Get().Content)
		return err

	case "yaml":
		h, err := store.Get[resource.YAML[*session]](s, key, ctx)
		if err != nil {
			return err
		}
		v, ok := h.Get().Lookup(opts.query)
		if !ok {
			return fmt.Errorf("%q not found in %s", opts.query, h.Key().Value())
		}
		return printYAMLValue(out, v)

	case "json":
		h, err := store.Get[resource.JSON[*session]](s, key, ctx)
		if err != nil {
			return err
		}
		if opts.query == "" {
			_, err = out.Write(h.Get().Raw)
			return err
		}
		r := h.Get().Get(opts.query)
		if !r.Exists() {
			return fmt.Errorf("%q not found in %s", opts.query, h.Key().Value())
		}
		_, err = fmt.Fprintln(out, r.String())
		return err

	case "blob":
		h, err := store.Get[resource.Blob[*session]](s, key, ctx)
		if err != nil {
			return err
		}
		size := h.Get().Size()
		_, err = fmt.Fprintf(out, "%s: %s (%s bytes)\n", h.Key().Value(), humanize.Bytes(uint64(size)), humanize.Comma(int64(size)))
		return err

	case "env":
		h, err := store.Get[resource.Env[*session]](s, key, ctx)
		if err != nil {
			return err
		}
		if !h.Get().Set {
			return fmt.Errorf("environment variable %s is not set", h.Get().Name)
		}
		_, err = fmt.Fprintln(out, h.Get().Value)
		return err

	case "manifest":
		h, err := store.Get[resource.Manifest[*session]](s, key, ctx)
		if err != nil {
			return err
		}
		_, err = io.WriteString(out, h.Get().Concat())
		return err

	default:
		return fmt.Errorf("unknown resource type %q", opts.as)
	}
}

func printYAMLValue(out io.Writer, v any) error {
	switch v := v.(type) {
	case string:
		_, err := fmt.Fprintln(out, v)
		return err
	case map[string]any, []any:
		data, err := yaml.Marshal(v)
		if err != nil {
			return err
		}
		_, err = out.Write(data)
		return err
	default:
		_, err := fmt.Fprintln(out, v)
		return err
	}
}
