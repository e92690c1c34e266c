package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"github.com/specialistvlad/extreg/internal/app"
	"github.com/specialistvlad/extreg/internal/graph"
	"github.com/spf13/cobra"
)

var graphFormats = []string{"text", "dot", "mermaid", "json"}

func newResolveCommand(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve [PATH...]",
		Short: "Resolve the descriptors once and print a summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := o.resolveOnce(cmd, args)
			if err != nil {
				return err
			}
			printSummary(o.outW, g)
			return nil
		},
	}
}

func newGraphCommand(o *rootOptions) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "graph [PATH...]",
		Short: "Resolve the descriptors and print the graph",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(graphFormats, format) {
				return usageError("invalid format %q: must be one of %v", format, graphFormats)
			}
			g, err := o.resolveOnce(cmd, args)
			if err != nil {
				return err
			}
			return renderGraph(o.outW, g, format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text, dot, mermaid or json")
	return cmd
}

func newServeCommand(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve [PATH...]",
		Short: "Resolve, serve the graph over HTTP and optionally re-resolve on change",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.newApp(cmd.Context(), args)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()
			if err := a.Serve(cmd.Context()); err != nil {
				return failure("%v", err)
			}
			return nil
		},
	}
	cmd.Flags().Bool("watch", false, "re-resolve when descriptor files change")
	cmd.Flags().Duration("watch-debounce", app.DefaultConfig().WatchDebounce, "quiet period before a change triggers a pass")
	o.bind(cmd.Flags(), "watch", "watch")
	o.bind(cmd.Flags(), "watch-debounce", "watch_debounce")
	return cmd
}

// resolveOnce builds the app, runs a single pass and closes the app again.
func (o *rootOptions) resolveOnce(cmd *cobra.Command, args []string) (*graph.Graph, error) {
	a, err := o.newApp(cmd.Context(), args)
	if err != nil {
		return nil, err
	}
	defer func() { _ = a.Close() }()

	g, err := a.Resolve(cmd.Context())
	if err != nil {
		return nil, failure("resolution failed:\n%v", err)
	}
	return g, nil
}

func printSummary(w io.Writer, g *graph.Graph) {
	fmt.Fprintf(w, "Resolved %d resource(s) with %d edge(s) (version %d, fingerprint %s).\n",
		g.Len(), len(g.Edges()), g.Version(), shortFingerprint(g.Fingerprint()))
	for _, r := range g.Resources() {
		for _, v := range r.Warnings() {
			fmt.Fprintf(w, "warning: %s: %s\n", r.ID(), v)
		}
	}
}

func renderGraph(w io.Writer, g *graph.Graph, format string) error {
	var out string
	switch format {
	case "dot":
		out = g.DOT()
	case "mermaid":
		out = g.Mermaid()
	case "json":
		data, err := json.MarshalIndent(g, "", "  ")
		if err != nil {
			return failure("failed to encode graph: %v", err)
		}
		out = string(data) + "\n"
	default:
		out = g.Text()
	}
	_, err := io.WriteString(w, out)
	return err
}

func shortFingerprint(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}
