package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/kb-dashboard/backend/internal/graphview"
	"github.com/spf13/cobra"
)

var graphCategories []string

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Print the knowledge graph",
	Long: `Print the knowledge graph as node and link tables.

By default every category is shown. Pass --category one or more times to
show only those categories; links are kept only when both ends are shown.`,
	Args: cobra.NoArgs,
	RunE: runGraph,
}

func init() {
	graphCmd.Flags().StringSliceVar(&graphCategories, "category", nil, "Show only these categories (repeatable)")
}

func runGraph(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	client := newBackendClient(cfg)

	view := graphview.NewView("cli")
	if err := view.Load(cmd.Context(), client, cfg.BackendReadTimeout()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitBackend)
	}

	if len(graphCategories) > 0 {
		want := graphview.NewSelection(graphCategories)
		for _, c := range view.Snapshot().Categories {
			if !want.Has(c) {
				if _, err := view.Toggle(c); err != nil {
					return err
				}
			}
		}
	}

	printGraph(os.Stdout, view.Snapshot())
	return nil
}

func printGraph(out io.Writer, snap graphview.Snapshot) {
	if len(snap.Categories) == 0 && snap.Graph.IsEmpty() {
		fmt.Fprintln(out, "No graph data available")
		return
	}

	fmt.Fprintf(out, "Categories: %s\n", strings.Join(snap.Selected, ", "))
	if snap.Dangling > 0 {
		fmt.Fprintf(out, "Dropped %d links with unknown endpoints\n", snap.Dangling)
	}
	fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tVAL")
	for _, n := range snap.Graph.Nodes {
		fmt.Fprintf(w, "%s\t%s\t%s\t%g\n", n.ID, n.Name, n.Category, n.Val)
	}
	w.Flush()
	fmt.Fprintln(out)

	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SOURCE\tTARGET\tVALUE")
	for _, l := range snap.Graph.Links {
		fmt.Fprintf(w, "%s\t%s\t%g\n", l.Source, l.Target, l.Value)
	}
	w.Flush()

	fmt.Fprintf(out, "\n%d nodes, %d links\n", len(snap.Graph.Nodes), len(snap.Graph.Links))
}
