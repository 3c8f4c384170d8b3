package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/clinpipe/clinpipe/display"
	"github.com/clinpipe/clinpipe/prov"
)

// ProvCmd inspects persisted provenance graphs.
var ProvCmd = &cobra.Command{
	Use:   "prov",
	Short: "Inspect and export provenance graphs",
	Long: `prov — Inspect and export persisted provenance graphs.

Examples:
  clinpipe prov export --db prov.db --out graph.dot   # DOT export
  clinpipe prov trace --db prov.db <id>               # Upstream lineage`,
}

var (
	provDBPath  string
	provOutPath string
)

var provExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a provenance graph in Graphviz DOT format",
	RunE:  runProvExport,
}

var provTraceCmd = &cobra.Command{
	Use:   "trace <id>",
	Short: "Show an identifier's full upstream lineage",
	Args:  cobra.ExactArgs(1),
	RunE:  runProvTrace,
}

func init() {
	ProvCmd.PersistentFlags().StringVar(&provDBPath, "db", "clinpipe-prov.db", "Provenance database path")
	provExportCmd.Flags().StringVar(&provOutPath, "out", "", "Output file (default: stdout)")

	ProvCmd.AddCommand(provExportCmd)
	ProvCmd.AddCommand(provTraceCmd)
}

func loadGraph(cmd *cobra.Command) (*prov.Graph, error) {
	db, err := prov.Open(provDBPath)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	store := prov.NewSQLStore(db)
	return store.Load(cmd.Context())
}

func runProvExport(cmd *cobra.Command, args []string) error {
	g, err := loadGraph(cmd)
	if err != nil {
		return err
	}

	out := os.Stdout
	if provOutPath != "" {
		f, err := os.Create(provOutPath)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", provOutPath, err)
		}
		defer f.Close()
		out = f
	}
	return g.WriteDot(out)
}

func runProvTrace(cmd *cobra.Command, args []string) error {
	g, err := loadGraph(cmd)
	if err != nil {
		return err
	}

	id := args[0]
	type lineage struct {
		ID        string   `json:"id"`
		Source    bool     `json:"source"`
		Operation string   `json:"operation,omitempty"`
		Inputs    []string `json:"inputs,omitempty"`
		Ancestors []string `json:"ancestors"`
	}
	l := lineage{ID: id, Source: g.IsSource(id), Ancestors: g.Ancestors(id)}
	if !l.Source {
		desc, err := g.OperationOf(id)
		if err != nil {
			return err
		}
		l.Operation = desc.Name
		l.Inputs, _ = g.InputsOf(id)
	}

	if display.ShouldOutputJSON(cmd) {
		return display.OutputJSON(l)
	}
	if l.Source {
		fmt.Printf("%s is a source node (initial corpus material)\n", id)
	} else {
		fmt.Printf("%s was produced by %s from %v\n", id, l.Operation, l.Inputs)
	}
	fmt.Printf("Full upstream closure: %v\n", l.Ancestors)
	return nil
}
