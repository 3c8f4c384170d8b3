package prov

import (
	"fmt"
	"io"
)

// WriteDot serializes the graph in Graphviz DOT format for audit tooling.
// Edges point from inputs to outputs and carry the generating operation's
// name.
func (g *Graph) WriteDot(w io.Writer) error {
	if _, err := fmt.Fprintln(w, "digraph provenance {"); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, "  rankdir=LR;"); err != nil {
		return err
	}
	for _, rec := range g.Records() {
		for _, in := range rec.InputIDs {
			if _, err := fmt.Fprintf(w, "  %q -> %q [label=%q];\n", in, rec.OutputID, rec.Op.Name); err != nil {
				return err
			}
		}
		if len(rec.InputIDs) == 0 {
			if _, err := fmt.Fprintf(w, "  %q;\n", rec.OutputID); err != nil {
				return err
			}
		}
	}
	_, err := fmt.Fprintln(w, "}")
	return err
}
