package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/clinpipe/clinpipe/anot"
	"github.com/clinpipe/clinpipe/op"
	"github.com/clinpipe/clinpipe/pipeline"
	"github.com/clinpipe/clinpipe/version"
)

// PipelineCmd inspects pipeline manifests.
var PipelineCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Validate and inspect pipeline manifests",
	Long: `pipeline — Validate and inspect pipeline manifests.

A manifest wires named operations by keys; the operations themselves are
registered in code. Validation checks the wiring (single producer per key,
every input satisfiable, no cycles) against the manifest's own operation
declarations.

Examples:
  clinpipe pipeline validate negation.yaml   # Check a manifest's wiring
  clinpipe pipeline show negation.yaml       # Print the execution plan`,
}

var pipelineValidateCmd = &cobra.Command{
	Use:   "validate <manifest.yaml>",
	Short: "Validate a pipeline manifest's wiring",
	Args:  cobra.ExactArgs(1),
	RunE:  runPipelineValidate,
}

var pipelineShowCmd = &cobra.Command{
	Use:   "show <manifest.yaml>",
	Short: "Show a manifest's execution plan",
	Args:  cobra.ExactArgs(1),
	RunE:  runPipelineShow,
}

func init() {
	PipelineCmd.AddCommand(pipelineValidateCmd)
	PipelineCmd.AddCommand(pipelineShowCmd)
}

// declaredOp stands in for an operation that exists only as a manifest
// declaration, so wiring can be checked without the real implementation.
type declaredOp struct {
	name string
}

func (d declaredOp) Descriptor() op.Descriptor { return op.Descriptor{Name: d.name} }
func (d declaredOp) Contract() op.Contract     { return op.Contract{} }
func (d declaredOp) Run(ctx context.Context, input anot.Annotation) ([]anot.Annotation, error) {
	return nil, fmt.Errorf("operation %s is declared but not implemented", d.name)
}

func buildFromManifest(path string) (*pipeline.Manifest, *pipeline.Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}
	m, err := pipeline.ParseManifest(data)
	if err != nil {
		return nil, nil, err
	}

	reg := op.NewRegistry(version.EngineVersion)
	for _, step := range m.Steps {
		if _, exists := reg.Get(step.Operation); exists {
			continue
		}
		if err := reg.Register(declaredOp{name: step.Operation}); err != nil {
			return nil, nil, err
		}
	}

	p, err := m.Build(reg)
	if err != nil {
		return nil, nil, err
	}
	return m, p, nil
}

func runPipelineValidate(cmd *cobra.Command, args []string) error {
	m, p, err := buildFromManifest(args[0])
	if err != nil {
		return err
	}
	pterm.Success.Printf("Manifest %q is valid: %d steps, inputs %v, outputs %v\n",
		m.Name, len(p.Steps()), p.InputKeys(), p.OutputKeys())
	return nil
}

func runPipelineShow(cmd *cobra.Command, args []string) error {
	m, p, err := buildFromManifest(args[0])
	if err != nil {
		return err
	}

	pterm.Printf("Pipeline %s\n", pterm.LightCyan(m.Name))
	table := pterm.TableData{
		{"Step", "Inputs", "Outputs", "Fail-fast"},
	}
	for _, step := range p.Steps() {
		failFast := ""
		if step.FailFast {
			failFast = "yes"
		}
		table = append(table, []string{
			step.Operation.Descriptor().Name,
			fmt.Sprintf("%v", step.InputKeys),
			fmt.Sprintf("%v", step.OutputKeys),
			failFast,
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(table).Render()
}
