// Package display renders run reports and command output for the terminal,
// with a JSON mode for scripting.
package display

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/clinpipe/clinpipe/pipeline"
)

// ShouldOutputJSON determines if a command should output JSON based on the
// --json flag (local or global).
func ShouldOutputJSON(cmd *cobra.Command) bool {
	if cmd == nil {
		return false
	}
	if cmd.Flags().Changed("json") {
		jsonFlag, _ := cmd.Flags().GetBool("json")
		return jsonFlag
	}
	globalFlag, _ := cmd.Root().PersistentFlags().GetBool("json")
	return globalFlag
}

// RenderRunReport prints a run report, as JSON when requested, otherwise as
// pretty terminal output.
func RenderRunReport(cmd *cobra.Command, report *pipeline.RunReport) error {
	if ShouldOutputJSON(cmd) {
		return OutputJSON(report)
	}
	renderRunReportPretty(report)
	return nil
}

func renderRunReportPretty(report *pipeline.RunReport) {
	pterm.Printf("Processed %s documents in %s\n",
		pterm.LightCyan(fmt.Sprintf("%d", len(report.Docs))),
		report.Duration.Round(0))

	table := pterm.TableData{
		{"Document", "Step", "Succeeded", "Failed"},
	}
	for _, docRep := range report.Docs {
		if docRep.Aborted {
			pterm.Warning.Printf("Document %s aborted: %s\n", docRep.DocID, docRep.Error)
			continue
		}
		for _, step := range docRep.Steps {
			table = append(table, []string{
				docRep.DocID,
				step.Operation,
				fmt.Sprintf("%d", step.Succeeded),
				fmt.Sprintf("%d", step.Failed),
			})
		}
	}
	if len(table) > 1 {
		pterm.DefaultTable.WithHasHeader().WithData(table).Render()
	}

	for _, docRep := range report.Docs {
		for _, step := range docRep.Steps {
			for _, failure := range step.Failures {
				pterm.Warning.Printf("  %s / %s: %s\n", docRep.DocID, step.Operation, failure.Error)
			}
		}
	}

	if report.Failed() == 0 && report.Aborted() == 0 {
		pterm.Success.Printf("All %d items succeeded\n", report.Succeeded())
	} else {
		pterm.Info.Printf("%d succeeded, %d failed, %d documents aborted\n",
			report.Succeeded(), report.Failed(), report.Aborted())
	}
}
