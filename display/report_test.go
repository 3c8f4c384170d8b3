package display

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinpipe/clinpipe/pipeline"
)

func TestMarshalRunReport(t *testing.T) {
	report := &pipeline.RunReport{
		StartedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Duration:  2 * time.Second,
		Docs: []pipeline.DocReport{
			{
				DocID: "doc-1",
				Steps: []pipeline.StepReport{
					{Operation: "sentence-splitter", Succeeded: 3},
					{Operation: "negation-detector", Succeeded: 2, Failed: 1,
						Failures: []pipeline.ItemFailure{{ItemID: "seg-9", Error: "boom"}}},
				},
			},
		},
	}

	data, err := MarshalJSON(report)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	docs, ok := decoded["docs"].([]interface{})
	require.True(t, ok)
	require.Len(t, docs, 1)

	assert.Equal(t, 5, report.Succeeded())
	assert.Equal(t, 1, report.Failed())
	assert.Equal(t, 0, report.Aborted())
}

func TestShouldOutputJSON(t *testing.T) {
	root := &cobra.Command{Use: "clinpipe"}
	root.PersistentFlags().Bool("json", false, "")
	child := &cobra.Command{Use: "run"}
	child.Flags().Bool("json", false, "")
	root.AddCommand(child)

	assert.False(t, ShouldOutputJSON(child))

	require.NoError(t, child.Flags().Set("json", "true"))
	assert.True(t, ShouldOutputJSON(child))

	assert.False(t, ShouldOutputJSON(nil))
}
