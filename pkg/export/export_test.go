package export

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset(rows int) Dataset {
	data := Dataset{Title: "Proposal", Headers: []string{"therapist", "client", "start", "score"}}
	for i := 0; i < rows; i++ {
		data.Rows = append(data.Rows, map[string]string{
			"therapist": fmt.Sprintf("t%d", i),
			"client":    "c1",
			"start":     "2024-01-01T09:00:00Z",
		})
	}
	return data
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset(2))
	require.NoError(t, err)
	assert.Equal(t, "therapist,client,start,score\nt0,c1,2024-01-01T09:00:00Z,\nt1,c1,2024-01-01T09:00:00Z,\n", string(out))

	_, err = NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFExporterRenderPaginates(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDataset(120))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))

	_, err = NewPDFExporter().Render(Dataset{Title: "empty"})
	assert.Error(t, err)
}

func TestRenderersDescribeThemselves(t *testing.T) {
	var r Renderer = NewCSVExporter()
	assert.Equal(t, "csv", r.Extension())
	r = NewPDFExporter()
	assert.Equal(t, "application/pdf", r.ContentType())
}
