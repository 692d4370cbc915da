package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/rockybot/internal/core/domain"
)

func TestIngestCmd_RequiresURL(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, _, err := runCommand(t, "", "ingest")

	assert.Error(t, err)
}

func TestIngestCmd_Success(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.ingest.report = &domain.IngestReport{
		Documents:  2,
		Chunks:     7,
		Path:       "/tmp/index.rkb",
		Model:      "nomic-embed-text",
		Dimensions: 768,
		Failures: []domain.FetchError{
			{URL: "https://bad.example", Err: errors.New("status 404")},
		},
	}

	out, errOut, err := runCommand(t, "", "ingest", "--chunk-size", "500",
		"https://a.example", "https://b.example", "https://bad.example")

	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example", "https://b.example", "https://bad.example"}, ts.ingest.urls)
	assert.Equal(t, 500, ts.ingest.opts.ChunkSize)

	assert.Contains(t, out, "Loading data from URLs...")
	assert.Contains(t, out, "Splitting text into chunks...")
	assert.Contains(t, out, "Building embedding vectors...")
	assert.Contains(t, out, "Saving index...")
	assert.Contains(t, out, "Indexed 7 chunks from 2 documents into /tmp/index.rkb")
	assert.Contains(t, out, "nomic-embed-text (768 dimensions)")

	assert.Contains(t, errOut, "Skipped 1 URL(s):")
	assert.Contains(t, errOut, "https://bad.example: status 404")
}

func TestIngestCmd_IndexFlag(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.ingest.report = &domain.IngestReport{Path: "/data/other.rkb"}

	_, _, err := runCommand(t, "", "ingest", "--index", "/data/other.rkb", "https://a.example")

	require.NoError(t, err)
	assert.Equal(t, "/data/other.rkb", ts.ingest.opts.Path)
}

func TestIngestCmd_Failure(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.ingest.report = &domain.IngestReport{
		Failures: []domain.FetchError{{URL: "https://a.example", Err: errors.New("timeout")}},
	}
	ts.ingest.err = domain.NewStageError(domain.StageLoading, "", domain.ErrEmptyInput)

	_, errOut, err := runCommand(t, "", "ingest", "https://a.example")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmptyInput)
	assert.Contains(t, err.Error(), "ingestion failed")
	assert.Contains(t, errOut, "https://a.example: timeout")
}
