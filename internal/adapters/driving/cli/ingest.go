package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/rockybot/internal/core/domain"
)

var (
	ingestChunkSize int
	ingestIndexPath string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest URL...",
	Short: "Load news articles and build the index",
	Long: `Fetches each URL, splits the article text into chunks, embeds the
chunks and saves a new index. URLs that cannot be fetched are reported and
skipped. The previous index is replaced only when the run succeeds.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().IntVar(&ingestChunkSize, "chunk-size", 0, "maximum chunk length in characters (default from settings)")
	ingestCmd.Flags().StringVar(&ingestIndexPath, "index", "", "index path (default from settings)")
	rootCmd.AddCommand(ingestCmd)
}

// stageMessages are printed as ingestion advances.
var stageMessages = map[domain.Stage]string{
	domain.StageLoading:   "Loading data from URLs...",
	domain.StageChunking:  "Splitting text into chunks...",
	domain.StageEmbedding: "Building embedding vectors...",
	domain.StageIndexing:  "Saving index...",
}

func runIngest(cmd *cobra.Command, args []string) error {
	if err := requireService(ingestService, "ingest"); err != nil {
		return err
	}

	opts := domain.IngestOptions{
		ChunkSize: ingestChunkSize,
		Path:      ingestIndexPath,
		Observer: func(state domain.IngestionState) {
			if msg, ok := stageMessages[state.Current()]; ok {
				cmd.Println(msg)
			}
		},
	}

	report, err := ingestService.Ingest(cmd.Context(), args, opts)
	if report != nil {
		printFailures(cmd, report.Failures)
	}
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	cmd.Printf("Indexed %d chunks from %d documents into %s\n", report.Chunks, report.Documents, report.Path)
	cmd.Printf("  Model: %s (%d dimensions)\n", report.Model, report.Dimensions)
	return nil
}

func printFailures(cmd *cobra.Command, failures []domain.FetchError) {
	if len(failures) == 0 {
		return
	}
	cmd.PrintErrf("Skipped %d URL(s):\n", len(failures))
	for i := range failures {
		cmd.PrintErrf("  %s: %v\n", failures[i].URL, failures[i].Err)
	}
}
