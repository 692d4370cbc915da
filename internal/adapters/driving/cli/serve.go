package cli

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/rockybot/internal/adapters/driving/api"
	"github.com/custodia-labs/rockybot/internal/logger"
)

const shutdownTimeout = 5 * time.Second

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	Long: `Serves ingestion and question answering over HTTP.

  GET  /check/healthy
  POST /api/v1/ingest   {"urls": [...], "chunk_size": 1000}
  POST /api/v1/ask      {"question": "...", "k": 4, "degrade": false}
  GET  /api/v1/index`,
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationLongRunning: "true"},
	RunE:        runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	server, err := api.New(api.Ports{
		Ingest: ingestService,
		Answer: answerService,
	})
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Listen(serveAddr)
	}()
	cmd.Printf("Listening on %s\n", serveAddr)

	select {
	case err := <-errCh:
		return err
	case <-cmd.Context().Done():
	}

	logger.Info("shutting down HTTP API")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}
