package cli

import (
	"github.com/spf13/cobra"
)

var indexInfoPath string

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Inspect the saved index",
}

var indexInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show how the index was built",
	Args:  cobra.NoArgs,
	RunE:  runIndexInfo,
}

func init() {
	indexInfoCmd.Flags().StringVar(&indexInfoPath, "index", "", "index path (default from settings)")
	indexCmd.AddCommand(indexInfoCmd)
	rootCmd.AddCommand(indexCmd)
}

func runIndexInfo(cmd *cobra.Command, _ []string) error {
	if err := requireService(answerService, "answer"); err != nil {
		return err
	}

	info, err := answerService.Info(cmd.Context(), indexInfoPath)
	if err != nil {
		return err
	}

	cmd.Printf("Index: %s\n", info.Path)
	cmd.Printf("  Model:      %s\n", info.Meta.Model)
	cmd.Printf("  Dimensions: %d\n", info.Meta.Dimensions)
	cmd.Printf("  Metric:     %s\n", info.Meta.Metric)
	cmd.Printf("  Chunk size: %d\n", info.Meta.ChunkSize)
	cmd.Printf("  Entries:    %d\n", info.Entries)
	cmd.Printf("  Created:    %s\n", info.Meta.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	cmd.Println("  Sources:")
	for _, src := range info.Meta.Sources {
		cmd.Printf("    %s\n", src)
	}
	return nil
}
