package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/rockybot/internal/core/domain"
)

// Output formats for the ask command.
const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

var (
	askK         int
	askDegrade   bool
	askFormat    string
	askIndexPath string
)

var askCmd = &cobra.Command{
	Use:   "ask QUESTION",
	Short: "Answer a question from the indexed articles",
	Long: `Embeds the question, retrieves the nearest chunks from the index and
asks the LLM to answer using only those chunks. The answer lists the article
URLs it was built from.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().IntVarP(&askK, "top-k", "k", 0, "number of chunks to retrieve (default from settings)")
	askCmd.Flags().BoolVar(&askDegrade, "degrade", false, "show retrieved sources when the LLM fails")
	askCmd.Flags().StringVarP(&askFormat, "format", "f", formatText, "output format: text, json or yaml")
	askCmd.Flags().StringVar(&askIndexPath, "index", "", "index path (default from settings)")
	rootCmd.AddCommand(askCmd)
}

// answerOutput is the serialised form of an answer.
type answerOutput struct {
	Question string        `json:"question" yaml:"question"`
	Answer   string        `json:"answer" yaml:"answer"`
	Sources  []string      `json:"sources" yaml:"sources"`
	Chunks   []chunkOutput `json:"chunks,omitempty" yaml:"chunks,omitempty"`
	Warnings []string      `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

type chunkOutput struct {
	Source   string  `json:"source" yaml:"source"`
	Distance float64 `json:"distance" yaml:"distance"`
	Text     string  `json:"text" yaml:"text"`
}

func runAsk(cmd *cobra.Command, args []string) error {
	if err := requireService(answerService, "answer"); err != nil {
		return err
	}
	switch askFormat {
	case formatText, formatJSON, formatYAML:
	default:
		return fmt.Errorf("%w: unknown format %q", domain.ErrInvalidInput, askFormat)
	}

	question := strings.Join(args, " ")
	answer, err := answerService.Answer(cmd.Context(), question, domain.AskOptions{
		K:       askK,
		Degrade: askDegrade,
		Path:    askIndexPath,
	})
	if err != nil {
		return err
	}

	switch askFormat {
	case formatJSON:
		data, err := json.MarshalIndent(newAnswerOutput(answer), "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal answer: %w", err)
		}
		cmd.Println(string(data))
	case formatYAML:
		data, err := yaml.Marshal(newAnswerOutput(answer))
		if err != nil {
			return fmt.Errorf("failed to marshal answer: %w", err)
		}
		cmd.Print(string(data))
	default:
		outputAnswerText(cmd, answer)
	}
	return nil
}

func newAnswerOutput(a *domain.Answer) answerOutput {
	out := answerOutput{
		Question: a.Question,
		Answer:   a.Text,
		Sources:  a.Sources,
		Warnings: a.Warnings,
	}
	for i := range a.Hits {
		out.Chunks = append(out.Chunks, chunkOutput{
			Source:   a.Hits[i].Entry.Source,
			Distance: a.Hits[i].Distance,
			Text:     a.Hits[i].Entry.Text,
		})
	}
	return out
}

func outputAnswerText(cmd *cobra.Command, a *domain.Answer) {
	for _, w := range a.Warnings {
		cmd.PrintErrf("Warning: %s\n", w)
	}

	if a.Degraded() {
		cmd.Println("No answer generated. Retrieved chunks:")
		cmd.Println()
		for i := range a.Hits {
			cmd.Printf("  [%d] %s (%.3f)\n", i+1, a.Hits[i].Entry.Source, a.Hits[i].Distance)
			cmd.Printf("      %s\n", snippet(a.Hits[i].Entry.Text, 160))
		}
	} else {
		cmd.Println("Answer")
		cmd.Println(a.Text)
	}

	cmd.Println()
	cmd.Println("Sources:")
	for _, src := range a.Sources {
		cmd.Printf("  %s\n", src)
	}
}

// snippet shortens s to at most n runes on a single line.
func snippet(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
