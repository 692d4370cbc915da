package cli

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/rockybot/internal/adapters/driving/tui"
)

// tuiCmd represents the tui command.
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive terminal UI",
	Long: `Launch the interactive terminal user interface for RockyBot.

The TUI asks questions against the index and chats with the coach.

Controls:
  Tab      - Switch between Ask and Chat
  Enter    - Send
  ↑/k, ↓/j - Scroll
  Esc      - Clear input
  ?        - Toggle help
  Ctrl+C   - Quit`,
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationLongRunning: "true"},
	RunE:        runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	ports := &tui.Ports{
		Answer:   answerService,
		Chat:     chatService,
		Session:  sessionService,
		Settings: settingsService,
	}

	app, err := tui.NewApp(ports)
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}
	app.WithContext(cmd.Context()).WithSession(sessionName)

	if err := app.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
