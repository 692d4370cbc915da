package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/rockybot/internal/core/domain"
)

const dateLayout = "2006-01-02"

var (
	trainingActivity string
	trainingMinutes  int
	trainingDate     string
	trainingNotes    string
)

var trainingCmd = &cobra.Command{
	Use:   "training",
	Short: "Log training sessions",
}

var trainingListCmd = &cobra.Command{
	Use:   "list",
	Short: "List logged training sessions",
	Args:  cobra.NoArgs,
	RunE:  runTrainingList,
}

var trainingAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Log a training session",
	Args:  cobra.NoArgs,
	RunE:  runTrainingAdd,
}

func init() {
	trainingAddCmd.Flags().StringVarP(&trainingActivity, "activity", "a", "", "what was trained")
	trainingAddCmd.Flags().IntVarP(&trainingMinutes, "minutes", "m", 0, "session length in minutes")
	trainingAddCmd.Flags().StringVar(&trainingDate, "date", "", "session date as YYYY-MM-DD (default today)")
	trainingAddCmd.Flags().StringVar(&trainingNotes, "notes", "", "optional notes")
	trainingCmd.AddCommand(trainingListCmd, trainingAddCmd)
	rootCmd.AddCommand(trainingCmd)
}

func runTrainingList(cmd *cobra.Command, _ []string) error {
	if err := requireService(sessionService, "session"); err != nil {
		return err
	}

	entries, err := sessionService.TrainingLog(cmd.Context(), sessionName)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		cmd.Println("No training logged.")
		return nil
	}

	total := 0
	for i := range entries {
		e := entries[i]
		cmd.Printf("  %s  %-20s %4d min", e.Date.Format(dateLayout), e.Activity, e.DurationMinutes)
		if e.Notes != "" {
			cmd.Printf("  %s", e.Notes)
		}
		cmd.Println()
		total += e.DurationMinutes
	}
	cmd.Printf("\nTotal: %d sessions, %d minutes\n", len(entries), total)
	return nil
}

func runTrainingAdd(cmd *cobra.Command, _ []string) error {
	if err := requireService(sessionService, "session"); err != nil {
		return err
	}

	entry := domain.TrainingEntry{
		Activity:        trainingActivity,
		DurationMinutes: trainingMinutes,
		Notes:           trainingNotes,
	}
	if trainingDate != "" {
		date, err := time.ParseInLocation(dateLayout, trainingDate, time.Local)
		if err != nil {
			return fmt.Errorf("%w: date must be YYYY-MM-DD", domain.ErrInvalidInput)
		}
		entry.Date = date
	}

	if err := sessionService.LogTraining(cmd.Context(), sessionName, entry); err != nil {
		return err
	}
	cmd.Printf("Logged %d minutes of %s\n", entry.DurationMinutes, entry.Activity)
	return nil
}
