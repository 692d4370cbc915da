package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/rockybot/internal/core/domain"
)

var goalsCmd = &cobra.Command{
	Use:   "goals",
	Short: "Manage today's training goals",
	Long:  `Goals belong to the current day. A new day starts with an empty list.`,
}

var goalsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List today's goals",
	Args:  cobra.NoArgs,
	RunE:  runGoalsList,
}

var goalsAddCmd = &cobra.Command{
	Use:   "add TEXT",
	Short: "Add a goal for today",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runGoalsAdd,
}

var goalsDoneCmd = &cobra.Command{
	Use:   "done N",
	Short: "Mark goal N as completed",
	Args:  cobra.ExactArgs(1),
	RunE:  runGoalsDone,
}

func init() {
	goalsCmd.AddCommand(goalsListCmd, goalsAddCmd, goalsDoneCmd)
	rootCmd.AddCommand(goalsCmd)
}

func runGoalsList(cmd *cobra.Command, _ []string) error {
	if err := requireService(sessionService, "session"); err != nil {
		return err
	}

	goals, err := sessionService.Goals(cmd.Context(), sessionName)
	if err != nil {
		return err
	}
	if len(goals) == 0 {
		cmd.Println("No goals for today.")
		return nil
	}

	done := 0
	for i, g := range goals {
		mark := " "
		if g.Completed {
			mark = "x"
			done++
		}
		cmd.Printf("  %d. [%s] %s\n", i+1, mark, g.Text)
	}
	cmd.Printf("\n%d of %d completed\n", done, len(goals))
	return nil
}

func runGoalsAdd(cmd *cobra.Command, args []string) error {
	if err := requireService(sessionService, "session"); err != nil {
		return err
	}

	text := strings.Join(args, " ")
	if err := sessionService.AddGoal(cmd.Context(), sessionName, text); err != nil {
		return err
	}
	cmd.Printf("Added goal: %s\n", strings.TrimSpace(text))
	return nil
}

func runGoalsDone(cmd *cobra.Command, args []string) error {
	if err := requireService(sessionService, "session"); err != nil {
		return err
	}

	n, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("%w: goal number must be an integer", domain.ErrInvalidInput)
	}
	if err := sessionService.CompleteGoal(cmd.Context(), sessionName, n-1); err != nil {
		return err
	}
	cmd.Printf("Completed goal %d\n", n)
	return nil
}
