package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/rockybot/internal/core/domain"
	"github.com/custodia-labs/rockybot/internal/logger"
)

var chatReset bool

var chatCmd = &cobra.Command{
	Use:   "chat [MESSAGE]",
	Short: "Talk to the martial arts coach",
	Long: `Sends MESSAGE to the coach and prints the reply. Without a message,
reads one message per line from stdin until EOF or "exit". The conversation
is kept in the session named by --session.`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().BoolVar(&chatReset, "reset", false, "start a new conversation")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	if err := requireService(chatService, "chat"); err != nil {
		return err
	}
	if err := requireService(sessionService, "session"); err != nil {
		return err
	}

	ctx := cmd.Context()
	if chatReset {
		if err := sessionService.ResetChat(ctx, sessionName); err != nil {
			return err
		}
		cmd.Println("Started a new conversation.")
	}

	session, err := sessionService.Open(ctx, sessionName)
	if err != nil {
		return err
	}

	if len(args) > 0 {
		return sendChat(ctx, cmd, session, strings.Join(args, " "))
	}
	if chatReset && !isTerminal(cmd.InOrStdin()) {
		return nil
	}
	return chatLoop(ctx, cmd, session)
}

func chatLoop(ctx context.Context, cmd *cobra.Command, session *domain.Session) error {
	interactive := isTerminal(cmd.InOrStdin())
	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		if interactive {
			cmd.Print("> ")
		}
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "exit", "quit":
			return nil
		}
		if err := sendChat(ctx, cmd, session, line); err != nil && !errors.Is(err, domain.ErrUpstream) {
			return err
		}
	}
}

// sendChat sends one message and prints the reply. Upstream failures print
// the trouble reply and are returned for the exit status.
func sendChat(ctx context.Context, cmd *cobra.Command, session *domain.Session, message string) error {
	reply, err := chatService.Send(ctx, session, message)
	switch {
	case errors.Is(err, domain.ErrOffTopic):
		cmd.Println(reply)
		return nil
	case errors.Is(err, domain.ErrUpstream):
		logger.Warn("chat: %v", err)
		cmd.Println(domain.TroubleReply)
		return err
	case err != nil:
		return err
	}

	cmd.Println(reply)
	return sessionService.Save(ctx, session)
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
