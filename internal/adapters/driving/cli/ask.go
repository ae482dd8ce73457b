package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

var askSession string

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about the indexed documents",
	Long: `Answers a question from the indexed documents and lists the source files.

With no argument, starts an interactive loop. Earlier questions in the loop
are remembered as conversation context. Type "exit" or "quit" to leave.`,
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askSession, "session", "s", domain.DefaultSessionID, "conversation session id")
	rootCmd.AddCommand(askCmd)
}

// stdin is swapped in tests.
var stdin io.Reader = os.Stdin

func runAsk(cmd *cobra.Command, args []string) error {
	app, cleanup, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer cleanup()
	if app.Query == nil {
		return fmt.Errorf("%w: configure an LLM provider to ask questions", domain.ErrLLMUnavailable)
	}
	ctx := commandContext(cmd)

	if len(args) > 0 {
		return askOnce(ctx, cmd, app.Query, strings.Join(args, " "))
	}
	return askLoop(ctx, cmd, app.Query)
}

func askOnce(ctx context.Context, cmd *cobra.Command, query driving.QueryService, question string) error {
	answer, err := query.Answer(ctx, askSession, question)
	if err != nil {
		return err
	}
	printAnswer(cmd, answer)
	return nil
}

// askLoop reads questions line by line until exit, quit, or end of input.
// Errors are reported and the loop continues.
func askLoop(ctx context.Context, cmd *cobra.Command, query driving.QueryService) error {
	interactive := isTerminal(stdin)
	if interactive {
		cmd.Println("Ready. Ask a question (or type 'exit' to quit):")
		cmd.Println()
	}

	scanner := bufio.NewScanner(stdin)
	for {
		if interactive {
			cmd.Print("Your question: ")
		}
		if !scanner.Scan() {
			return scanner.Err()
		}

		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if lower := strings.ToLower(question); lower == "exit" || lower == "quit" {
			if interactive {
				cmd.Println("Bye.")
			}
			return nil
		}

		answer, err := query.Answer(ctx, askSession, question)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, domain.ErrInvalidInput) {
				continue
			}
			cmd.Printf("[!] Error: %v\n\n", err)
			continue
		}
		printAnswer(cmd, answer)
	}
}

func printAnswer(cmd *cobra.Command, answer *domain.Answer) {
	cmd.Println()
	cmd.Println("Answer:")
	cmd.Println(answer.Text)
	if len(answer.Sources) > 0 {
		cmd.Println()
		cmd.Println("Sources:")
		for _, src := range answer.Sources {
			cmd.Printf("- %s\n", src)
		}
	}
	cmd.Println()
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
