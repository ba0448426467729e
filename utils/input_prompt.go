package utils

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/meysamhadeli/projctx/constants/lipgloss"
)

// ConfirmPrompt asks a yes/no question and reports whether the answer was yes.
// An empty answer, EOF and cancellation count as no.
func ConfirmPrompt(ctx context.Context, reader *bufio.Reader, out io.Writer, question string) (bool, error) {
	answers := make(chan string, 1)
	errs := make(chan error, 1)

	fmt.Fprint(out, lipgloss.BlueSky.Render(question+" (y/N): "))

	go func() {
		answer, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			errs <- fmt.Errorf("failed to read answer: %w", err)
			return
		}
		answers <- answer
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(out)
		return false, ctx.Err()
	case err := <-errs:
		return false, err
	case answer := <-answers:
		answer = strings.ToLower(strings.TrimSpace(answer))
		return answer == "y" || answer == "yes", nil
	}
}
