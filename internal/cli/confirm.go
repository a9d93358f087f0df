package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/peterh/liner"
)

var errPromptAborted = errors.New("prompt aborted")

// promptConfirm asks a yes/no question. On a terminal it uses liner so the
// answer can be edited; otherwise it reads one line from the IO's input.
// No answer, EOF or anything but y/yes means no.
func promptConfirm(ctx context.Context, o *IO, prompt string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	if isTerminal(o.In()) {
		return promptLiner(prompt)
	}

	return promptReader(o, prompt)
}

func promptLiner(prompt string) (bool, error) {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)

	answer, err := line.Prompt(prompt)
	if err != nil {
		if errors.Is(err, liner.ErrPromptAborted) {
			return false, errPromptAborted
		}

		if errors.Is(err, io.EOF) {
			return false, nil
		}

		return false, fmt.Errorf("read answer: %w", err)
	}

	return isYes(answer), nil
}

func promptReader(o *IO, prompt string) (bool, error) {
	o.ErrPrintf("%s", prompt)

	in := o.In()
	if in == nil {
		o.ErrPrintln()

		return false, nil
	}

	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("read answer: %w", err)
	}

	return isYes(answer), nil
}

func isYes(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
