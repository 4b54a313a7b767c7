package provision

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// maxAttempts bounds invalid answers to a single yes/no question.
const maxAttempts = 3

// Asker obtains an answer to a question from the operator.
type Asker interface {
	Ask(prompt string) (string, error)
}

// AskerFunc adapts a function to the Asker interface.
type AskerFunc func(prompt string) (string, error)

func (f AskerFunc) Ask(prompt string) (string, error) {
	return f(prompt)
}

// LineAsker writes prompts to out and reads one line per answer from in.
type LineAsker struct {
	in  *bufio.Reader
	out io.Writer
}

func NewLineAsker(in io.Reader, out io.Writer) *LineAsker {
	return &LineAsker{in: bufio.NewReader(in), out: out}
}

func (a *LineAsker) Ask(prompt string) (string, error) {
	fmt.Fprint(a.out, prompt, " ")
	line, err := a.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// confirm asks a yes/no question. It returns nil on "y". A "n" aborts at once
// with KindDeclined; three answers that are neither abort with KindRetriesExhausted.
// abort is the message carried by the returned error.
func (c *Configurator) confirm(question, abort string) error {
	for attempt := 1; ; attempt++ {
		answer, err := c.asker.Ask(question)
		if err != nil {
			return newError(KindRetriesExhausted, err, "%s", abort)
		}

		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "y":
			return nil
		case "n":
			c.logger.Debug("operator declined", slog.String("question", question))
			return newError(KindDeclined, nil, "%s", abort)
		}

		c.logger.Debug("invalid answer", slog.String("answer", answer), slog.Int("attempt", attempt))
		if attempt >= maxAttempts {
			return newError(KindRetriesExhausted, nil, "%s", abort)
		}
		fmt.Fprintln(c.out, "Please choose yes or no with a 'y' or 'n'.")
	}
}
