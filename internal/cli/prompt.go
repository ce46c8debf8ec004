package cli

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Prompter reads line answers from an interactive player.
type Prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

// NewPrompter reads from in and writes prompts to out.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewScanner(in), out: out}
}

// Ask prints prompt and returns the trimmed answer. The end of input is
// reported as io.EOF.
func (p *Prompter) Ask(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(p.in.Text()), nil
}

// Say prints one line.
func (p *Prompter) Say(format string, args ...any) {
	fmt.Fprintf(p.out, format+"\n", args...)
}

// Seed asks for a run seed until the answer is blank or an integer. Blank
// returns nil.
func (p *Prompter) Seed(prompt string) (*int64, error) {
	for {
		answer, err := p.Ask(prompt)
		if err != nil {
			return nil, err
		}
		if answer == "" {
			return nil, nil
		}
		n, err := strconv.ParseInt(answer, 10, 64)
		if err != nil {
			p.Say("The seed must be an integer")
			continue
		}
		return &n, nil
	}
}

// parseInts splits a whitespace or comma separated list of integers.
func parseInts(s string) ([]int, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' })
	out := make([]int, 0, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", f)
		}
		out = append(out, n)
	}
	return out, nil
}

// inputError converts the end of input into a command error.
func inputError(err error) error {
	if err == io.EOF {
		return NewExitError(ExitCommandError, "input ended before the game started")
	}
	return WrapExitError(ExitCommandError, "failed to read input", err)
}
