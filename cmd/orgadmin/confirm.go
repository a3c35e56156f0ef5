package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/iota-uz/orgadmin/modules/orgs/services"
)

// stdinConfirmer asks on out and reads one answer line from in.
type stdinConfirmer struct {
	in  *bufio.Reader
	out io.Writer
}

func newStdinConfirmer(in io.Reader, out io.Writer) *stdinConfirmer {
	return &stdinConfirmer{in: bufio.NewReader(in), out: out}
}

func (c *stdinConfirmer) Confirm(ctx context.Context, prompt string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	fmt.Fprintf(c.out, "%s [s/N]: ", prompt)
	line, err := c.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "s", "si", "sí", "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func alwaysConfirm() services.Confirmer {
	return services.ConfirmFunc(func(context.Context, string) (bool, error) { return true, nil })
}
