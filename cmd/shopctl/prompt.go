package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// prompt asks on out and reads the answer from in. Anything but y or yes
// declines, including end of input.
type prompt struct {
	in  *bufio.Reader
	out io.Writer
}

func (p prompt) ConfirmReplace(ctx context.Context, message string) bool {
	fmt.Fprintf(p.out, "%s\nEmpty your cart and add this item? [y/N] ", message)
	return p.yes()
}

func (p prompt) yes() bool {
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(p.out)
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

// ask reads one line after printing label.
func (p prompt) ask(label string) string {
	fmt.Fprintf(p.out, "%s: ", label)
	line, _ := p.in.ReadString('\n')
	return strings.TrimSpace(line)
}
