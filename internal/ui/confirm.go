package ui

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Confirm prints question and reads a yes/no answer from in. Anything other
// than "y" or "yes" (case-insensitive), including EOF, is a no.
func Confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprint(out, WarningTitleStyle.Render(question+" [y/N]: "))

	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && answer == "" {
		fmt.Fprintln(out)
		return false
	}

	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	fmt.Fprintln(out, MutedStyle.Render("  Operation cancelled."))
	return false
}
