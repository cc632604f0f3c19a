package tui

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// ParseYesNo interprets a free-form reply. Anything starting with y or n
// counts; everything else means "ask again".
func ParseYesNo(reply string) (value bool, ok bool) {
	lower := strings.ToLower(strings.TrimSpace(reply))
	switch {
	case strings.HasPrefix(lower, "y"):
		return true, true
	case strings.HasPrefix(lower, "n"):
		return false, true
	default:
		return false, false
	}
}

// AskYesNo prompts on w and reads replies from r until one parses. EOF on r
// is treated as no.
func AskYesNo(r io.Reader, w io.Writer, prompt string) bool {
	scanner := bufio.NewScanner(r)
	for {
		fmt.Fprintf(w, "%s [y/n] ", prompt)
		if !scanner.Scan() {
			fmt.Fprintln(w)
			return false
		}
		if value, ok := ParseYesNo(scanner.Text()); ok {
			return value
		}
	}
}
