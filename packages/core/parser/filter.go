package parser

import (
	"iter"
	"strings"
)

// FilterLines yields the non-blank, non-comment lines of a document in order.
// A trailing carriage return is stripped from every line.
func FilterLines(input string) iter.Seq[SourceLine] {
	return func(yield func(SourceLine) bool) {
		n := 0
		for line := range strings.Lines(input) {
			n++
			line = strings.TrimRight(line, "\r\n")
			if isSkipped(line) {
				continue
			}
			if !yield(SourceLine{Text: line, Number: n}) {
				return
			}
		}
	}
}

func isSkipped(line string) bool {
	trimmed := strings.TrimSpace(line)
	return trimmed == "" || strings.HasPrefix(trimmed, "#")
}
