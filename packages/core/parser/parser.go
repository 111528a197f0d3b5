package parser

import (
	"fmt"
	"os"
	"strings"
)

// ParseFile reads and parses the document at path. The returned error is
// non-nil only when the file cannot be read; block errors are reported per
// Outcome.
func ParseFile(path string) ([]Outcome, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading document: %w", err)
	}
	return Parse(string(content), path), nil
}

// Parse parses every block of input in document order. filename is only used
// to prefix error messages and may be empty.
func Parse(input, filename string) []Outcome {
	blocks := Segment(FilterLines(input))
	outcomes := make([]Outcome, 0, len(blocks))

	for i, block := range blocks {
		req, err := ParseBlock(block)
		if err != nil {
			if pe, ok := err.(*ParseError); ok {
				pe.File = filename
			}
			outcomes = append(outcomes, Outcome{Index: i, Line: block.Last().Number, Err: err})
			continue
		}
		outcomes = append(outcomes, Outcome{Index: i, Line: req.Line, Request: req})
	}

	return outcomes
}

// ParseBlock builds a Request from one block.
func ParseBlock(b Block) (*Request, error) {
	if len(b.Lines) == 0 {
		return nil, newError(KindMissingHost, 0)
	}

	last := b.Last()
	if len(b.Lines) < 2 {
		return nil, newError(KindMissingHost, last.Number)
	}

	uri, err := assembleURI(b.First(), last)
	if err != nil {
		return nil, err
	}

	headerLines, body := partition(b.Interior())

	headers := make([]Header, 0, len(headerLines))
	for _, line := range headerLines {
		h, err := parseHeader(line)
		if err != nil {
			return nil, err
		}
		headers = append(headers, h)
	}

	if !b.Method.Valid() {
		e := newError(KindInvalidMethod, last.Number)
		e.Token = string(b.Method)
		return nil, e
	}

	return &Request{
		Method:  b.Method,
		URI:     uri,
		Headers: headers,
		Body:    body,
		Line:    last.Number,
	}, nil
}

// assembleURI concatenates the host line and the path from the terminator
// without any normalization.
func assembleURI(host, terminator SourceLine) (string, error) {
	_, path, _ := strings.Cut(terminator.Text, " ")
	path = strings.TrimSpace(path)
	if path == "" {
		return "", newError(KindMissingLocation, terminator.Number)
	}
	return host.Text + path, nil
}

// partition splits interior lines into header lines and a body. A body starts
// at a line beginning with "{" and stops at the first line ending with "}".
// Nested objects are not tracked: an inner closing brace at the end of a line
// ends the body early.
func partition(lines []SourceLine) ([]SourceLine, string) {
	var headers []SourceLine
	var body strings.Builder
	inBody := false

	for _, line := range lines {
		trimmed := strings.TrimSpace(line.Text)
		if !inBody && !strings.HasPrefix(trimmed, "{") {
			headers = append(headers, line)
			continue
		}
		body.WriteString(line.Text)
		inBody = !strings.HasSuffix(trimmed, "}")
	}

	return headers, body.String()
}

func parseHeader(line SourceLine) (Header, error) {
	name, value, found := strings.Cut(line.Text, ":")
	name = strings.TrimSpace(name)
	if !found || name == "" {
		return Header{}, newError(KindInvalidHeader, line.Number)
	}
	return Header{
		Name:  name,
		Value: strings.TrimLeft(value, " \t"),
		Line:  line.Number,
	}, nil
}
