package parser

import "strings"

// SourceLine is a line that survived filtering, with its 1-based line number
// in the original document.
type SourceLine struct {
	Text   string
	Number int
}

// Block is the raw span of one request: host line first, terminator last.
type Block struct {
	Method Method
	Lines  []SourceLine
}

// First returns the host line of the block.
func (b Block) First() SourceLine {
	return b.Lines[0]
}

// Last returns the terminator line of the block.
func (b Block) Last() SourceLine {
	return b.Lines[len(b.Lines)-1]
}

// Interior returns the lines between the host line and the terminator.
func (b Block) Interior() []SourceLine {
	if len(b.Lines) < 3 {
		return nil
	}
	return b.Lines[1 : len(b.Lines)-1]
}

type Method string

const (
	MethodGet     Method = "GET"
	MethodHead    Method = "HEAD"
	MethodOptions Method = "OPTIONS"
	MethodPost    Method = "POST"
	MethodPut     Method = "PUT"
	MethodDelete  Method = "DELETE"
	MethodPatch   Method = "PATCH"
)

// Methods lists the recognized method keywords in match order.
var Methods = []Method{
	MethodOptions,
	MethodDelete,
	MethodPatch,
	MethodHead,
	MethodPost,
	MethodGet,
	MethodPut,
}

func (m Method) String() string {
	return string(m)
}

// Valid reports whether m is one of the recognized keywords.
func (m Method) Valid() bool {
	for _, known := range Methods {
		if m == known {
			return true
		}
	}
	return false
}

// matchMethod reports the keyword text starts with. The test is a literal
// prefix match, so "GETTER /x" is a GET line.
func matchMethod(text string) (Method, bool) {
	for _, m := range Methods {
		if strings.HasPrefix(text, string(m)) {
			return m, true
		}
	}
	return "", false
}

type Header struct {
	Name  string
	Value string
	Line  int
}

// Request is a parsed request descriptor. Headers keep document order and
// duplicates are retained.
type Request struct {
	Method  Method
	URI     string
	Headers []Header
	Body    string
	Line    int
}

// HasBody reports whether the request carries a payload. An empty body is
// the same as no body.
func (r *Request) HasBody() bool {
	return r.Body != ""
}

// Outcome is the result of parsing one block: exactly one of Request and Err
// is set.
type Outcome struct {
	Index   int
	Line    int
	Request *Request
	Err     error
}

// OK reports whether the block parsed cleanly.
func (o Outcome) OK() bool {
	return o.Err == nil
}
