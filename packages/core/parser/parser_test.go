package parser

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// block builds a Block numbering lines from 1, the way a document without
// comments would be numbered.
func block(method Method, lines ...string) Block {
	b := Block{Method: method}
	for i, text := range lines {
		b.Lines = append(b.Lines, SourceLine{Text: text, Number: i + 1})
	}
	return b
}

func TestParseBlock_Get(t *testing.T) {
	req, err := ParseBlock(block(MethodGet, "https://example.com", "GET /route"))
	require.NoError(t, err)

	assert.Equal(t, MethodGet, req.Method)
	assert.Equal(t, "https://example.com/route", req.URI)
	assert.Empty(t, req.Headers)
	assert.False(t, req.HasBody())
	assert.Equal(t, 2, req.Line)
}

func TestParseBlock_URIIsNotNormalized(t *testing.T) {
	tests := []struct {
		name     string
		host     string
		line     string
		expected string
	}{
		{"no slash inserted", "https://example.com", "GET route", "https://example.com" + "route"},
		{"double slash kept", "https://example.com/", "GET /route", "https://example.com//route"},
		{"query kept", "http://localhost:8080", "GET /search?q=a&b=c", "http://localhost:8080/search?q=a&b=c"},
		{"full path on host line", "https://example.com/api/v1", "DELETE /items/7", "https://example.com/api/v1/items/7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ok := matchMethod(tt.line)
			require.True(t, ok)
			req, err := ParseBlock(block(m, tt.host, tt.line))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, req.URI)
		})
	}
}

func TestParseBlock_MissingLocation(t *testing.T) {
	for _, terminator := range []string{"PUT ", "PUT", "PUT    "} {
		_, err := ParseBlock(block(MethodPut, "http://localhost:8080", terminator))
		require.Error(t, err)

		var pe *ParseError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, KindMissingLocation, pe.Kind)
		assert.Equal(t, 2, pe.Line)
		assert.ErrorIs(t, err, ErrMissingLocation)
		assert.Equal(t, "Error (line 2): expected location", err.Error())
	}
}

func TestParseBlock_Post(t *testing.T) {
	req, err := ParseBlock(block(MethodPost,
		"http://localhost",
		"Content-Type: application/json",
		"{",
		`    "key": "value"`,
		"}",
		"POST /",
	))
	require.NoError(t, err)

	assert.Equal(t, MethodPost, req.Method)
	assert.Equal(t, "http://localhost/", req.URI)
	require.Len(t, req.Headers, 1)
	assert.Equal(t, "Content-Type", req.Headers[0].Name)
	assert.Equal(t, "application/json", req.Headers[0].Value)
	assert.Equal(t, 2, req.Headers[0].Line)
	assert.Equal(t, `{    "key": "value"}`, req.Body)
	assert.True(t, req.HasBody())
}

func TestParseBlock_SingleLineBody(t *testing.T) {
	req, err := ParseBlock(block(MethodPatch,
		"http://localhost",
		`{"enabled": true}`,
		"Accept: application/json",
		"PATCH /flags/1",
	))
	require.NoError(t, err)

	assert.Equal(t, `{"enabled": true}`, req.Body)
	require.Len(t, req.Headers, 1)
	assert.Equal(t, "Accept", req.Headers[0].Name)
}

func TestParseBlock_NestedBodyEndsEarly(t *testing.T) {
	req, err := ParseBlock(block(MethodPost,
		"http://localhost",
		"{",
		`"inner": {"a":1}`,
		`"b": 2`,
		"POST /",
	))
	require.NoError(t, err)

	// The inner closing brace ends the body; the next line becomes a header.
	assert.Equal(t, `{"inner": {"a":1}`, req.Body)
	require.Len(t, req.Headers, 1)
	assert.Equal(t, `"b"`, req.Headers[0].Name)
	assert.Equal(t, "2", req.Headers[0].Value)
}

func TestParseBlock_NestedBodyClosingBraceIsInvalidHeader(t *testing.T) {
	_, err := ParseBlock(block(MethodPost,
		"http://localhost",
		"{",
		`    "inner": {"a":1}`,
		`    "b": 2`,
		"}",
		"POST /",
	))

	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, KindInvalidHeader, pe.Kind)
	assert.Equal(t, 5, pe.Line)
}

func TestParseBlock_InvalidHeader(t *testing.T) {
	_, err := ParseBlock(block(MethodDelete,
		"https://www.example.com",
		"Content-Type: text/html",
		"other header",
		"DELETE /api/thing",
	))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidHeader)
	assert.Equal(t, "Error (line 3): invalid header syntax", err.Error())
}

func TestParseBlock_Headers(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		wantName string
		want     string
		wantErr  bool
	}{
		{"simple", "Accept: */*", "Accept", "*/*", false},
		{"no space after colon", "Accept:*/*", "Accept", "*/*", false},
		{"value keeps later colons", "Host: localhost:8080", "Host", "localhost:8080", false},
		{"empty value", "X-Empty:", "X-Empty", "", false},
		{"whitespace value", "X-Empty:   ", "X-Empty", "", false},
		{"tab before value", "X-Tab:\tvalue", "X-Tab", "value", false},
		{"missing colon", "Accept application/json", "", "", true},
		{"empty name", ": value", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := ParseBlock(block(MethodGet, "http://localhost", tt.line, "GET /"))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidHeader)
				return
			}
			require.NoError(t, err)
			require.Len(t, req.Headers, 1)
			assert.Equal(t, tt.wantName, req.Headers[0].Name)
			assert.Equal(t, tt.want, req.Headers[0].Value)
		})
	}
}

func TestParseBlock_DuplicateHeadersRetained(t *testing.T) {
	req, err := ParseBlock(block(MethodGet,
		"http://localhost",
		"Accept: text/html",
		"Accept: application/json",
		"GET /",
	))
	require.NoError(t, err)
	require.Len(t, req.Headers, 2)
	assert.Equal(t, "text/html", req.Headers[0].Value)
	assert.Equal(t, "application/json", req.Headers[1].Value)
}

func TestParseBlock_InvalidMethod(t *testing.T) {
	_, err := ParseBlock(block(Method("TRACE"), "http://localhost", "TRACE /"))

	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, KindInvalidMethod, pe.Kind)
	assert.Equal(t, "TRACE", pe.Token)
	assert.Equal(t, 2, pe.Line)
	assert.Equal(t, "Error (line 2): invalid method: TRACE", err.Error())
}

func TestParseError_UnknownKind(t *testing.T) {
	err := &ParseError{Kind: ErrorKind(42), Line: 7}

	assert.NotPanics(t, func() { _ = err.Error() })
	assert.Equal(t, "Error (line 7): malformed block", err.Error())
	assert.Equal(t, "unknown", err.Kind.String())
	assert.False(t, errors.Is(err, ErrInvalidHeader))
}

func TestParseBlock_MissingHost(t *testing.T) {
	_, err := ParseBlock(block(MethodGet, "GET /lonely"))
	assert.ErrorIs(t, err, ErrMissingHost)
}

func TestFilterLines(t *testing.T) {
	input := "# comment\n\nhttp://localhost\n   \n  # indented comment\r\nAccept: */*\r\nGET /\n"

	lines := slices.Collect(FilterLines(input))
	assert.Equal(t, []SourceLine{
		{Text: "http://localhost", Number: 3},
		{Text: "Accept: */*", Number: 6},
		{Text: "GET /", Number: 7},
	}, lines)
}

func TestFilterLines_StopsEarly(t *testing.T) {
	count := 0
	for range FilterLines("a\nb\nc\n") {
		count++
		if count == 2 {
			break
		}
	}
	assert.Equal(t, 2, count)
}

func TestSegment(t *testing.T) {
	input := `leading junk
https://a.example.com
GET /one
https://b.example.com
Accept: */*
POST /two
trailing junk`

	blocks := Segment(FilterLines(input))
	require.Len(t, blocks, 2)

	assert.Equal(t, MethodGet, blocks[0].Method)
	require.Len(t, blocks[0].Lines, 3)
	assert.Equal(t, "leading junk", blocks[0].First().Text)

	assert.Equal(t, MethodPost, blocks[1].Method)
	require.Len(t, blocks[1].Lines, 3)
	assert.Equal(t, "https://b.example.com", blocks[1].First().Text)
	assert.Equal(t, 6, blocks[1].Last().Number)
}

func TestSegment_PrefixMatch(t *testing.T) {
	for _, m := range Methods {
		blocks := Segment(FilterLines("http://localhost\n" + string(m) + "X /path"))
		require.Len(t, blocks, 1, m)
		assert.Equal(t, m, blocks[0].Method)
	}
}

func TestSegment_OnlyCommentsAndBlanks(t *testing.T) {
	inputs := []string{
		"",
		"\n\n\n",
		"# one\n# two\n",
		"   \n# GET /not-a-request\n\t\n",
	}
	for _, input := range inputs {
		assert.Empty(t, Segment(FilterLines(input)), "input %q", input)
	}
}

func TestParse_ErrorIsolation(t *testing.T) {
	input := `# users api
https://www.example.com
Content-Type: text/html
other header
DELETE /api/thing

https://www.example.com
Accept: application/json
GET /api/thing
`

	outcomes := Parse(input, "")
	require.Len(t, outcomes, 2)

	require.Error(t, outcomes[0].Err)
	assert.ErrorIs(t, outcomes[0].Err, ErrInvalidHeader)
	assert.Equal(t, "Error (line 4): invalid header syntax", outcomes[0].Err.Error())
	assert.Equal(t, 5, outcomes[0].Line)

	require.True(t, outcomes[1].OK())
	assert.Equal(t, MethodGet, outcomes[1].Request.Method)
	assert.Equal(t, "https://www.example.com/api/thing", outcomes[1].Request.URI)
	assert.Equal(t, 1, outcomes[1].Index)
}

func TestParse_LineNumbersCountSkippedLines(t *testing.T) {
	input := "# header comment\n\nhttp://localhost:8080\n# between\nPUT \n"

	outcomes := Parse(input, "api.http")
	require.Len(t, outcomes, 1)

	var pe *ParseError
	require.ErrorAs(t, outcomes[0].Err, &pe)
	assert.Equal(t, 5, pe.Line)
	assert.Equal(t, "api.http", pe.File)
	assert.Equal(t, "api.http: Error (line 5): expected location", pe.Error())
}

func TestParse_Idempotent(t *testing.T) {
	input := `http://localhost
X-A: 1
{
"a": 1
}
POST /a
http://localhost
broken
GET /b
http://localhost
HEAD /c`

	first := Parse(input, "doc.http")
	second := Parse(input, "doc.http")
	assert.Equal(t, first, second)
	require.Len(t, first, 3)
	assert.True(t, first[0].OK())
	assert.False(t, first[1].OK())
	assert.True(t, first[2].OK())
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "api.http")
	require.NoError(t, os.WriteFile(path, []byte("https://example.com\nGET /route\n"), 0644))

	outcomes, err := ParseFile(path)
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.Equal(t, "https://example.com/route", outcomes[0].Request.URI)
}

func TestParseFile_Missing(t *testing.T) {
	_, err := ParseFile(filepath.Join(t.TempDir(), "missing.http"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
