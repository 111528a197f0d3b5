package http

import (
	"strings"

	"github.com/abdul-hamid-achik/restcli/packages/core/parser"
)

type Header struct {
	Name  string
	Value string
}

// Request is everything the client needs for one call. It is built once and
// never modified while being sent.
type Request struct {
	Method  string
	URL     string
	Headers []Header
	Body    string
}

// BuildRequest converts a parsed request into a transport descriptor.
func BuildRequest(req *parser.Request) *Request {
	headers := make([]Header, 0, len(req.Headers))
	for _, h := range req.Headers {
		headers = append(headers, Header{Name: h.Name, Value: h.Value})
	}
	return &Request{
		Method:  req.Method.String(),
		URL:     req.URI,
		Headers: headers,
		Body:    req.Body,
	}
}

// HasHeader reports whether the request sets name, compared case-insensitively.
func (r *Request) HasHeader(name string) bool {
	for _, h := range r.Headers {
		if strings.EqualFold(h.Name, name) {
			return true
		}
	}
	return false
}

func (r *Request) String() string {
	return r.Method + " " + r.URL
}
