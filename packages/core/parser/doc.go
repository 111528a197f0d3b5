// Package parser turns a plain-text request document into request descriptors.
//
// A document is a sequence of blocks. Each block is terminated by a line that
// starts with an HTTP method keyword:
//
//	https://api.example.com
//	Content-Type: application/json
//	{
//	    "name": "value"
//	}
//	POST /users
//
// The first line of a block is the base host, the terminator carries the method
// and the path, and the lines in between are headers and an optional body.
// Blank lines and lines starting with # are ignored.
//
// Parsing happens in three stages:
//   - FilterLines drops blank and comment lines, keeping original line numbers
//   - Segment splits the surviving lines into blocks at method lines
//   - ParseBlock builds a Request from one block or returns a *ParseError
//
// A malformed block never stops the rest of the document from being parsed.
package parser
