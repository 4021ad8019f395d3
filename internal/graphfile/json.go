package graphfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/tmaxmax/route/internal/graph"
)

// FromJSON reads a graph from a JSON document:
//
//	{"towns": ["A"], "routes": [{"from": "A", "to": "B", "distance": 5}]}
//
// Unknown fields and anything after the document are rejected.
func FromJSON(r io.Reader) (*graph.Graph, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var def definition
	if err := dec.Decode(&def); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			return nil, &ParseError{Explanation: fmt.Sprintf("malformed JSON at offset %d", syntaxErr.Offset), Reason: err}
		}
		return nil, &ParseError{Reason: err}
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, &ParseError{Explanation: "unexpected data after the graph definition"}
	}

	return def.build()
}
