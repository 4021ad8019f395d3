package graphfile

import (
	"io"

	"github.com/tmaxmax/route/internal/graph"
	"gopkg.in/yaml.v3"
)

// FromYAML reads a graph from a YAML document with the same fields as
// the JSON format:
//
//	towns: [A]
//	routes:
//	  - {from: A, to: B, distance: 5}
func FromYAML(r io.Reader) (*graph.Graph, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var def definition
	if err := dec.Decode(&def); err != nil {
		if err == io.EOF {
			return nil, &ParseError{Explanation: "empty document"}
		}
		return nil, &ParseError{Reason: err}
	}

	var extra yaml.Node
	if err := dec.Decode(&extra); err != io.EOF {
		return nil, &ParseError{Explanation: "only one document is allowed", Reason: err}
	}

	return def.build()
}
