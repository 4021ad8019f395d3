package graphfile

import (
	"errors"
	"io"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/tmaxmax/route/internal/graph"
)

// FromHCL reads a graph from an HCL document:
//
//	towns = ["A", "B"]
//
//	route "A" "B" {
//	  distance = 5
//	}
//
// The filename is only used in diagnostics and must end in ".hcl".
func FromHCL(r io.Reader, filename string) (*graph.Graph, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, &ParseError{Reason: err}
	}

	var def definition
	if err := hclsimple.Decode(filename, src, nil, &def); err != nil {
		pe := &ParseError{Reason: err}

		var diags hcl.Diagnostics
		if errors.As(err, &diags) {
			for _, d := range diags {
				if d.Severity == hcl.DiagError && d.Subject != nil {
					pe.Line = d.Subject.Start.Line
					break
				}
			}
		}

		return nil, pe
	}

	return def.build()
}
