// Package graphfile reads graph-definition files into graphs.
//
// The following formats are supported, chosen by file extension:
//   - text (.txt and anything unknown): links such as "AB5, BC4", optionally
//     prefixed by "Graph:"
//   - XML (.xml): <node id="A"/> and <edge> elements with source, target and cost
//   - JSON (.json), YAML (.yaml, .yml): {"towns": [...], "routes": [{"from", "to", "distance"}]}
//   - HCL (.hcl): an optional towns attribute and route "A" "B" { distance = 5 } blocks
package graphfile

import (
	"bufio"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/tmaxmax/route/internal/graph"
)

type Format string

const (
	FormatText Format = "text"
	FormatXML  Format = "xml"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatHCL  Format = "hcl"
)

// FormatOf returns the format of a graph-definition file based on its extension.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xml":
		return FormatXML
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	case ".hcl":
		return FormatHCL
	default:
		return FormatText
	}
}

// Load opens the file at path and reads a graph from it.
func Load(path string) (*graph.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Read(bufio.NewReader(f), path)
}

// Read reads a graph from r. The path is used to determine the format
// and to annotate errors; the file itself is not opened.
func Read(r *bufio.Reader, path string) (*graph.Graph, error) {
	var (
		g   *graph.Graph
		err error
	)

	switch FormatOf(path) {
	case FormatXML:
		g, err = FromXML(r)
	case FormatJSON:
		g, err = FromJSON(r)
	case FormatYAML:
		g, err = FromYAML(r)
	case FormatHCL:
		g, err = FromHCL(r, filepath.Base(path))
	default:
		g, err = FromText(r)
	}

	var pe *ParseError
	if errors.As(err, &pe) && pe.Path == "" {
		pe.Path = path
	}

	return g, err
}

// definition is the shape shared by the structured formats.
type definition struct {
	Towns  []string   `json:"towns" yaml:"towns" hcl:"towns,optional"`
	Routes []routeDef `json:"routes" yaml:"routes" hcl:"route,block"`
}

type routeDef struct {
	From     string `json:"from" yaml:"from" hcl:"from,label"`
	To       string `json:"to" yaml:"to" hcl:"to,label"`
	Distance int    `json:"distance" yaml:"distance" hcl:"distance"`
}

func (d *definition) build() (*graph.Graph, error) {
	if len(d.Towns) == 0 && len(d.Routes) == 0 {
		return nil, &ParseError{Explanation: "no towns or routes defined"}
	}

	g := graph.New()
	for _, t := range d.Towns {
		if err := g.AddTown(t); err != nil {
			return nil, &ParseError{Token: t, Reason: err}
		}
	}
	for _, r := range d.Routes {
		if err := g.AddLink(r.From, r.To, r.Distance); err != nil {
			return nil, &ParseError{Token: r.From + " -> " + r.To, Reason: err}
		}
	}

	return g, nil
}
