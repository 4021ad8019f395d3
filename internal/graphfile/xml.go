package graphfile

import (
	"bufio"
	"math"
	"strconv"
	"strings"

	xmlparser "github.com/tamerh/xml-stream-parser"
	"github.com/tmaxmax/route/internal/graph"
)

const (
	xmlNode = "node"
	xmlEdge = "edge"
)

// FromXML reads a graph from an XML document of the form
//
//	<graph>
//	  <node id="A"/>
//	  <edge directed="yes"><source>A</source><target>B</target><cost>5</cost></edge>
//	</graph>
//
// Edges that are not marked as directed link the towns both ways. Costs
// must be positive whole numbers. The document is streamed, so r can be
// arbitrarily large.
func FromXML(r *bufio.Reader) (*graph.Graph, error) {
	g := graph.New()
	p := xmlparser.NewXMLParser(r, xmlNode, xmlEdge)

	var err error
	for el := range p.Stream() {
		// Keep draining so the parser goroutine can exit.
		if err != nil {
			continue
		}
		if el.Err != nil {
			err = &ParseError{Reason: el.Err}
			continue
		}

		switch el.Name {
		case xmlNode:
			id := strings.TrimSpace(el.Attrs["id"])
			if e := g.AddTown(id); e != nil {
				err = &ParseError{Token: "<node>", Reason: e}
			}
		case xmlEdge:
			err = addXMLEdge(g, el)
		}
	}

	if err != nil {
		return nil, err
	}
	if g.Order() == 0 {
		return nil, &ParseError{Explanation: "no nodes or edges defined"}
	}

	return g, nil
}

func addXMLEdge(g *graph.Graph, el *xmlparser.XMLElement) error {
	src, dst := xmlChildText(el, "source"), xmlChildText(el, "target")
	token := "<edge> " + src + " -> " + dst
	if src == "" || dst == "" {
		return &ParseError{Token: token, Explanation: "edge needs a source and a target"}
	}

	cost, err := strconv.ParseFloat(xmlChildText(el, "cost"), 64)
	if err != nil {
		return &ParseError{Token: token, Explanation: "invalid cost", Reason: err}
	}
	if cost != math.Trunc(cost) || cost > graph.MaxLinkDistance {
		return &ParseError{Token: token, Explanation: "cost must be a whole number"}
	}

	if err := g.AddLink(src, dst, int(cost)); err != nil {
		return &ParseError{Token: token, Reason: err}
	}
	if el.Attrs["directed"] != "yes" {
		if err := g.AddLink(dst, src, int(cost)); err != nil {
			return &ParseError{Token: token, Reason: err}
		}
	}

	return nil
}

func xmlChildText(el *xmlparser.XMLElement, name string) string {
	children := el.Childs[name]
	if len(children) == 0 {
		return ""
	}
	return strings.TrimSpace(children[0].InnerText)
}
