package graphfile

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/tmaxmax/route/internal/graph"
)

const textLabel = "graph:"

// FromText reads a graph written as a list of links, each made of two town
// letters followed by the distance:
//
//	Graph: AB5, BC4, CD8
//
// Links may be separated by commas, spaces or newlines. The "Graph:" label is
// optional, lines starting with '#' are ignored and lines can be of any length.
func FromText(r io.Reader) (*graph.Graph, error) {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	g := graph.New()

	for line := 1; ; line++ {
		raw, readErr := br.ReadString('\n')
		if readErr != nil && readErr != io.EOF {
			return nil, &ParseError{Line: line, Reason: readErr}
		}

		if err := parseTextLine(g, strings.TrimSpace(raw), line); err != nil {
			return nil, err
		}
		if readErr == io.EOF {
			break
		}
	}

	if g.Order() == 0 {
		return nil, &ParseError{Explanation: "no routes defined"}
	}

	return g, nil
}

func parseTextLine(g *graph.Graph, text string, line int) error {
	if strings.HasPrefix(text, "#") {
		return nil
	}
	if len(text) >= len(textLabel) && strings.EqualFold(text[:len(textLabel)], textLabel) {
		text = text[len(textLabel):]
	}

	tokens := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
	for _, tok := range tokens {
		from, to, distance, err := parseTextLink(tok)
		if err != nil {
			return &ParseError{Line: line, Token: tok, Explanation: err.Error()}
		}
		if err := g.AddLink(from, to, distance); err != nil {
			return &ParseError{Line: line, Token: tok, Reason: err}
		}
	}

	return nil
}

type textError string

func (t textError) Error() string { return string(t) }

func parseTextLink(tok string) (string, string, int, error) {
	if len(tok) < 3 {
		return "", "", 0, textError("expected two towns and a distance")
	}
	if !isTownLetter(tok[0]) || !isTownLetter(tok[1]) {
		return "", "", 0, textError("towns must be single letters")
	}

	distance, err := strconv.Atoi(tok[2:])
	if err != nil || tok[2] == '+' || tok[2] == '-' {
		return "", "", 0, textError("distance must be a number")
	}

	return tok[:1], tok[1:2], distance, nil
}

func isTownLetter(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}
