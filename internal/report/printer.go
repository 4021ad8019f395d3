// Package report prints graphs and the answers to their route queries
// using C-like format strings.
package report

import (
	"io"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/tmaxmax/route/internal/graph"
	"github.com/tmaxmax/route/internal/query"
)

// A Report is what a Printer prints: a graph and the answers to the
// queries asked of it.
type Report struct {
	Graph   *graph.Graph
	Answers []query.Answer
}

// ParsePrinterError is returned by ParsePrinter for an invalid format string.
type ParsePrinterError struct {
	// The rest of the format string, starting right after the '%' of the bad verb.
	Format      string
	Explanation string
	Reason      error
}

func (p *ParsePrinterError) Error() string {
	var sb strings.Builder
	sb.WriteString("invalid format string")
	if p.Explanation != "" {
		sb.WriteString(": ")
		sb.WriteString(p.Explanation)
	}
	if p.Format != "" {
		sb.WriteString(" (at %")
		sb.WriteString(p.Format)
		sb.WriteByte(')')
	}
	if p.Reason != nil {
		sb.WriteString(": ")
		sb.WriteString(p.Reason.Error())
	}
	return sb.String()
}

func (p *ParsePrinterError) Unwrap() error {
	return p.Reason
}

// segment is a piece of a parsed format string: either literal text or a verb.
type segment interface {
	appendTo(b []byte, r *Report) []byte
}

type segmentFunc func(b []byte, r *Report) []byte

func (f segmentFunc) appendTo(b []byte, r *Report) []byte { return f(b, r) }

type literal string

func (l literal) appendTo(b []byte, _ *Report) []byte { return append(b, l...) }

// A Printer renders reports as described by its format string.
// It is safe for concurrent use.
type Printer struct {
	segments []segment
	buffers  sync.Pool
}

// Print renders the report and writes it to w in a single Write call.
// It returns the number of bytes written and the error from w, if any.
func (p *Printer) Print(w io.Writer, r *Report) (int, error) {
	bp := p.buffers.Get().(*[]byte)
	defer p.buffers.Put(bp)

	b := (*bp)[:0]
	for _, s := range p.segments {
		b = s.appendTo(b, r)
	}
	*bp = b

	return w.Write(b)
}

// ParsePrinter builds a Printer from a format string. Text is copied as is,
// and '%' introduces one of these verbs:
//
//	%%   a literal percent sign
//	%n   the number of towns
//	%m   the number of links
//	%a   the adjacency matrix, rows and columns in town order
//	%N   the towns, one per line
//	%q   the query answers, as "Output #i: answer" lines
//	%w   the total distance of all links
//	%M   the links, one "from to" per line
//
// w and M accept a distance conversion between the '%' and the verb: a ratio
// the distance is multiplied with (digits and at most one '.', such as 10,
// .5 or 1.6), then an optional rounding mode, one of X (none), F (floor),
// C (ceil) and R (nearest). "%.62RM" prints each link with its distance
// converted from kilometres to miles. M only prints distances when a
// conversion is given.
func ParsePrinter(format string) (*Printer, error) {
	if format == "" {
		return nil, &ParsePrinterError{Explanation: "required to be non-empty"}
	}

	p := &Printer{
		buffers: sync.Pool{
			New: func() interface{} {
				b := make([]byte, 0, 512)
				return &b
			},
		},
	}

	for format != "" {
		text, rest, found := strings.Cut(format, "%")
		if text != "" {
			p.segments = append(p.segments, literal(text))
		}
		if !found {
			break
		}

		s, n, err := parseVerb(rest)
		if err != nil {
			return nil, err
		}
		p.segments = append(p.segments, s)
		format = rest[n:]
	}

	return p, nil
}

// MustParsePrinter is like ParsePrinter but panics if the format string is invalid.
func MustParsePrinter(format string) *Printer {
	p, err := ParsePrinter(format)
	if err != nil {
		panic(err)
	}
	return p
}

var plainVerbs = map[byte]segment{
	'%': literal("%"),
	'n': segmentFunc(appendTownCount),
	'm': segmentFunc(appendLinkCount),
	'a': segmentFunc(appendAdjacency),
	'N': segmentFunc(appendTowns),
	'q': segmentFunc(appendAnswers),
}

// parseVerb parses the verb at the start of s and returns how many bytes it spans.
func parseVerb(s string) (segment, int, error) {
	if s == "" {
		return nil, 0, &ParsePrinterError{Explanation: "unexpected end"}
	}
	if seg, ok := plainVerbs[s[0]]; ok {
		return seg, 1, nil
	}

	conv, n, err := parseConversion(s)
	if err != nil {
		return nil, 0, err
	}
	if n == len(s) {
		return nil, 0, &ParsePrinterError{Format: s, Explanation: "missing verb"}
	}

	switch s[n] {
	case 'w':
		return totalDistance{conv: conv}, n + 1, nil
	case 'M':
		return links{conv: conv, distances: n > 0}, n + 1, nil
	default:
		return nil, 0, &ParsePrinterError{Format: s, Explanation: "invalid verb \"" + s[n:n+1] + "\""}
	}
}

// conversion turns a link distance into the printed value.
type conversion struct {
	ratio float64
	round func(float64) float64
}

func (c conversion) apply(distance int) float64 {
	return c.round(float64(distance) * c.ratio)
}

func noRound(v float64) float64 { return v }

var roundingModes = map[byte]func(float64) float64{
	'X': noRound,
	'F': math.Floor,
	'C': math.Ceil,
	'R': math.Round,
}

func parseConversion(s string) (conversion, int, error) {
	conv := conversion{ratio: 1, round: noRound}

	n := strings.IndexFunc(s, func(r rune) bool {
		return (r < '0' || r > '9') && r != '.'
	})
	if n == -1 {
		n = len(s)
	}
	if n > 0 {
		ratio, err := strconv.ParseFloat(s[:n], 64)
		if err != nil {
			return conv, 0, &ParsePrinterError{Format: s, Explanation: "invalid ratio", Reason: err}
		}
		conv.ratio = ratio
	}

	if n < len(s) {
		if round, ok := roundingModes[s[n]]; ok {
			conv.round = round
			n++
		}
	}

	return conv, n, nil
}

// appendLines calls line for 0 <= i < count, separating the lines with '\n'.
func appendLines(b []byte, count int, line func(b []byte, i int) []byte) []byte {
	for i := 0; i < count; i++ {
		if i > 0 {
			b = append(b, '\n')
		}
		b = line(b, i)
	}
	return b
}

func appendTownCount(b []byte, r *Report) []byte {
	return strconv.AppendInt(b, int64(r.Graph.Order()), 10)
}

func appendLinkCount(b []byte, r *Report) []byte {
	return strconv.AppendInt(b, int64(r.Graph.Size()), 10)
}

func appendAdjacency(b []byte, r *Report) []byte {
	towns := r.Graph.Towns()
	return appendLines(b, len(towns), func(b []byte, i int) []byte {
		for j, to := range towns {
			if j > 0 {
				b = append(b, ' ')
			}
			if _, ok := r.Graph.Distance(towns[i], to); ok {
				b = append(b, '1')
			} else {
				b = append(b, '0')
			}
		}
		return b
	})
}

func appendTowns(b []byte, r *Report) []byte {
	towns := r.Graph.Towns()
	return appendLines(b, len(towns), func(b []byte, i int) []byte {
		return append(b, towns[i]...)
	})
}

func appendAnswers(b []byte, r *Report) []byte {
	return appendLines(b, len(r.Answers), func(b []byte, i int) []byte {
		b = append(b, "Output #"...)
		b = strconv.AppendInt(b, int64(i+1), 10)
		b = append(b, ": "...)
		return append(b, r.Answers[i].Value...)
	})
}

type links struct {
	conv      conversion
	distances bool
}

func (l links) appendTo(b []byte, r *Report) []byte {
	all := r.Graph.Links()
	return appendLines(b, len(all), func(b []byte, i int) []byte {
		b = append(b, all[i].From...)
		b = append(b, ' ')
		b = append(b, all[i].To...)
		if l.distances {
			b = append(b, ' ')
			b = strconv.AppendFloat(b, l.conv.apply(all[i].Distance), 'f', -1, 64)
		}
		return b
	})
}

type totalDistance struct {
	conv conversion
}

func (t totalDistance) appendTo(b []byte, r *Report) []byte {
	return strconv.AppendFloat(b, t.conv.apply(r.Graph.TotalDistance()), 'f', -1, 64)
}
