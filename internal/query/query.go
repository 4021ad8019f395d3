// Package query parses route queries and evaluates them against a graph.
//
// A query is a keyword, a dash-separated list of towns and, for trips and
// list, constraints on the routes:
//
//	distance A-B-C
//	trips C-C max-stops=3
//	trips A-C stops=4
//	trips C-C max-distance=30
//	list C-C max-distance=30
//	shortest A-C
package query

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/tmaxmax/route/internal/graph"
)

type Kind int

const (
	// KindDistance asks for the distance of a fixed route.
	KindDistance Kind = iota
	// KindTrips asks for the number of routes between two towns.
	KindTrips
	// KindList asks for the routes between two towns.
	KindList
	// KindShortest asks for the length of the shortest route between two towns.
	KindShortest
)

var kindNames = map[Kind]string{
	KindDistance: "distance",
	KindTrips:    "trips",
	KindList:     "list",
	KindShortest: "shortest",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

const (
	optionStops       = "stops"
	optionMinStops    = "min-stops"
	optionMaxStops    = "max-stops"
	optionMaxDistance = "max-distance"
)

// A Query is a single question about the routes of a graph.
type Query struct {
	Kind  Kind
	Towns []string
	// Only used by KindTrips and KindList.
	Constraints graph.Constraints
}

// String returns the query in the form accepted by Parse.
func (q Query) String() string {
	var sb strings.Builder
	sb.WriteString(q.Kind.String())
	sb.WriteByte(' ')
	sb.WriteString(strings.Join(q.Towns, "-"))

	c := q.Constraints
	if c.MinStops > 0 && c.MinStops == c.MaxStops {
		sb.WriteString(" " + optionStops + "=" + strconv.Itoa(c.MinStops))
	} else {
		if c.MinStops > 0 {
			sb.WriteString(" " + optionMinStops + "=" + strconv.Itoa(c.MinStops))
		}
		if c.MaxStops > 0 {
			sb.WriteString(" " + optionMaxStops + "=" + strconv.Itoa(c.MaxStops))
		}
	}
	if c.MaxDistance > 0 {
		sb.WriteString(" " + optionMaxDistance + "=" + strconv.Itoa(c.MaxDistance))
	}

	return sb.String()
}

// ParseError is the type of error returned by Parse when a query is invalid.
type ParseError struct {
	// The query that could not be parsed.
	Query string
	// Any underlying error that may have occurred when parsing.
	Reason error
	// Additional details about the error.
	Explanation string
	// Line of the query in a queries file, if it was read from one.
	Line int
}

func (p *ParseError) Error() string {
	r := "invalid query"
	if p.Line > 0 {
		r += " on line " + strconv.Itoa(p.Line)
	}
	if p.Explanation != "" {
		r += ": " + p.Explanation
	}
	if p.Query != "" {
		r += " (in \"" + p.Query + "\")"
	}
	if p.Reason != nil {
		r += ": " + p.Reason.Error()
	}
	return r
}

func (p *ParseError) Unwrap() error {
	return p.Reason
}

// Parse parses a single query. Keywords and option names are case-insensitive,
// town names are not.
func Parse(s string) (Query, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return Query{}, &ParseError{Explanation: "required to be non-empty"}
	}
	if len(fields) == 1 {
		return Query{}, &ParseError{Query: s, Explanation: "missing towns"}
	}

	var q Query
	switch strings.ToLower(fields[0]) {
	case "distance":
		q.Kind = KindDistance
	case "trips":
		q.Kind = KindTrips
	case "list":
		q.Kind = KindList
	case "shortest":
		q.Kind = KindShortest
	default:
		return Query{}, &ParseError{Query: s, Explanation: "unknown query \"" + fields[0] + "\""}
	}

	q.Towns = strings.Split(fields[1], "-")
	for _, t := range q.Towns {
		if t == "" {
			return Query{}, &ParseError{Query: s, Explanation: "empty town name"}
		}
	}
	if q.Kind != KindDistance && len(q.Towns) != 2 {
		return Query{}, &ParseError{Query: s, Explanation: "expected exactly two towns"}
	}

	options := fields[2:]
	if len(options) > 0 && q.Kind != KindTrips && q.Kind != KindList {
		return Query{}, &ParseError{Query: s, Explanation: q.Kind.String() + " takes no options"}
	}
	for _, opt := range options {
		if err := parseOption(&q.Constraints, opt); err != nil {
			err.Query = s
			return Query{}, err
		}
	}

	if (q.Kind == KindTrips || q.Kind == KindList) && q.Constraints.MaxStops == 0 && q.Constraints.MaxDistance == 0 {
		return Query{}, &ParseError{
			Query:       s,
			Explanation: "needs one of " + optionStops + ", " + optionMaxStops + " or " + optionMaxDistance,
		}
	}

	return q, nil
}

func parseOption(c *graph.Constraints, opt string) *ParseError {
	key, value, ok := strings.Cut(opt, "=")
	if !ok {
		return &ParseError{Explanation: "option \"" + opt + "\" must be of the form key=value"}
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		return &ParseError{Explanation: "invalid value for " + key, Reason: err}
	}
	if n < 1 {
		return &ParseError{Explanation: key + " must be positive"}
	}
	if n > graph.MaxConstraint {
		return &ParseError{Explanation: key + " must be at most " + strconv.Itoa(graph.MaxConstraint)}
	}

	switch strings.ToLower(key) {
	case optionStops:
		c.MinStops, c.MaxStops = n, n
	case optionMinStops:
		c.MinStops = n
	case optionMaxStops:
		c.MaxStops = n
	case optionMaxDistance:
		c.MaxDistance = n
	default:
		return &ParseError{Explanation: "unknown option \"" + key + "\""}
	}

	return nil
}

// MustParse is the same as Parse, but panics on non-nil error.
func MustParse(s string) Query {
	q, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return q
}

// Read parses one query per line. Blank lines and lines starting
// with '#' are skipped.
func Read(r io.Reader) ([]Query, error) {
	var qs []Query
	sc := bufio.NewScanner(r)

	for line := 1; sc.Scan(); line++ {
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		q, err := Parse(text)
		if err != nil {
			err.(*ParseError).Line = line
			return nil, err
		}
		qs = append(qs, q)
	}

	return qs, sc.Err()
}

// Defaults returns the standard set of ten queries asked of a rail network
// with towns A to E.
func Defaults() []Query {
	return []Query{
		MustParse("distance A-B-C"),
		MustParse("distance A-D"),
		MustParse("distance A-D-C"),
		MustParse("distance A-E-B-C-D"),
		MustParse("distance A-E-D"),
		MustParse("trips C-C max-stops=3"),
		MustParse("trips A-C stops=4"),
		MustParse("shortest A-C"),
		MustParse("shortest B-B"),
		MustParse("trips C-C max-distance=30"),
	}
}
