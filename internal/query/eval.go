package query

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/tmaxmax/route/internal/graph"
)

// NoSuchRoute is the answer given when the asked route does not exist.
const NoSuchRoute = "NO SUCH ROUTE"

// An Answer is the outcome of evaluating a query against a graph.
type Answer struct {
	Query Query
	// The printable answer.
	Value string
	// Set when the route does not exist. It always wraps graph.ErrNoSuchRoute.
	Err error
}

// Eval evaluates the query against g. Missing routes are reported through
// the answer; the returned error is only set when evaluation itself fails,
// for example because ctx is done.
func (q Query) Eval(ctx context.Context, g *graph.Graph) (Answer, error) {
	a := Answer{Query: q}

	var (
		value string
		err   error
	)

	switch q.Kind {
	case KindDistance:
		var r graph.Route
		if r, err = g.Route(q.Towns...); err == nil {
			value = strconv.Itoa(r.Distance)
		}
	case KindShortest:
		var r graph.Route
		if r, err = g.ShortestRoute(q.Towns[0], q.Towns[1]); err == nil {
			value = strconv.Itoa(r.Distance)
		}
	case KindTrips:
		var n int
		if n, err = g.CountRoutes(ctx, q.Towns[0], q.Towns[1], q.Constraints); err == nil {
			value = strconv.Itoa(n)
		}
	case KindList:
		var routes []graph.Route
		routes, err = g.Routes(ctx, q.Towns[0], q.Towns[1], q.Constraints)
		if err == nil && len(routes) == 0 {
			err = graph.ErrNoSuchRoute
		}
		if err == nil {
			value = formatRoutes(routes)
		}
	default:
		return a, errors.New("unknown query kind " + q.Kind.String())
	}

	if errors.Is(err, graph.ErrNoSuchRoute) {
		a.Value, a.Err = NoSuchRoute, err
		return a, nil
	}
	if err != nil {
		return a, err
	}

	a.Value = value
	return a, nil
}

func formatRoutes(routes []graph.Route) string {
	var sb strings.Builder
	for i, r := range routes {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(r.String())
		sb.WriteString(" (")
		sb.WriteString(strconv.Itoa(r.Distance))
		sb.WriteByte(')')
	}
	return sb.String()
}

// EvalAll evaluates every query in order and stops at the first
// evaluation error.
func EvalAll(ctx context.Context, g *graph.Graph, qs []Query) ([]Answer, error) {
	answers := make([]Answer, 0, len(qs))
	for _, q := range qs {
		a, err := q.Eval(ctx, g)
		if err != nil {
			return answers, err
		}
		answers = append(answers, a)
	}
	return answers, nil
}
