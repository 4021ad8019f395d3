package graph

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"sort"

	dgraph "github.com/dominikbraun/graph"
)

// MaxConstraint is the largest value a Constraints field can hold.
const MaxConstraint = math.MaxInt32

// ErrTooManyRoutes is returned by CountRoutes when the count does not fit in an int.
var ErrTooManyRoutes = errors.New("too many routes to count")

// Constraints limit the routes returned by Routes. A zero MaxStops or
// MaxDistance means no limit, but at least one of them must be set.
type Constraints struct {
	// Minimum number of stops, inclusive.
	MinStops int
	// Maximum number of stops, inclusive.
	MaxStops int
	// Distance every route must stay below. The limit itself is excluded.
	MaxDistance int
}

// Exactly returns constraints that only admit routes with n stops.
func Exactly(n int) Constraints {
	return Constraints{MinStops: n, MaxStops: n}
}

func (c Constraints) validate() error {
	if c.MinStops < 0 || c.MaxStops < 0 || c.MaxDistance < 0 {
		return fmt.Errorf("route constraints cannot be negative: %+v", c)
	}
	if c.MinStops > MaxConstraint || c.MaxStops > MaxConstraint || c.MaxDistance > MaxConstraint {
		return fmt.Errorf("route constraints cannot exceed %d: %+v", MaxConstraint, c)
	}
	if c.MaxStops == 0 && c.MaxDistance == 0 {
		return ErrUnbounded
	}
	return nil
}

func (c Constraints) admits(stops, distance int) bool {
	if stops < 1 || stops < c.MinStops {
		return false
	}
	if c.MaxStops > 0 && stops > c.MaxStops {
		return false
	}
	return c.MaxDistance == 0 || distance < c.MaxDistance
}

// Routes returns every route from one town to another that satisfies the
// constraints. Towns may be visited more than once, and a route always has
// at least one stop, so routes from a town to itself are round trips.
//
// Routes are ordered by distance, then by number of stops, then by their
// towns. The search stops early when ctx is done.
func (g *Graph) Routes(ctx context.Context, from, to string, c Constraints) ([]Route, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	if err := g.checkTowns(from, to); err != nil {
		return nil, err
	}

	adj, err := g.adjacency()
	if err != nil {
		return nil, err
	}

	var routes []Route
	path := []string{from}

	var walk func(town string, distance int) error
	walk = func(town string, distance int) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		stops := len(path) - 1
		if town == to && c.admits(stops, distance) {
			routes = append(routes, Route{Towns: slices.Clone(path), Distance: distance})
		}
		if c.MaxStops > 0 && stops >= c.MaxStops {
			return nil
		}

		for _, l := range adj[town] {
			d := distance + l.Distance
			if c.MaxDistance > 0 && d >= c.MaxDistance {
				continue
			}

			path = append(path, l.To)
			err := walk(l.To, d)
			path = path[:len(path)-1]
			if err != nil {
				return err
			}
		}

		return nil
	}

	if err := walk(from, 0); err != nil {
		return nil, err
	}

	sort.SliceStable(routes, func(i, j int) bool {
		a, b := routes[i], routes[j]
		if a.Distance != b.Distance {
			return a.Distance < b.Distance
		}
		if a.Stops() != b.Stops() {
			return a.Stops() < b.Stops()
		}
		return slices.Compare(a.Towns, b.Towns) < 0
	})

	return routes, nil
}

// CountRoutes returns the number of routes Routes would return, without
// building them. Routes are counted per stop from the number of ways to reach
// each town at each distance, so memory stays proportional to the graph and
// the distance limit rather than to the number of routes.
func (g *Graph) CountRoutes(ctx context.Context, from, to string, c Constraints) (int, error) {
	if err := c.validate(); err != nil {
		return 0, err
	}
	if err := g.checkTowns(from, to); err != nil {
		return 0, err
	}

	adj, err := g.adjacency()
	if err != nil {
		return 0, err
	}

	type reach struct {
		town     string
		distance int
	}

	var count int
	level := map[reach]int{{town: from}: 1}

	for stops := 1; len(level) > 0 && (c.MaxStops == 0 || stops <= c.MaxStops); stops++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		last := c.MaxStops > 0 && stops == c.MaxStops
		next := make(map[reach]int, len(level))
		for r, n := range level {
			for _, l := range adj[r.town] {
				d := r.distance + l.Distance
				if c.MaxDistance > 0 && d >= c.MaxDistance {
					continue
				}
				if l.To == to && c.admits(stops, d) {
					if count, err = addCount(count, n); err != nil {
						return 0, err
					}
				}

				if last {
					continue
				}

				// Without a distance limit only the town matters.
				key := reach{town: l.To}
				if c.MaxDistance > 0 {
					key.distance = d
				}
				if next[key], err = addCount(next[key], n); err != nil {
					return 0, err
				}
			}
		}
		level = next
	}

	return count, nil
}

func addCount(a, b int) (int, error) {
	if a > math.MaxInt-b {
		return 0, ErrTooManyRoutes
	}
	return a + b, nil
}

// ShortestRoute returns the route with the smallest distance between two
// towns. The route has at least one stop: the shortest route from a town to
// itself is its shortest round trip.
func (g *Graph) ShortestRoute(from, to string) (Route, error) {
	if err := g.checkTowns(from, to); err != nil {
		return Route{}, err
	}
	if from != to {
		return g.shortest(from, to)
	}

	adj, err := g.adjacency()
	if err != nil {
		return Route{}, err
	}

	var best Route
	for _, l := range adj[from] {
		rest, err := g.shortest(l.To, to)
		if errors.Is(err, ErrNoSuchRoute) {
			continue
		} else if err != nil {
			return Route{}, err
		}

		if d := l.Distance + rest.Distance; best.Towns == nil || d < best.Distance {
			best = Route{Towns: append([]string{from}, rest.Towns...), Distance: d}
		}
	}

	if best.Towns == nil {
		return Route{}, fmt.Errorf("%w: no round trip from %s", ErrNoSuchRoute, from)
	}
	return best, nil
}

func (g *Graph) shortest(from, to string) (Route, error) {
	path, err := dgraph.ShortestPath(g.g, from, to)
	if errors.Is(err, dgraph.ErrTargetNotReachable) || (err == nil && len(path) < 2) {
		return Route{}, fmt.Errorf("%w: %s is not reachable from %s", ErrNoSuchRoute, to, from)
	}
	if err != nil {
		return Route{}, err
	}

	return g.Route(path...)
}

func (g *Graph) checkTowns(towns ...string) error {
	for _, town := range towns {
		if !g.Town(town) {
			return fmt.Errorf("%w: unknown town %q", ErrNoSuchRoute, town)
		}
	}
	return nil
}
