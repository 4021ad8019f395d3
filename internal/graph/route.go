package graph

import (
	"fmt"
	"strings"
)

// A Route is a sequence of linked towns together with its total distance.
type Route struct {
	Towns    []string
	Distance int
}

// Stops returns the number of links travelled on the route.
func (r Route) Stops() int {
	if len(r.Towns) == 0 {
		return 0
	}
	return len(r.Towns) - 1
}

func (r Route) String() string {
	return strings.Join(r.Towns, "-")
}

// Route returns the route that travels through the given towns in order.
// It returns an error wrapping ErrNoSuchRoute if a town is unknown or two
// consecutive towns are not linked.
func (g *Graph) Route(towns ...string) (Route, error) {
	if len(towns) == 0 {
		return Route{}, ErrNoTowns
	}

	r := Route{Towns: append([]string(nil), towns...)}
	for i, town := range towns {
		if !g.Town(town) {
			return Route{}, fmt.Errorf("%w: unknown town %q", ErrNoSuchRoute, town)
		}
		if i == 0 {
			continue
		}

		d, ok := g.Distance(towns[i-1], town)
		if !ok {
			return Route{}, fmt.Errorf("%w: %s does not link to %s", ErrNoSuchRoute, towns[i-1], town)
		}
		r.Distance += d
	}

	return r, nil
}
