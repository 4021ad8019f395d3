package graph

import (
	"errors"
	"strconv"
)

var (
	// ErrNoSuchRoute is returned when the requested route does not exist:
	// the towns are not linked, or one of them is not in the graph.
	ErrNoSuchRoute = errors.New("no such route")
	// ErrUnbounded is returned by Routes when neither a stop limit nor
	// a distance limit is given.
	ErrUnbounded = errors.New("route search needs a stop or distance limit")
	ErrEmptyTown = errors.New("town name is empty")
	ErrNoTowns   = errors.New("route has no towns")
)

// LinkError is returned by AddLink when a link cannot be added to a graph.
type LinkError struct {
	// The link that was rejected.
	Link Link
	// Any underlying error returned by the graph store.
	Reason error
	// Additional details about the error.
	Explanation string
}

func (l *LinkError) Error() string {
	r := "invalid link " + l.Link.From + " -> " + l.Link.To + " (" + strconv.Itoa(l.Link.Distance) + ")"
	if l.Explanation != "" {
		r += ": " + l.Explanation
	}
	if l.Reason != nil {
		r += ": " + l.Reason.Error()
	}
	return r
}

func (l *LinkError) Unwrap() error {
	return l.Reason
}
