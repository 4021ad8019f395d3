package graph_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmaxmax/route/internal/graph"
)

// newTree builds the following graph, with every distance set to 1:
//
//	  0
//	 / \
//	1   2
//	|
//	3
func newTree(t *testing.T) *graph.Graph {
	t.Helper()

	g := graph.New()
	require.NoError(t, g.AddLink("0", "1", 1))
	require.NoError(t, g.AddLink("0", "2", 1))
	require.NoError(t, g.AddLink("1", "3", 1))
	return g
}

func TestAddTown(t *testing.T) {
	t.Run("keeps insertion order", func(t *testing.T) {
		g := graph.New()
		require.NoError(t, g.AddTown("B"))
		require.NoError(t, g.AddTown("A"))

		assert.Equal(t, []string{"B", "A"}, g.Towns())
	})

	t.Run("existing town is not duplicated", func(t *testing.T) {
		g := graph.New()
		require.NoError(t, g.AddTown("A"))
		require.NoError(t, g.AddTown("A"))

		assert.Equal(t, 1, g.Order())
	})

	t.Run("empty graph has no towns", func(t *testing.T) {
		g := graph.New()

		assert.Empty(t, g.Towns())
		assert.Zero(t, g.Order())
		assert.Zero(t, g.Size())
	})

	t.Run("empty name is rejected", func(t *testing.T) {
		err := graph.New().AddTown("")

		assert.ErrorIs(t, err, graph.ErrEmptyTown)
	})
}

func TestAddLink(t *testing.T) {
	t.Run("adds towns and distance", func(t *testing.T) {
		g := graph.New()
		require.NoError(t, g.AddLink("A", "B", 5))

		assert.Equal(t, []string{"A", "B"}, g.Towns())
		d, ok := g.Distance("A", "B")
		assert.True(t, ok)
		assert.Equal(t, 5, d)
	})

	t.Run("links are one-way", func(t *testing.T) {
		g := graph.New()
		require.NoError(t, g.AddLink("A", "B", 5))

		_, ok := g.Distance("B", "A")
		assert.False(t, ok)
	})

	t.Run("linking again replaces the distance", func(t *testing.T) {
		g := graph.New()
		require.NoError(t, g.AddLink("A", "B", 5))
		require.NoError(t, g.AddLink("A", "B", 7))

		d, _ := g.Distance("A", "B")
		assert.Equal(t, 7, d)
		assert.Equal(t, 1, g.Size())
	})

	t.Run("self link is rejected", func(t *testing.T) {
		err := graph.New().AddLink("A", "A", 1)

		var linkErr *graph.LinkError
		require.True(t, errors.As(err, &linkErr))
		assert.Equal(t, "A", linkErr.Link.From)
	})

	t.Run("non-positive distance is rejected", func(t *testing.T) {
		g := graph.New()

		assert.Error(t, g.AddLink("A", "B", 0))
		assert.Error(t, g.AddLink("A", "B", -3))
		assert.Zero(t, g.Order())
	})

	t.Run("distance is bounded", func(t *testing.T) {
		g := graph.New()
		require.NoError(t, g.AddLink("A", "B", graph.MaxLinkDistance))
		require.NoError(t, g.AddLink("B", "C", graph.MaxLinkDistance))

		var linkErr *graph.LinkError
		require.ErrorAs(t, g.AddLink("C", "D", graph.MaxLinkDistance+1), &linkErr)
		assert.Equal(t, "C", linkErr.Link.From)
		assert.False(t, g.Town("D"))

		r, err := g.Route("A", "B", "C")
		require.NoError(t, err)
		assert.Equal(t, 2*graph.MaxLinkDistance, r.Distance)
	})
}

func TestLinks(t *testing.T) {
	g := graph.New()
	require.NoError(t, g.AddLink("C", "A", 3))
	require.NoError(t, g.AddLink("A", "C", 1))
	require.NoError(t, g.AddLink("A", "B", 2))
	require.NoError(t, g.AddLink("C", "B", 4))

	expected := []graph.Link{
		{From: "C", To: "A", Distance: 3},
		{From: "C", To: "B", Distance: 4},
		{From: "A", To: "C", Distance: 1},
		{From: "A", To: "B", Distance: 2},
	}
	assert.Equal(t, expected, g.Links())
	assert.Equal(t, 10, g.TotalDistance())
	assert.Equal(t, 4, g.Size())
}

func TestIsValidPath(t *testing.T) {
	g := newTree(t)

	tests := []struct {
		path  []string
		valid bool
	}{
		{path: nil, valid: true},
		{path: []string{"0"}, valid: true},
		{path: []string{"0", "1"}, valid: true},
		{path: []string{"0", "1", "3"}, valid: true},
		{path: []string{"1", "3"}, valid: true},
		{path: []string{"0", "3"}, valid: false},
		{path: []string{"1", "2"}, valid: false},
		{path: []string{"1", "0"}, valid: false},
		{path: []string{"0", "9"}, valid: false},
		{path: []string{"9"}, valid: false},
	}

	for _, test := range tests {
		assert.Equal(t, test.valid, g.IsValidPath(test.path...), "path %v", test.path)
	}
}
