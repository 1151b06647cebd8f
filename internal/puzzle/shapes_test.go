package puzzle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBoard(t *testing.T) *ShapeBoard {
	t.Helper()
	b, err := NewShapeBoard("shapes", []SocketConfig{
		{ID: "a", Accepts: "star"},
		{ID: "b", Accepts: "cube"},
	}, nil)
	require.NoError(t, err)
	return b
}

func TestShapeBoardSolvesWhenAllFilled(t *testing.T) {
	b := newBoard(t)
	var seen []bool
	b.Subscribe(func(c Change) { seen = append(seen, c.Solved) })

	b.Place("a", "star")
	assert.False(t, b.Solved())
	b.Place("b", "cube")
	assert.True(t, b.Solved())
	assert.Equal(t, []bool{true}, seen)
}

func TestShapeBoardRemovalUnsolves(t *testing.T) {
	b := newBoard(t)
	var seen []bool
	b.Subscribe(func(c Change) { seen = append(seen, c.Solved) })

	b.Place("a", "star")
	b.Place("b", "cube")
	b.Remove("a")
	assert.False(t, b.Solved())
	assert.False(t, b.Filled("a"))
	b.Place("a", "star")
	assert.True(t, b.Solved())
	assert.Equal(t, []bool{true, false, true}, seen)
}

func TestShapeBoardWrongShape(t *testing.T) {
	b := newBoard(t)

	b.Place("a", "cube")
	b.Place("b", "cube")
	assert.False(t, b.Solved())
	b.Place("a", "star") // occupied by the wrong shape
	assert.False(t, b.Filled("a"))

	b.Remove("a")
	b.Place("a", "star")
	assert.True(t, b.Solved())

	b.Place("missing", "star")
	b.Remove("missing")
}

func TestShapeBoardConfig(t *testing.T) {
	_, err := NewShapeBoard("shapes", nil, nil)
	assert.ErrorIs(t, err, ErrConfig)
	_, err = NewShapeBoard("shapes", []SocketConfig{{ID: "a", Accepts: "x"}, {ID: "a", Accepts: "y"}}, nil)
	assert.ErrorIs(t, err, ErrConfig)
	_, err = NewShapeBoard("shapes", []SocketConfig{{ID: "a"}}, nil)
	assert.ErrorIs(t, err, ErrConfig)
}
