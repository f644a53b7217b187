package swr

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pageFetcher(name string) func(context.Context) ([]string, error) {
	return func(context.Context) ([]string, error) {
		return []string{name}, nil
	}
}

func TestUse_TypedValues(t *testing.T) {
	c := New()
	defer c.Close()

	notes := make(chan Value[[]string], 4)
	first := Key("/listings", map[string]any{"page": 1})
	r := Use(c, first, pageFetcher("p1"), []string{}, func(v Value[[]string]) { notes <- v })
	defer r.Close()

	got := recv(t, notes)
	assert.Equal(t, []string{"p1"}, got.Data)
	assert.Equal(t, first, got.Key)
	assert.False(t, got.Loading())
	assert.Equal(t, []string{"p1"}, r.Current().Data)

	second := Key("/listings", map[string]any{"page": 2})
	initial := r.Rekey(second, pageFetcher("p2"))
	assert.Equal(t, []string{}, initial.Data)

	got = recv(t, notes)
	assert.Equal(t, []string{"p2"}, got.Data)
	assert.Equal(t, second, r.Key())

	c.Mutate(first, []string{"stale"})
	select {
	case v := <-notes:
		t.Fatalf("old key still delivering: %v", v)
	default:
	}

	r.Mutate([]string{"p2", "extra"})
	assert.Equal(t, []string{"p2", "extra"}, recv(t, notes).Data)
}

func TestUse_RefetchError(t *testing.T) {
	c := New()
	defer c.Close()

	boom := errors.New("boom")
	calls := 0
	done := make(chan Value[int], 4)
	r := Use(c, "/me", func(context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 7, nil
		}
		return 0, boom
	}, -1, func(v Value[int]) { done <- v })
	defer r.Close()
	require.Equal(t, 7, recv(t, done).Data)

	v, err := r.Refetch(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 7, v.Data)
}

func TestUse_TypeMismatchFallsBackToDefault(t *testing.T) {
	c := New()
	defer c.Close()

	c.Mutate("k", "not an int")
	r := Use[int](c, "k", nil, 5, nil)
	defer r.Close()
	assert.Equal(t, 5, r.Current().Data)
}
