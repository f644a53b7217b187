package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	ID       int    `json:"id"`
	Title    string `json:"title"`
	Bid      int    `json:"currentBid"`
	IsClosed bool   `json:"isClosed"`
}

var items = []item{
	{ID: 1, Title: "Lamp", Bid: 20},
	{ID: 2, Title: "Desk", Bid: 150, IsClosed: true},
	{ID: 3, Title: "Chair", Bid: 90},
}

func TestWhere(t *testing.T) {
	t.Parallel()

	got, err := Where(items, "currentBid > 50 && !isClosed")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Chair", got[0].Title)

	got, err = Where(items, "")
	require.NoError(t, err)
	assert.Len(t, got, 3)

	got, err = Where(items, `title startsWith "D"`)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].ID)
}

func TestWhere_Errors(t *testing.T) {
	t.Parallel()

	_, err := Where(items, "currentBid >")
	assert.ErrorContains(t, err, "invalid --where expression")

	_, err = Where(items, "title")
	assert.ErrorContains(t, err, "must be a boolean")
}

func TestJSONPath(t *testing.T) {
	t.Parallel()

	page := map[string]any{"count": 3, "results": items}

	got, err := JSONPath(page, "$.results[*].title")
	require.NoError(t, err)
	assert.Equal(t, []any{"Lamp", "Desk", "Chair"}, got)

	got, err = JSONPath(page, "$.count")
	require.NoError(t, err)
	assert.EqualValues(t, 3, got)

	_, err = JSONPath(page, "$.missing")
	assert.ErrorContains(t, err, "matched nothing")

	_, err = JSONPath(page, "$[")
	assert.ErrorContains(t, err, "invalid jsonpath")
}

func TestJSONAndTable(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, items[0]))
	assert.Equal(t, "{\n  \"id\": 1,\n  \"title\": \"Lamp\",\n  \"currentBid\": 20,\n  \"isClosed\": false\n}\n", buf.String())

	buf.Reset()
	tw := Table(&buf)
	_, _ = tw.Write([]byte("ID\tTITLE\n1\tLamp\n"))
	require.NoError(t, tw.Flush())
	assert.Equal(t, "ID  TITLE\n1   Lamp\n", buf.String())

	buf.Reset()
	Warn(&buf, "page %d is empty", 4)
	assert.Equal(t, "Warning: page 4 is empty\n", buf.String())
}
