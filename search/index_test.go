package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tours/entity"
)

func TestBuildQuery(t *testing.T) {
	q := buildQuery("lisbon food", entity.NewPage(3, 20))

	assert.Equal(t, 40, q["from"])
	assert.Equal(t, 20, q["size"])

	match := q["query"].(map[string]any)["multi_match"].(map[string]any)
	assert.Equal(t, "lisbon food", match["query"])
	assert.Equal(t, "AUTO", match["fuzziness"])
}

func TestNewDocument(t *testing.T) {
	doc := NewDocument(entity.Tour{
		ID:            "tour-1",
		Title:         "Sintra day trip",
		Price:         decimal.RequireFromString("89.90"),
		DurationDays:  1,
		RatingAverage: decimal.RequireFromString("4.50"),
	}, entity.Destination{Name: "Lisbon", Country: "Portugal"})

	assert.Equal(t, "Lisbon", doc.Destination)
	assert.InDelta(t, 89.9, doc.Price, 0.001)
	assert.InDelta(t, 4.5, doc.Rating, 0.001)
}

func TestIndex_Search(t *testing.T) {
	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &received)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"hits": {"total": {"value": 12}, "hits": [{"_id": "a"}, {"_id": "b"}]}}`))
	}))
	defer server.Close()

	index, err := NewIndex([]string{server.URL}, "tours")
	require.NoError(t, err)

	ids, total, err := index.Search(context.Background(), "porto", entity.NewPage(1, 2))
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, ids)
	assert.Equal(t, 12, total)
	assert.EqualValues(t, 2, received["size"])
}
