package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/opensearch-project/opensearch-go"
	"github.com/opensearch-project/opensearch-go/opensearchapi"

	"tours/entity"
)

const indexSettings = `{
	"settings": {"index": {"number_of_shards": 1, "number_of_replicas": 1}},
	"mappings": {
		"properties": {
			"title": {"type": "text"},
			"description": {"type": "text"},
			"destination": {"type": "text"},
			"country": {"type": "keyword"},
			"price": {"type": "double"},
			"duration_days": {"type": "integer"},
			"rating": {"type": "double"}
		}
	}
}`

// Document is what gets stored in OpenSearch for a published tour.
type Document struct {
	TourID       string  `json:"tour_id"`
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	Destination  string  `json:"destination"`
	Country      string  `json:"country"`
	Price        float64 `json:"price"`
	DurationDays int     `json:"duration_days"`
	Rating       float64 `json:"rating"`
}

func NewDocument(t entity.Tour, d entity.Destination) Document {
	return Document{
		TourID:       t.ID,
		Title:        t.Title,
		Description:  t.Description,
		Destination:  d.Name,
		Country:      d.Country,
		Price:        t.Price.InexactFloat64(),
		DurationDays: t.DurationDays,
		Rating:       t.RatingAverage.InexactFloat64(),
	}
}

type Index struct {
	client *opensearch.Client
	name   string
}

func NewIndex(addresses []string, name string) (*Index, error) {
	client, err := opensearch.NewClient(opensearch.Config{
		Addresses: addresses,
	})
	if err != nil {
		return nil, fmt.Errorf("creating opensearch client: %w", err)
	}

	return &Index{
		client: client,
		name:   name,
	}, nil
}

func (i *Index) EnsureIndex(ctx context.Context) error {
	exists, err := opensearchapi.IndicesExistsRequest{Index: []string{i.name}}.Do(ctx, i.client)
	if err != nil {
		return fmt.Errorf("checking index: %w", err)
	}
	defer exists.Body.Close()
	if exists.StatusCode == http.StatusOK {
		return nil
	}

	res, err := opensearchapi.IndicesCreateRequest{
		Index: i.name,
		Body:  strings.NewReader(indexSettings),
	}.Do(ctx, i.client)
	if err != nil {
		return fmt.Errorf("creating index: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("creating index: %s", res.String())
	}

	log.FromContext(ctx).WithField("index", i.name).Info("Search index created")
	return nil
}

// IndexTour upserts the tour document under the tour ID.
func (i *Index) IndexTour(ctx context.Context, t entity.Tour, d entity.Destination) error {
	body, err := json.Marshal(NewDocument(t, d))
	if err != nil {
		return fmt.Errorf("marshalling document: %w", err)
	}

	res, err := opensearchapi.IndexRequest{
		Index:      i.name,
		DocumentID: t.ID,
		Body:       bytes.NewReader(body),
	}.Do(ctx, i.client)
	if err != nil {
		return fmt.Errorf("indexing tour: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("indexing tour: %s", res.String())
	}
	return nil
}

// RemoveTour deletes the tour document; a missing document is not an error.
func (i *Index) RemoveTour(ctx context.Context, tourID string) error {
	res, err := opensearchapi.DeleteRequest{
		Index:      i.name,
		DocumentID: tourID,
	}.Do(ctx, i.client)
	if err != nil {
		return fmt.Errorf("removing tour: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("removing tour: %s", res.String())
	}
	return nil
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []struct {
			ID string `json:"_id"`
		} `json:"hits"`
	} `json:"hits"`
}

// Search returns the IDs of matching tours, best match first, and the total hit count.
func (i *Index) Search(ctx context.Context, query string, page entity.Page) ([]string, int, error) {
	body, err := json.Marshal(buildQuery(query, page))
	if err != nil {
		return nil, 0, fmt.Errorf("marshalling query: %w", err)
	}

	res, err := opensearchapi.SearchRequest{
		Index: []string{i.name},
		Body:  bytes.NewReader(body),
	}.Do(ctx, i.client)
	if err != nil {
		return nil, 0, fmt.Errorf("searching tours: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, 0, fmt.Errorf("searching tours: %s", res.String())
	}

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("reading search response: %w", err)
	}

	var parsed searchResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, 0, fmt.Errorf("decoding search response: %w", err)
	}

	ids := make([]string, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		ids = append(ids, hit.ID)
	}
	return ids, parsed.Hits.Total.Value, nil
}

func buildQuery(query string, page entity.Page) map[string]any {
	return map[string]any{
		"from": page.Offset(),
		"size": page.Limit,
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"title^3", "destination^2", "description"},
				"fuzziness": "AUTO",
			},
		},
	}
}

// Disabled stands in for Index when no OpenSearch address is configured.
type Disabled struct{}

func (Disabled) IndexTour(context.Context, entity.Tour, entity.Destination) error {
	return nil
}

func (Disabled) RemoveTour(context.Context, string) error {
	return nil
}
