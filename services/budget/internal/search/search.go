package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/elastic/go-elasticsearch/v9/esapi"

	"github.com/lopatuxin/budget-invest-bloom-monorepo/services/budget/internal/models"
)

// ExpenseDoc is the flattened expense representation stored in the index.
type ExpenseDoc struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	CategoryID  string `json:"category_id"`
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
	Date        string `json:"date"`
}

// Client wraps the Elasticsearch connection for expense search. A nil
// *Client is a valid no-op: indexing is skipped and Search reports
// ErrUnavailable.
type Client struct {
	es    *elasticsearch.Client
	index string
}

var ErrUnavailable = fmt.Errorf("expense search is not configured")

func NewClient(url, username, password, index string) (*Client, error) {
	if url == "" {
		return nil, nil
	}

	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{url},
		Username:  username,
		Password:  password,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}

	res, err := es.Info()
	if err != nil {
		return nil, fmt.Errorf("elasticsearch info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("elasticsearch info: %s: %s", res.Status(), body)
	}

	return &Client{es: es, index: index}, nil
}

func (c *Client) Enabled() bool { return c != nil }

// IndexExpense upserts the document. Callers treat failures as
// non-fatal: the database row is the source of truth.
func (c *Client) IndexExpense(ctx context.Context, exp *models.Expense) error {
	if c == nil {
		return nil
	}

	doc := ExpenseDoc{
		ID:          exp.ID,
		UserID:      exp.UserID,
		CategoryID:  exp.CategoryID,
		Amount:      exp.AmountCents,
		Description: exp.Description,
		Date:        exp.Date.Format(time.DateOnly),
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(doc); err != nil {
		return err
	}

	req := esapi.IndexRequest{
		Index:      c.index,
		DocumentID: exp.ID,
		Body:       &buf,
		Refresh:    "false",
	}
	res, err := req.Do(ctx, c.es)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index expense: %s", res.Status())
	}
	return nil
}

func (c *Client) DeleteExpense(ctx context.Context, id string) error {
	if c == nil {
		return nil
	}

	req := esapi.DeleteRequest{Index: c.index, DocumentID: id}
	res, err := req.Do(ctx, c.es)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	// 404 just means the document was never indexed.
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("delete expense: %s", res.Status())
	}
	return nil
}

// Search runs a fuzzy description match scoped to one user.
func (c *Client) Search(ctx context.Context, userID, query string, from, size int) (int64, []ExpenseDoc, error) {
	if c == nil {
		return 0, nil, ErrUnavailable
	}

	body := map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"must": map[string]any{
					"match": map[string]any{
						"description": map[string]any{
							"query":     query,
							"fuzziness": "AUTO",
						},
					},
				},
				"filter": map[string]any{
					"term": map[string]any{"user_id": userID},
				},
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, err
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(c.index),
		c.es.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, err
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return 0, nil, fmt.Errorf("search: %s: %s", res.Status(), body)
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source ExpenseDoc `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, err
	}

	docs := make([]ExpenseDoc, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		docs[i] = hit.Source
	}
	return r.Hits.Total.Value, docs, nil
}
