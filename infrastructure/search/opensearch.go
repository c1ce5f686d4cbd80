// Package search implements the document store port against an OpenSearch
// domain reached over SigV4-signed HTTP.
package search

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"go.uber.org/zap"

	"eventpipe/application/ports"
	"eventpipe/domain/event"
	"eventpipe/pkg/errors"
)

const (
	// signingService is the SigV4 service name for OpenSearch domains.
	signingService = "es"

	// maxSearchSize caps one result page.
	maxSearchSize = 100

	defaultTimeout = 30 * time.Second
)

// eventIndexMapping mirrors the provisioned user-events index mapping.
const eventIndexMapping = `{
  "mappings": {
    "properties": {
      "id": {"type": "keyword"},
      "user_id": {"type": "keyword"},
      "session_id": {"type": "keyword"},
      "timestamp": {"type": "date"},
      "event_type": {"type": "keyword"},
      "product_id": {"type": "keyword"},
      "category": {"type": "keyword"},
      "price": {"type": "double"},
      "quantity": {"type": "integer"},
      "currency": {"type": "keyword"},
      "user_agent": {"type": "text"},
      "ip_address": {"type": "ip"},
      "location": {
        "properties": {
          "city": {"type": "keyword"},
          "state": {"type": "keyword"},
          "country": {"type": "keyword"}
        }
      },
      "device_type": {"type": "keyword"},
      "referrer": {"type": "keyword"},
      "page_url": {"type": "keyword"},
      "revenue": {"type": "double"},
      "search_query": {"type": "text"},
      "search_results_count": {"type": "integer"},
      "rating": {"type": "integer"},
      "review_text": {"type": "text"},
      "payment_method": {"type": "keyword"},
      "discount_applied": {"type": "boolean"},
      "discount_amount": {"type": "double"}
    }
  }
}`

// Client talks to one OpenSearch domain and implements ports.DocumentStore.
type Client struct {
	httpClient *http.Client
	baseURL    string
	index      string
	region     string
	creds      aws.CredentialsProvider
	signer     *v4.Signer
	logger     *zap.Logger
}

// NewClient creates a document store client for the given domain endpoint
// (hostname, no scheme).
func NewClient(endpoint, index, region string, creds aws.CredentialsProvider, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    "https://" + endpoint,
		index:      index,
		region:     region,
		creds:      creds,
		signer:     v4.NewSigner(),
		logger:     logger,
	}
}

// EnsureIndex creates the event index with its mapping if it does not exist
func (c *Client) EnsureIndex(ctx context.Context) error {
	status, _, err := c.do(ctx, http.MethodHead, "/"+c.index, nil)
	if err != nil {
		return err
	}
	if status == http.StatusOK {
		return nil
	}

	status, body, err := c.do(ctx, http.MethodPut, "/"+c.index, []byte(eventIndexMapping))
	if err != nil {
		return err
	}
	if status >= 300 {
		// concurrent creation races are benign
		if strings.Contains(string(body), "resource_already_exists_exception") {
			return nil
		}
		return errors.NewExternalError("document store",
			fmt.Errorf("create index %s: status %d: %s", c.index, status, body))
	}

	c.logger.Info("created search index", zap.String("index", c.index))
	return nil
}

// IndexBatch bulk-writes records keyed by id and returns how many the
// store accepted.
func (c *Client) IndexBatch(ctx context.Context, recs []*event.Event) (int, error) {
	if len(recs) == 0 {
		return 0, nil
	}

	var buf bytes.Buffer
	for _, rec := range recs {
		action := map[string]map[string]string{
			"index": {"_index": c.index, "_id": rec.ID},
		}
		actionLine, err := json.Marshal(action)
		if err != nil {
			return 0, fmt.Errorf("encode bulk action: %w", err)
		}
		payload, err := rec.Payload()
		if err != nil {
			return 0, err
		}
		buf.Write(actionLine)
		buf.WriteByte('\n')
		buf.Write(payload)
		buf.WriteByte('\n')
	}

	status, body, err := c.do(ctx, http.MethodPost, "/_bulk", buf.Bytes())
	if err != nil {
		return 0, err
	}
	if status >= 300 {
		return 0, errors.NewExternalError("document store",
			fmt.Errorf("bulk index: status %d: %s", status, body))
	}

	var result struct {
		Errors bool `json:"errors"`
		Items  []map[string]struct {
			Status int `json:"status"`
		} `json:"items"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return 0, errors.NewExternalError("document store",
			fmt.Errorf("parse bulk response: %w", err))
	}

	indexed := 0
	for _, item := range result.Items {
		for _, op := range item {
			if op.Status < 300 {
				indexed++
			}
		}
	}
	if result.Errors {
		c.logger.Warn("some documents failed to index",
			zap.Int("indexed", indexed),
			zap.Int("submitted", len(recs)),
		)
	}
	return indexed, nil
}

// Search runs a free-text query; "*" or empty matches everything
func (c *Client) Search(ctx context.Context, query string, size int) (*ports.SearchResult, error) {
	if size <= 0 {
		size = 10
	}
	if size > maxSearchSize {
		size = maxSearchSize
	}

	var body map[string]interface{}
	if query == "" || query == "*" {
		body = map[string]interface{}{
			"query": map[string]interface{}{"match_all": map[string]interface{}{}},
			"size":  size,
			"sort":  []interface{}{map[string]interface{}{"timestamp": map[string]string{"order": "desc"}}},
		}
	} else {
		body = map[string]interface{}{
			"query": map[string]interface{}{
				"multi_match": map[string]interface{}{
					"query":     query,
					"fields":    []string{"search_query^2", "category", "event_type", "review_text", "page_url"},
					"type":      "best_fields",
					"fuzziness": "AUTO",
				},
			},
			"size": size,
			"sort": []interface{}{
				map[string]interface{}{"_score": map[string]string{"order": "desc"}},
				map[string]interface{}{"timestamp": map[string]string{"order": "desc"}},
			},
		}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode search body: %w", err)
	}

	status, respBody, err := c.do(ctx, http.MethodPost, "/"+c.index+"/_search", payload)
	if err != nil {
		return nil, err
	}
	if status >= 300 {
		return nil, errors.NewExternalError("document store",
			fmt.Errorf("search: status %d: %s", status, respBody))
	}

	var parsed struct {
		Hits struct {
			Total struct {
				Value int `json:"value"`
			} `json:"total"`
			MaxScore float64 `json:"max_score"`
			Hits     []struct {
				Source json.RawMessage `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, errors.NewExternalError("document store",
			fmt.Errorf("parse search response: %w", err))
	}

	result := &ports.SearchResult{
		Total:    parsed.Hits.Total.Value,
		MaxScore: parsed.Hits.MaxScore,
		Hits:     make([]json.RawMessage, 0, len(parsed.Hits.Hits)),
	}
	for _, hit := range parsed.Hits.Hits {
		result.Hits = append(result.Hits, hit.Source)
	}
	return result, nil
}

// Health checks cluster reachability
func (c *Client) Health(ctx context.Context) error {
	status, body, err := c.do(ctx, http.MethodGet, "/_cluster/health", nil)
	if err != nil {
		return err
	}
	if status >= 300 {
		return errors.NewExternalError("document store",
			fmt.Errorf("cluster health: status %d: %s", status, body))
	}
	return nil
}

// do signs and executes one request, returning status and body
func (c *Client) do(ctx context.Context, method, path string, body []byte) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	if len(body) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}

	payloadHash := sha256.Sum256(body)
	hexHash := hex.EncodeToString(payloadHash[:])

	creds, err := c.creds.Retrieve(ctx)
	if err != nil {
		return 0, nil, errors.NewExternalError("document store",
			fmt.Errorf("retrieve signing credentials: %w", err))
	}
	if err := c.signer.SignHTTP(ctx, creds, req, hexHash, signingService, c.region, time.Now()); err != nil {
		return 0, nil, errors.NewExternalError("document store",
			fmt.Errorf("sign request: %w", err))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, errors.NewUnavailableError("document store").WithCause(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, errors.NewUnavailableError("document store").WithCause(err)
	}
	return resp.StatusCode, respBody, nil
}
