package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventpipe/domain/event"
)

func testCreds() aws.CredentialsProvider {
	return credentials.NewStaticCredentialsProvider("AKIATEST", "secret", "")
}

// newTestClient points a client at an httptest server, bypassing TLS
func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient("example.test", "user-events", "us-east-1", testCreds(), nil)
	c.baseURL = srv.URL
	c.httpClient = srv.Client()
	return c
}

func TestRequestSigning(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		assert.Contains(t, auth, "AWS4-HMAC-SHA256")
		assert.Contains(t, auth, "Credential=AKIATEST")
		assert.Contains(t, auth, "us-east-1/es/aws4_request")
		assert.NotEmpty(t, r.Header.Get("X-Amz-Date"))
		w.Write([]byte(`{"status":"green"}`))
	})

	require.NoError(t, client.Health(context.Background()))
}

func TestEnsureIndex(t *testing.T) {
	t.Run("existing index is a no-op", func(t *testing.T) {
		var puts int
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPut {
				puts++
			}
			w.WriteHeader(http.StatusOK)
		})

		require.NoError(t, client.EnsureIndex(context.Background()))
		assert.Zero(t, puts)
	})

	t.Run("missing index gets created with mapping", func(t *testing.T) {
		var mapping []byte
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodHead:
				w.WriteHeader(http.StatusNotFound)
			case http.MethodPut:
				assert.Equal(t, "/user-events", r.URL.Path)
				mapping, _ = io.ReadAll(r.Body)
				w.WriteHeader(http.StatusOK)
			}
		})

		require.NoError(t, client.EnsureIndex(context.Background()))
		assert.Contains(t, string(mapping), `"event_type": {"type": "keyword"}`)
		assert.Contains(t, string(mapping), `"ip_address": {"type": "ip"}`)
	})

	t.Run("creation race is benign", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodHead:
				w.WriteHeader(http.StatusNotFound)
			case http.MethodPut:
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(`{"error":{"type":"resource_already_exists_exception"}}`))
			}
		})

		require.NoError(t, client.EnsureIndex(context.Background()))
	})
}

func TestIndexBatch(t *testing.T) {
	recs := event.NewSeededGenerator(13).GenerateBatch(2)

	t.Run("bulk body pairs action and payload lines", func(t *testing.T) {
		var body []byte
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/_bulk", r.URL.Path)
			body, _ = io.ReadAll(r.Body)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"errors": false,
				"items": []map[string]interface{}{
					{"index": map[string]int{"status": 201}},
					{"index": map[string]int{"status": 201}},
				},
			})
		})

		indexed, err := client.IndexBatch(context.Background(), recs)
		require.NoError(t, err)
		assert.Equal(t, 2, indexed)
		assert.Contains(t, string(body), `"_index":"user-events"`)
		assert.Contains(t, string(body), `"_id":"`+recs[0].ID+`"`)
		assert.Contains(t, string(body), `"_id":"`+recs[1].ID+`"`)
	})

	t.Run("partial failures counted", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]interface{}{
				"errors": true,
				"items": []map[string]interface{}{
					{"index": map[string]int{"status": 201}},
					{"index": map[string]int{"status": 429}},
				},
			})
		})

		indexed, err := client.IndexBatch(context.Background(), recs)
		require.NoError(t, err)
		assert.Equal(t, 1, indexed)
	})

	t.Run("rejected bulk is an error", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})

		_, err := client.IndexBatch(context.Background(), recs)
		assert.Error(t, err)
	})

	t.Run("empty batch skips the request", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("unexpected request")
		})

		indexed, err := client.IndexBatch(context.Background(), nil)
		require.NoError(t, err)
		assert.Zero(t, indexed)
	})
}

func TestSearch(t *testing.T) {
	searchResponse := map[string]interface{}{
		"hits": map[string]interface{}{
			"total":     map[string]int{"value": 2},
			"max_score": 1.5,
			"hits": []map[string]interface{}{
				{"_source": map[string]string{"id": "a"}},
				{"_source": map[string]string{"id": "b"}},
			},
		},
	}

	t.Run("free text uses multi_match", func(t *testing.T) {
		var body map[string]interface{}
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/user-events/_search", r.URL.Path)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			json.NewEncoder(w).Encode(searchResponse)
		})

		result, err := client.Search(context.Background(), "laptop", 10)
		require.NoError(t, err)
		assert.Equal(t, 2, result.Total)
		assert.InDelta(t, 1.5, result.MaxScore, 0.001)
		assert.Len(t, result.Hits, 2)

		query := body["query"].(map[string]interface{})
		assert.Contains(t, query, "multi_match")
	})

	t.Run("wildcard uses match_all", func(t *testing.T) {
		var body map[string]interface{}
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			json.NewEncoder(w).Encode(searchResponse)
		})

		_, err := client.Search(context.Background(), "*", 10)
		require.NoError(t, err)

		query := body["query"].(map[string]interface{})
		assert.Contains(t, query, "match_all")
	})

	t.Run("size is clamped", func(t *testing.T) {
		var body map[string]interface{}
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			json.NewEncoder(w).Encode(searchResponse)
		})

		_, err := client.Search(context.Background(), "x", 5000)
		require.NoError(t, err)
		assert.Equal(t, float64(100), body["size"])
	})

	t.Run("cluster failure is an error", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})

		_, err := client.Search(context.Background(), "x", 10)
		assert.Error(t, err)
	})
}

func TestHealth(t *testing.T) {
	t.Run("reachable cluster", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/_cluster/health", r.URL.Path)
			w.Write([]byte(`{"status":"yellow"}`))
		})

		assert.NoError(t, client.Health(context.Background()))
	})

	t.Run("unreachable cluster", func(t *testing.T) {
		client := NewClient("localhost:1", "user-events", "us-east-1", testCreds(), nil)

		assert.Error(t, client.Health(context.Background()))
	})
}
