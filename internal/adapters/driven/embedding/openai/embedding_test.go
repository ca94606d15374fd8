package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragcore/internal/adapters/driven/embedding"
	"github.com/custodia-labs/ragcore/internal/core/domain"
)

type embeddingsRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions"`
}

// fakeAPI serves /v1/embeddings with vectors in reverse index order to
// check reordering, and /v1/models for Ping.
func fakeAPI(t *testing.T, requests *int32, last *embeddingsRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Path {
		case "/v1/models":
			_, _ = w.Write([]byte(`{"object": "list", "data": []}`))
		case "/v1/embeddings":
			if requests != nil {
				atomic.AddInt32(requests, 1)
			}
			var req embeddingsRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			if last != nil {
				*last = req
			}
			data := make([]map[string]any, 0, len(req.Input))
			for i := len(req.Input) - 1; i >= 0; i-- {
				data = append(data, map[string]any{
					"object":    "embedding",
					"index":     i,
					"embedding": []float64{float64(len([]rune(req.Input[i]))), 0.25},
				})
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"object": "list",
				"data":   data,
				"model":  req.Model,
				"usage":  map[string]any{"prompt_tokens": 1, "total_tokens": 1},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newService(t *testing.T, url string, model string) *EmbeddingService {
	t.Helper()
	svc, err := NewEmbeddingService(Config{APIKey: "sk-test", BaseURL: url + "/v1", Model: model, Timeout: 5 * time.Second})
	require.NoError(t, err)
	return svc
}

func TestNewEmbeddingService_RequiresAPIKey(t *testing.T) {
	_, err := NewEmbeddingService(Config{})
	assert.Error(t, err)
}

func TestNewEmbeddingService_Dimensions(t *testing.T) {
	tests := []struct {
		model string
		want  int
	}{
		{"", 1536},
		{"text-embedding-3-large", 3072},
		{"text-embedding-ada-002", 1536},
		{"custom-model", 1536},
	}
	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			svc, err := NewEmbeddingService(Config{APIKey: "k", Model: tt.model})
			require.NoError(t, err)
			assert.Equal(t, tt.want, svc.Dimensions())
		})
	}

	svc, err := NewEmbeddingService(Config{APIKey: "k", Dimensions: 256})
	require.NoError(t, err)
	assert.Equal(t, 256, svc.Dimensions())
	assert.Equal(t, DefaultModel, svc.ModelName())
}

func TestEmbedBatch_OrdersByIndex(t *testing.T) {
	var last embeddingsRequest
	srv := fakeAPI(t, nil, &last)
	svc := newService(t, srv.URL, "")

	vecs, err := svc.EmbedBatch(context.Background(), []string{"a", "bbb", "건축법규"})

	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0.25}, {3, 0.25}, {4, 0.25}}, vecs)
	assert.Equal(t, "text-embedding-3-small", last.Model)
	assert.Equal(t, 1536, last.Dimensions)
}

func TestEmbedBatch_NoDimensionsForLegacyModel(t *testing.T) {
	var last embeddingsRequest
	srv := fakeAPI(t, nil, &last)
	svc := newService(t, srv.URL, "text-embedding-ada-002")

	_, err := svc.Embed(context.Background(), "text")

	require.NoError(t, err)
	assert.Zero(t, last.Dimensions)
}

func TestEmbedBatch_SplitsLargeInput(t *testing.T) {
	var requests int32
	srv := fakeAPI(t, &requests, nil)
	svc := newService(t, srv.URL, "")

	texts := make([]string, MaxBatch+10)
	for i := range texts {
		texts[i] = fmt.Sprintf("text %d", i)
	}
	vecs, err := svc.EmbedBatch(context.Background(), texts)

	require.NoError(t, err)
	assert.Len(t, vecs, len(texts))
	assert.Equal(t, int32(2), atomic.LoadInt32(&requests))
	assert.Equal(t, float32(len("text 2050")), vecs[2050][0])
}

func TestEmbed_EmptyInput(t *testing.T) {
	var requests int32
	srv := fakeAPI(t, &requests, nil)
	svc := newService(t, srv.URL, "")

	_, err := svc.Embed(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrEmptyInput)
	_, err = svc.EmbedBatch(context.Background(), []string{"ok", " "})
	assert.ErrorIs(t, err, domain.ErrEmptyInput)
	assert.Zero(t, atomic.LoadInt32(&requests))
}

func TestEmbed_APIErrors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		rateLimited bool
	}{
		{"unauthorised", http.StatusUnauthorized, false},
		{"server error", http.StatusInternalServerError, false},
		{"rate limited", http.StatusTooManyRequests, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", "4")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"error": {"message": "denied", "type": "error"}}`))
			}))
			defer srv.Close()

			_, err := newService(t, srv.URL, "").Embed(context.Background(), "text")

			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrProviderFailure)
			assert.Equal(t, tt.rateLimited, errors.Is(err, domain.ErrRateLimited))
			if tt.rateLimited {
				wait, ok := embedding.RetryAfter(err)
				assert.True(t, ok)
				assert.Equal(t, 4*time.Second, wait)
			}
		})
	}
}

func TestEmbed_CountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object": "list", "data": [], "model": "m", "usage": {"prompt_tokens": 0, "total_tokens": 0}}`))
	}))
	defer srv.Close()

	_, err := newService(t, srv.URL, "").Embed(context.Background(), "text")

	assert.ErrorIs(t, err, domain.ErrProviderFailure)
}

func TestPing(t *testing.T) {
	srv := fakeAPI(t, nil, nil)
	assert.NoError(t, newService(t, srv.URL, "").Ping(context.Background()))

	denied := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "bad key"}}`))
	}))
	defer denied.Close()

	err := newService(t, denied.URL, "").Ping(context.Background())
	assert.ErrorIs(t, err, domain.ErrProviderFailure)
	assert.NoError(t, newService(t, denied.URL, "").Close())
}
