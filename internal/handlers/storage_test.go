package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contentstack/internal/enrich"
	"contentstack/internal/store"
)

func newStorageHandler(t *testing.T) (*StorageHandler, *testEnv) {
	t.Helper()
	env := newTestEnv(t)
	enricher := enrich.New(env.store, env.libraryDir, nil)
	return NewStorageHandler(env.store, enricher), env
}

func TestStorageFilesTotals(t *testing.T) {
	h, env := newStorageHandler(t)

	_, err := env.store.Create(context.Background(), store.CreateInput{
		Method:  "paste",
		Content: "plain text body",
	})
	require.NoError(t, err)
	_, err = env.store.Create(context.Background(), store.CreateInput{
		Method:  "paste",
		Content: "func main() { run() }",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/storage/files", nil)
	w := httptest.NewRecorder()
	h.Files(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Success bool `json:"success"`
		Total   struct {
			Files int   `json:"files"`
			Size  int64 `json:"size"`
		} `json:"total"`
		FilesByType map[string][]store.BlobInfo `json:"filesByType"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 2, resp.Total.Files)
	assert.Greater(t, resp.Total.Size, int64(0))
	assert.Len(t, resp.FilesByType["text"], 1)
	assert.Len(t, resp.FilesByType["code"], 1)
}

func TestStorageByTypeRejectsTraversal(t *testing.T) {
	h, _ := newStorageHandler(t)

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/storage/..", nil), "type", "..")
	w := httptest.NewRecorder()
	h.ByType(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEnrichEndpoint(t *testing.T) {
	h, env := newStorageHandler(t)

	rec, err := env.store.Create(context.Background(), store.CreateInput{
		Method:  "paste",
		Content: "# API Guide\n\n- use the api client\n- handle errors",
	})
	require.NoError(t, err)

	body := `{"fileIds": ["` + rec.ID + `", "content-0-missing"]}`
	req := httptest.NewRequest(http.MethodPost, "/api/storage/enrich", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.Enrich(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Success  bool `json:"success"`
		Enriched int  `json:"enriched"`
		Skipped  int  `json:"skipped"`
		Errors   int  `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 1, resp.Enriched)
	assert.Equal(t, 0, resp.Skipped)
	assert.Equal(t, 1, resp.Errors)

	got, err := env.store.Get(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, store.StatusStored, got.Status)
	require.NotNil(t, got.LLMAnalysis)
	assert.Equal(t, "tech", got.LLMAnalysis.Category)
}
