package handlers

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"contentstack/internal/filelock"
	"contentstack/internal/fscache"
	"contentstack/internal/store"
)

// testEnv bundles the on-disk fixtures the handler tests share.
type testEnv struct {
	store       *store.RecordStore
	storageDir  string
	metadataDir string
	libraryDir  string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dataDir := t.TempDir()
	dirCache := fscache.NewDirCache()
	t.Cleanup(dirCache.Dispose)

	env := &testEnv{
		storageDir:  filepath.Join(dataDir, "storage"),
		metadataDir: filepath.Join(dataDir, "metadata"),
		libraryDir:  filepath.Join(dataDir, "library"),
	}
	for _, dir := range []string{env.storageDir, env.metadataDir, env.libraryDir} {
		require.NoError(t, os.MkdirAll(dir, 0755))
	}
	env.store = store.New(env.storageDir, env.metadataDir, filelock.New(), dirCache)
	return env
}

func (e *testEnv) metadataPath(id string) string {
	return filepath.Join(e.metadataDir, id+".json")
}

// withURLParam attaches a chi route parameter so handlers can be
// exercised without a full router.
func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}
