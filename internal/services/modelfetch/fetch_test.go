package modelfetch

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var artifact = bytes.Repeat([]byte("onnx-weights-"), 4096)

func artifactServer(t *testing.T, hits *atomic.Int32, lastRange *atomic.Value, auth *atomic.Value) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if lastRange != nil {
			lastRange.Store(r.Header.Get("Range"))
		}
		if auth != nil {
			auth.Store(r.Header.Get("Authorization"))
		}
		switch r.URL.Path {
		case "/acme/pests/resolve/main/resnet.onnx", "/models/resnet.onnx":
			http.ServeContent(w, r, "resnet.onnx", time.Time{}, bytes.NewReader(artifact))
		case "/empty.onnx":
			w.WriteHeader(http.StatusOK)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestFetcher(dir string, hfBase string) *Fetcher {
	return NewFetcher(dir,
		WithOutput(nil),
		WithHuggingface(hfBase, "hf_secret"),
		WithMaxElapsed(2*time.Second),
	)
}

func TestParseSource(t *testing.T) {
	src, err := ParseSource("hf:acme/pests/weights/resnet.onnx")
	require.NoError(t, err)
	assert.Equal(t, SourceTypeHuggingface, src.Type)
	assert.Equal(t, "https://huggingface.co/acme/pests/resolve/main/weights/resnet.onnx", src.URL(""))
	assert.Equal(t, "resnet.onnx", src.Filename())

	src, err = ParseSource("https://example.com/files/crop_model.onnx?download=1")
	require.NoError(t, err)
	assert.Equal(t, SourceTypeDirect, src.Type)
	assert.Equal(t, "crop_model.onnx", src.Filename())

	src, err = ParseSource("file:/tmp/classes.txt")
	require.NoError(t, err)
	assert.Equal(t, SourceTypeFile, src.Type)
	assert.Equal(t, "classes.txt", src.Filename())

	for _, bad := range []string{"", "s3://bucket/x", "hf:acme/pests"} {
		_, err := ParseSource(bad)
		assert.Error(t, err, bad)
	}
}

func TestFetchHuggingface(t *testing.T) {
	var hits atomic.Int32
	var auth atomic.Value
	server := artifactServer(t, &hits, nil, &auth)
	dir := t.TempDir()

	path, err := newTestFetcher(dir, server.URL).Fetch(context.Background(), "hf:acme/pests/resnet.onnx", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "resnet.onnx"), path)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, artifact, got)
	assert.Equal(t, "Bearer hf_secret", auth.Load())

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestFetchDirectWithName(t *testing.T) {
	var hits atomic.Int32
	var auth atomic.Value
	server := artifactServer(t, &hits, nil, &auth)
	dir := t.TempDir()

	path, err := newTestFetcher(dir, server.URL).Fetch(context.Background(), server.URL+"/models/resnet.onnx", "resnet50_0.497.onnx")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "resnet50_0.497.onnx"), path)
	assert.Equal(t, "", auth.Load())
}

func TestFetchResumesPartialDownload(t *testing.T) {
	var hits atomic.Int32
	var lastRange atomic.Value
	server := artifactServer(t, &hits, &lastRange, nil)
	dir := t.TempDir()

	partial := artifact[:1000]
	require.NoError(t, os.WriteFile(filepath.Join(dir, "resnet.onnx.tmp"), partial, 0o644))

	path, err := newTestFetcher(dir, server.URL).Fetch(context.Background(), server.URL+"/models/resnet.onnx", "")
	require.NoError(t, err)
	assert.Equal(t, "bytes=1000-", lastRange.Load())

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, artifact, got)
}

func TestFetchNotFoundIsPermanent(t *testing.T) {
	var hits atomic.Int32
	server := artifactServer(t, &hits, nil, nil)

	_, err := newTestFetcher(t.TempDir(), server.URL).Fetch(context.Background(), server.URL+"/missing.onnx", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
	assert.Equal(t, int32(1), hits.Load())
}

func TestFetchRejectsEmptyArtifact(t *testing.T) {
	var hits atomic.Int32
	server := artifactServer(t, &hits, nil, nil)

	_, err := newTestFetcher(t.TempDir(), server.URL).Fetch(context.Background(), server.URL+"/empty.onnx", "")
	assert.ErrorIs(t, err, ErrEmptyArtifact)
}

func TestFetchRejectsUnsafeName(t *testing.T) {
	_, err := newTestFetcher(t.TempDir(), "").Fetch(context.Background(), "https://example.com/x.onnx", "../x.onnx")
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "invalid artifact name"))
}

func TestFetchLocalFile(t *testing.T) {
	srcDir := t.TempDir()
	src := filepath.Join(srcDir, "classes.txt")
	require.NoError(t, os.WriteFile(src, []byte("aphid\nmite\n"), 0o644))

	dir := t.TempDir()
	path, err := newTestFetcher(dir, "").Fetch(context.Background(), "file:"+src, "")
	require.NoError(t, err)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "aphid\nmite\n", string(got))
}
