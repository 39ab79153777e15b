package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-photo-gallery/internal/config"
	"go-photo-gallery/internal/remote"
)

// fakeBucket is a path-style S3 endpoint holding a single object. It honours
// If-Match and If-None-Match on PUT.
type fakeBucket struct {
	mu      sync.Mutex
	object  []byte
	etag    string
	version int
	deny    bool
	// writeAfterHead simulates another writer replacing the object right
	// after the mirror looked it up.
	writeAfterHead bool
	ifMatch        []string
	ifNoneMatch    []string
}

func (b *fakeBucket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if r.URL.Path != "/gallery-backups/data/db_backup.json" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if b.deny {
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `<Error><Code>AccessDenied</Code><Message>denied</Message></Error>`)
		return
	}
	switch r.Method {
	case http.MethodHead:
		if b.object == nil {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("ETag", b.etag)
		w.WriteHeader(http.StatusOK)
		if b.writeAfterHead {
			b.store([]byte(`{"folders":[],"images":[],"surveys":[],"other":true}`))
		}
	case http.MethodPut:
		ifMatch, ifNoneMatch := r.Header.Get("If-Match"), r.Header.Get("If-None-Match")
		b.ifMatch = append(b.ifMatch, ifMatch)
		b.ifNoneMatch = append(b.ifNoneMatch, ifNoneMatch)
		if (ifMatch != "" && ifMatch != b.etag) || (ifNoneMatch == "*" && b.object != nil) {
			w.WriteHeader(http.StatusPreconditionFailed)
			_, _ = io.WriteString(w, `<Error><Code>PreconditionFailed</Code><Message>At least one of the pre-conditions you specified did not hold</Message></Error>`)
			return
		}
		data, _ := io.ReadAll(r.Body)
		b.store(data)
		w.Header().Set("ETag", b.etag)
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (b *fakeBucket) store(data []byte) {
	b.object = data
	b.version++
	b.etag = fmt.Sprintf(`"etag-%d"`, b.version)
}

func newTestMirror(t *testing.T, bucket *fakeBucket) *S3Mirror {
	t.Helper()
	srv := httptest.NewServer(bucket)
	t.Cleanup(srv.Close)

	m, err := NewS3Mirror(config.S3Config{
		Region:          "us-east-1",
		AccessKeyID:     "test",
		SecretAccessKey: "test",
		BucketName:      "gallery-backups",
		Endpoint:        srv.URL,
		Key:             "data/db_backup.json",
		ForcePathStyle:  true,
	})
	require.NoError(t, err)
	return m
}

func snapshotFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "db_backup.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestS3Mirror_Push(t *testing.T) {
	bucket := &fakeBucket{}
	m := newTestMirror(t, bucket)
	path := snapshotFile(t, `{"folders":[],"images":[],"surveys":[]}`)

	result, err := m.Push(context.Background(), path)
	require.NoError(t, err)
	assert.True(t, result.Created)
	assert.Equal(t, "etag-1", result.ContentSHA)
	assert.Equal(t, "gallery-backups", result.Target)
	assert.Equal(t, config.RemoteS3, result.Provider)

	result, err = m.Push(context.Background(), path)
	require.NoError(t, err)
	assert.False(t, result.Created)
	assert.Equal(t, "etag-2", result.ContentSHA)

	bucket.mu.Lock()
	defer bucket.mu.Unlock()
	assert.Contains(t, string(bucket.object), `"folders":[]`)
	assert.Equal(t, []string{"", `"etag-1"`}, bucket.ifMatch)
	assert.Equal(t, []string{"*", ""}, bucket.ifNoneMatch)
}

func TestS3Mirror_StaleObjectIsConflict(t *testing.T) {
	bucket := &fakeBucket{}
	m := newTestMirror(t, bucket)
	path := snapshotFile(t, `{"folders":[],"images":[],"surveys":[]}`)

	_, err := m.Push(context.Background(), path)
	require.NoError(t, err)

	bucket.mu.Lock()
	bucket.writeAfterHead = true
	bucket.mu.Unlock()

	_, err = m.Push(context.Background(), path)
	require.Error(t, err)
	assert.Equal(t, remote.KindConflict, remote.KindOf(err))

	bucket.mu.Lock()
	defer bucket.mu.Unlock()
	assert.Contains(t, string(bucket.object), `"other":true`)
	assert.Len(t, bucket.ifMatch, 2)
}

func TestS3Mirror_AccessDenied(t *testing.T) {
	m := newTestMirror(t, &fakeBucket{deny: true})

	_, err := m.Push(context.Background(), snapshotFile(t, "{}"))
	require.Error(t, err)
	assert.Equal(t, remote.KindForbidden, remote.KindOf(err))
}

func TestS3Mirror_Preconditions(t *testing.T) {
	m := newTestMirror(t, &fakeBucket{})

	_, err := m.Push(context.Background(), filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, remote.ErrSnapshotMissing)

	_, err = m.Push(context.Background(), snapshotFile(t, ""))
	assert.ErrorIs(t, err, remote.ErrSnapshotEmpty)
}

func TestNewS3Mirror_RequiresBucket(t *testing.T) {
	_, err := NewS3Mirror(config.S3Config{Region: "us-east-1"})
	assert.Error(t, err)
}

func TestNewPusher(t *testing.T) {
	p, err := NewPusher(config.RemoteConfig{Provider: config.RemoteNone})
	require.NoError(t, err)
	assert.Nil(t, p)

	p, err = NewPusher(config.RemoteConfig{Provider: config.RemoteGitHub})
	require.NoError(t, err)
	assert.IsType(t, &remote.GitHubClient{}, p)

	_, err = NewPusher(config.RemoteConfig{Provider: config.RemoteS3})
	assert.Error(t, err)

	p, err = NewPusher(config.RemoteConfig{Provider: config.RemoteS3, S3: config.S3Config{Region: "us-east-1", BucketName: "gallery-backups"}})
	require.NoError(t, err)
	assert.IsType(t, &S3Mirror{}, p)
}
