package reliability

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coinscan/internal/config"
)

// fakeStorage runs an httptest server standing in for an S3-compatible
// endpoint and returns a client pointed at it in path style.
func fakeStorage(t *testing.T, handler http.HandlerFunc) *S3Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewS3Client(&config.BackupConfig{
		Enabled:   true,
		Endpoint:  srv.URL,
		Region:    "auto",
		Bucket:    "backups",
		AccessKey: "test-access",
		SecretKey: "test-secret",
	}, zerolog.Nop())
	require.NoError(t, err)
	return client
}

func TestUploadSendsObjectThroughUploadManager(t *testing.T) {
	var (
		gotMethod string
		gotPath   string
		gotBody   string
	)
	client := fakeStorage(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		b, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		gotBody = string(b)

		w.Header().Set("ETag", `"d41d8cd98f"`)
		w.WriteHeader(http.StatusOK)
	})

	body := strings.NewReader("archive-bytes")
	err := client.Upload(context.Background(), "coinscan-backup-2026-01-01.tar.gz", body, int64(body.Len()))
	require.NoError(t, err)

	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/backups/coinscan-backup-2026-01-01.tar.gz", gotPath)
	assert.Equal(t, "archive-bytes", gotBody)
}

func TestUploadPropagatesStorageError(t *testing.T) {
	client := fakeStorage(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "access denied", http.StatusForbidden)
	})

	body := strings.NewReader("archive-bytes")
	err := client.Upload(context.Background(), "coinscan-backup-x.tar.gz", body, int64(body.Len()))
	assert.ErrorContains(t, err, "coinscan-backup-x.tar.gz")
}

func TestListReturnsObjectsNewestFirst(t *testing.T) {
	const listing = `<?xml version="1.0" encoding="UTF-8"?>
<ListBucketResult>
	<Name>backups</Name>
	<IsTruncated>false</IsTruncated>
	<Contents>
		<Key>coinscan-backup-old.tar.gz</Key>
		<Size>10</Size>
		<LastModified>2026-01-01T00:00:00Z</LastModified>
	</Contents>
	<Contents>
		<Key>coinscan-backup-new.tar.gz</Key>
		<Size>20</Size>
		<LastModified>2026-02-01T00:00:00Z</LastModified>
	</Contents>
</ListBucketResult>`

	client := fakeStorage(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, backupPrefix, r.URL.Query().Get("prefix"))
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(listing))
	})

	objects, err := client.List(context.Background(), backupPrefix)
	require.NoError(t, err)
	require.Len(t, objects, 2)

	assert.Equal(t, "coinscan-backup-new.tar.gz", objects[0].Key)
	assert.Equal(t, int64(20), objects[0].SizeBytes)
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), objects[0].LastModified)
	assert.Equal(t, "coinscan-backup-old.tar.gz", objects[1].Key)
}

func TestDeleteRemovesObject(t *testing.T) {
	var gotPath string
	client := fakeStorage(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, client.Delete(context.Background(), "coinscan-backup-old.tar.gz"))
	assert.Equal(t, "/backups/coinscan-backup-old.tar.gz", gotPath)
}
