package s3

import (
	"context"
	"errors"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqarhub/property-service/internal/platform/logger"
	"github.com/aqarhub/property-service/internal/property/domain"
)

var (
	errNoSuchKey    = minio.ErrorResponse{Code: "NoSuchKey", Message: "The specified key does not exist."}
	errAccessDenied = minio.ErrorResponse{Code: "AccessDenied", Message: "Access Denied."}
)

// fakeClient backs the storage with an in-memory object set. Removing a key
// that is not present yields NoSuchKey, the way the real server answers.
type fakeClient struct {
	mu      sync.Mutex
	putErr  error
	failKey string
	failErr error
	objects map[string]bool
	removed []string
}

func newFakeClient() *fakeClient {
	return &fakeClient{objects: make(map[string]bool)}
}

func (f *fakeClient) PutObject(ctx context.Context, bucket, key string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return minio.UploadInfo{}, f.putErr
	}
	f.objects[key] = true
	return minio.UploadInfo{Bucket: bucket, Key: key, Size: size}, nil
}

func (f *fakeClient) RemoveObject(ctx context.Context, bucket, key string, opts minio.RemoveObjectOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, key)
	if key == f.failKey {
		return f.failErr
	}
	if !f.objects[key] {
		return errNoSuchKey
	}
	delete(f.objects, key)
	return nil
}

func (f *fakeClient) RemoveObjects(ctx context.Context, bucket string, objectsCh <-chan minio.ObjectInfo, opts minio.RemoveObjectsOptions) <-chan minio.RemoveObjectError {
	out := make(chan minio.RemoveObjectError)
	go func() {
		defer close(out)
		for info := range objectsCh {
			if err := f.RemoveObject(ctx, bucket, info.Key, minio.RemoveObjectOptions{}); err != nil {
				out <- minio.RemoveObjectError{ObjectName: info.Key, Err: err}
			}
		}
	}()
	return out
}

func (f *fakeClient) EndpointURL() *url.URL {
	return &url.URL{Scheme: "http", Host: "minio.local:9000"}
}

func newTestStorage(client objectClient) *S3Storage {
	return &S3Storage{client: client, bucket: "properties", logger: logger.NewLogger()}
}

func stagedFile(t *testing.T) domain.Attachment {
	t.Helper()
	path := filepath.Join(t.TempDir(), "photo.jpg")
	require.NoError(t, os.WriteFile(path, []byte("jpegdata"), 0o644))
	return domain.Attachment{FieldKey: "mainImages", StoredName: "photo.jpg", Path: path, Size: 8}
}

func TestUpload(t *testing.T) {
	client := newFakeClient()
	storage := newTestStorage(client)

	asset, err := storage.Upload(context.Background(), stagedFile(t))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(asset.PublicID, "properties/"))
	assert.True(t, strings.HasSuffix(asset.PublicID, ".jpg"))
	assert.Equal(t, "http://minio.local:9000/properties/"+asset.PublicID, asset.URL)
	assert.True(t, client.objects[asset.PublicID])
}

func TestUpload_FailureRemovesGeneratedKey(t *testing.T) {
	client := newFakeClient()
	client.putErr = errors.New("request canceled")
	storage := newTestStorage(client)

	_, err := storage.Upload(context.Background(), stagedFile(t))
	require.Error(t, err)

	// The key is deleted best-effort in case the object landed despite the
	// client-side failure.
	require.Len(t, client.removed, 1)
	assert.True(t, strings.HasPrefix(client.removed[0], "properties/"))
}

func TestRemove_AlreadyDeletedKeyIsSatisfied(t *testing.T) {
	client := newFakeClient()
	storage := newTestStorage(client)

	err := storage.Remove(context.Background(), "properties/long-gone.jpg")
	assert.NoError(t, err)
	assert.Contains(t, client.removed, "properties/long-gone.jpg")
}

func TestRemove_RealErrorSurfaces(t *testing.T) {
	client := newFakeClient()
	client.failKey = "properties/locked.jpg"
	client.failErr = errAccessDenied
	storage := newTestStorage(client)

	err := storage.Remove(context.Background(), "properties/locked.jpg")
	assert.Error(t, err)
}

func TestRemoveMany_ToleratesUnknownKeys(t *testing.T) {
	client := newFakeClient()
	client.objects["properties/a.jpg"] = true
	storage := newTestStorage(client)

	err := storage.RemoveMany(context.Background(), []string{"properties/a.jpg", "properties/gone.jpg"})
	assert.NoError(t, err)
	assert.Empty(t, client.objects)
}

func TestRemoveMany_AttemptsWholeBatchBeforeFailing(t *testing.T) {
	client := newFakeClient()
	client.objects["properties/a.jpg"] = true
	client.objects["properties/c.jpg"] = true
	client.failKey = "properties/b.jpg"
	client.failErr = errAccessDenied
	storage := newTestStorage(client)

	err := storage.RemoveMany(context.Background(),
		[]string{"properties/a.jpg", "properties/b.jpg", "properties/c.jpg"})
	assert.Error(t, err)
	// Keys after the failing one were still attempted.
	assert.Empty(t, client.objects)
}

func TestIsNoSuchKey(t *testing.T) {
	assert.True(t, isNoSuchKey(errNoSuchKey))
	assert.False(t, isNoSuchKey(errAccessDenied))
	assert.False(t, isNoSuchKey(errors.New("connection reset")))
	assert.False(t, isNoSuchKey(nil))
}
