package assets

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type fakeObjectStore struct {
	mu           sync.Mutex
	bucketExists bool
	made         []string
	objects      map[string]minio.ObjectInfo
	puts         map[string]minio.PutObjectOptions
	putErr       error
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{objects: map[string]minio.ObjectInfo{}, puts: map[string]minio.PutObjectOptions{}}
}

func (f *fakeObjectStore) BucketExists(context.Context, string) (bool, error) {
	return f.bucketExists, nil
}

func (f *fakeObjectStore) MakeBucket(_ context.Context, bucket string, _ minio.MakeBucketOptions) error {
	f.made = append(f.made, bucket)
	f.bucketExists = true
	return nil
}

func (f *fakeObjectStore) StatObject(_ context.Context, _, object string, _ minio.StatObjectOptions) (minio.ObjectInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	info, ok := f.objects[object]
	if !ok {
		return minio.ObjectInfo{}, minio.ErrorResponse{Code: "NoSuchKey", StatusCode: http.StatusNotFound}
	}
	return info, nil
}

func (f *fakeObjectStore) FPutObject(_ context.Context, _, object, file string, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	if f.putErr != nil {
		return minio.UploadInfo{}, f.putErr
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	sum := md5.Sum(data)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[object] = minio.ObjectInfo{Key: object, Size: int64(len(data)), ETag: hex.EncodeToString(sum[:])}
	f.puts[object] = opts
	return minio.UploadInfo{Key: object, Size: int64(len(data))}, nil
}

func writeFile(t *testing.T, dir, rel, body string) {
	t.Helper()
	full := filepath.Join(dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(body), 0o644))
}

func TestSyncUploadsChangedFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "images/home/home-hero.webp", "hero")
	writeFile(t, dir, "images/home/home-hero-mobile.webp", "hero-mobile")
	writeFile(t, dir, "videos/home/intro.mp4", "video")
	writeFile(t, dir, "images/.DS_Store", "junk")
	writeFile(t, dir, "static/site.css", "body{}")

	store := newFakeObjectStore()
	pub := NewPublisher(store, "veas-assets", dir, nil)

	report, err := pub.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Report{Uploaded: 3}, report)
	assert.Equal(t, []string{"veas-assets"}, store.made)

	objects := make([]string, 0, len(store.puts))
	for name := range store.puts {
		objects = append(objects, name)
	}
	sort.Strings(objects)
	assert.Equal(t, []string{"images/home/home-hero-mobile.webp", "images/home/home-hero.webp", "videos/home/intro.mp4"}, objects)
	assert.Equal(t, "image/webp", store.puts["images/home/home-hero.webp"].ContentType)
	assert.Equal(t, "video/mp4", store.puts["videos/home/intro.mp4"].ContentType)
	assert.Equal(t, cacheControl, store.puts["videos/home/intro.mp4"].CacheControl)

	store.puts = map[string]minio.PutObjectOptions{}
	writeFile(t, dir, "images/home/home-hero.webp", "hero v2")
	report, err = pub.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Report{Uploaded: 1, Skipped: 2}, report)
	assert.Contains(t, store.puts, "images/home/home-hero.webp")
}

func TestSyncMissingRoots(t *testing.T) {
	store := newFakeObjectStore()
	store.bucketExists = true

	report, err := NewPublisher(store, "b", t.TempDir(), nil).Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Report{}, report)
	assert.Empty(t, store.made)
}

func TestSyncUploadError(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	dir := t.TempDir()
	writeFile(t, dir, "images/a.webp", "a")
	writeFile(t, dir, "images/b.webp", "b")
	writeFile(t, dir, "videos/c.mp4", "c")
	store := newFakeObjectStore()
	store.putErr = errors.New("access denied")

	_, err := NewPublisher(store, "b", dir, nil).Sync(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
}

func TestContentType(t *testing.T) {
	tests := map[string]string{
		"images/a.webp": "image/webp",
		"images/a.AVIF": "image/avif",
		"images/a.png":  "image/png",
		"videos/a.mp4":  "video/mp4",
		"a.unknownext":  "application/octet-stream",
	}
	for name, want := range tests {
		assert.Equal(t, want, ContentType(name), name)
	}
}
