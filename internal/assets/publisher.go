// Package assets uploads the static image and video trees to an S3-compatible
// bucket so pages can serve them from a CDN.
package assets

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Roots are the static directories published to the bucket.
var Roots = []string{"images", "videos"}

const (
	cacheControl  = "public, max-age=31536000, immutable"
	uploadWorkers = 4
)

// ObjectStore is the subset of *minio.Client the publisher needs.
type ObjectStore interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
	FPutObject(ctx context.Context, bucketName, objectName, filePath string, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// NewClient builds a MinIO client from cfg.
func NewClient(cfg Config) (*minio.Client, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return client, nil
}

// Report summarises one Sync run.
type Report struct {
	Uploaded int
	Skipped  int
}

type Publisher struct {
	store     ObjectStore
	bucket    string
	staticDir string
	logger    *zap.Logger
}

func NewPublisher(store ObjectStore, bucket, staticDir string, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{store: store, bucket: bucket, staticDir: staticDir, logger: logger.Named("assets")}
}

// Sync uploads every file under the static roots whose size or checksum
// differs from the bucket copy. Missing roots are skipped. Up to
// uploadWorkers files are checked and uploaded at once.
func (p *Publisher) Sync(ctx context.Context) (Report, error) {
	var report Report
	if err := p.ensureBucket(ctx); err != nil {
		return report, err
	}

	files, err := p.collect()
	if err != nil {
		return report, err
	}

	var uploaded, skipped atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uploadWorkers)
	for _, file := range files {
		g.Go(func() error {
			rel, err := filepath.Rel(p.staticDir, file)
			if err != nil {
				return err
			}
			ok, err := p.publish(gctx, file, filepath.ToSlash(rel))
			if err != nil {
				return err
			}
			if ok {
				uploaded.Add(1)
			} else {
				skipped.Add(1)
			}
			return nil
		})
	}
	err = g.Wait()
	report = Report{Uploaded: int(uploaded.Load()), Skipped: int(skipped.Load())}
	if err != nil {
		return report, fmt.Errorf("sync assets: %w", err)
	}

	p.logger.Info("assets synced",
		zap.String("bucket", p.bucket),
		zap.Int("uploaded", report.Uploaded),
		zap.Int("skipped", report.Skipped),
	)
	return report, nil
}

// collect lists the regular, non-hidden files under every existing root.
func (p *Publisher) collect() ([]string, error) {
	var files []string
	for _, root := range Roots {
		dir := filepath.Join(p.staticDir, root)
		if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
			p.logger.Debug("static root missing, skipping", zap.String("dir", dir))
			continue
		}
		err := filepath.WalkDir(dir, func(file string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
				return nil
			}
			files = append(files, file)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", root, err)
		}
	}
	return files, nil
}

func (p *Publisher) ensureBucket(ctx context.Context) error {
	exists, err := p.store.BucketExists(ctx, p.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", p.bucket, err)
	}
	if exists {
		return nil
	}
	if err := p.store.MakeBucket(ctx, p.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %s: %w", p.bucket, err)
	}
	p.logger.Info("bucket created", zap.String("bucket", p.bucket))
	return nil
}

func (p *Publisher) publish(ctx context.Context, file, object string) (bool, error) {
	info, err := os.Stat(file)
	if err != nil {
		return false, err
	}
	sum, err := md5File(file)
	if err != nil {
		return false, fmt.Errorf("checksum %s: %w", object, err)
	}

	remote, err := p.store.StatObject(ctx, p.bucket, object, minio.StatObjectOptions{})
	switch {
	case err == nil:
		if remote.Size == info.Size() && strings.Trim(remote.ETag, `"`) == sum {
			return false, nil
		}
	case minio.ToErrorResponse(err).Code == "NoSuchKey":
	default:
		return false, fmt.Errorf("stat %s: %w", object, err)
	}

	_, err = p.store.FPutObject(ctx, p.bucket, object, file, minio.PutObjectOptions{
		ContentType:  ContentType(object),
		CacheControl: cacheControl,
	})
	if err != nil {
		return false, fmt.Errorf("upload %s: %w", object, err)
	}
	p.logger.Debug("asset uploaded", zap.String("object", object), zap.Int64("bytes", info.Size()))
	return true, nil
}

var contentTypes = map[string]string{
	".webp": "image/webp",
	".avif": "image/avif",
	".mp4":  "video/mp4",
	".webm": "video/webm",
	".svg":  "image/svg+xml",
}

// ContentType picks the Content-Type stored with an object.
func ContentType(name string) string {
	ext := strings.ToLower(path.Ext(name))
	if ct, ok := contentTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func md5File(file string) (string, error) {
	f, err := os.Open(file)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
