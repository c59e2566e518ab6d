package store

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	d "github.com/invertedv/ipea"
)

// Putter is the part of an object store Bucket writes through.
type Putter interface {
	PutObject(ctx context.Context, bucket, key string, body []byte, contentType string) error
}

// Bucket mirrors each table into an object store under <prefix>/<tier>/run=<id>/<name>.
type Bucket struct {
	store   Putter
	bucket  string
	prefix  string
	runID   string
	parquet bool
}

type BucketOpt func(*Bucket)

func WithPrefix(prefix string) BucketOpt {
	return func(b *Bucket) { b.prefix = strings.Trim(prefix, "/") }
}

// WithParquet also puts a parquet copy of each table.
func WithParquet(on bool) BucketOpt {
	return func(b *Bucket) { b.parquet = on }
}

func NewBucket(store Putter, bucket, runID string, opts ...BucketOpt) *Bucket {
	b := &Bucket{store: store, bucket: bucket, runID: runID}
	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Key returns the object key of name in tier.
func (b *Bucket) Key(tier Tier, name string) string {
	return path.Join(b.prefix, string(tier), "run="+b.runID, name)
}

func (b *Bucket) Save(ctx context.Context, tbl *d.DF, tier Tier, name string) error {
	var buf bytes.Buffer
	if e := d.NewFiles().Write(&buf, tbl); e != nil {
		return e
	}

	if e := b.store.PutObject(ctx, b.bucket, b.Key(tier, name), buf.Bytes(), "text/csv"); e != nil {
		return fmt.Errorf("put %s: %w", b.Key(tier, name), e)
	}

	if !b.parquet {
		return nil
	}

	body, e := EncodeParquet(tbl)
	if e != nil {
		return e
	}

	key := b.Key(tier, ParquetName(name))
	if e = b.store.PutObject(ctx, b.bucket, key, body, "application/octet-stream"); e != nil {
		return fmt.Errorf("put %s: %w", key, e)
	}

	return nil
}

// *********** MinIO ***********

// MinIO puts objects with minio-go.
type MinIO struct {
	client *minio.Client
}

// NewMinIO connects to endpoint, a host:port or URL, and creates bucket if it is missing.
func NewMinIO(ctx context.Context, endpoint, accessKey, secretKey, bucket string, secure bool) (*MinIO, error) {
	host := endpoint
	if u, e := url.Parse(endpoint); e == nil && u.Host != "" {
		host = u.Host
		secure = secure || u.Scheme == "https"
	}

	client, e := minio.New(host, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: secure,
	})
	if e != nil {
		return nil, fmt.Errorf("minio client: %w", e)
	}

	exists, e := client.BucketExists(ctx, bucket)
	if e != nil {
		return nil, fmt.Errorf("bucket %s: %w", bucket, e)
	}

	if !exists {
		if e = client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); e != nil {
			return nil, fmt.Errorf("make bucket %s: %w", bucket, e)
		}
	}

	return &MinIO{client: client}, nil
}

func (m *MinIO) PutObject(ctx context.Context, bucket, key string, body []byte, contentType string) error {
	_, e := m.client.PutObject(ctx, bucket, key, bytes.NewReader(body), int64(len(body)),
		minio.PutObjectOptions{ContentType: contentType})

	return e
}
