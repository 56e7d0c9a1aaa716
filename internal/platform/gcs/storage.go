package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

var (
	ErrObjectNotFound = errors.New("object not found")
	ErrObjectTooLarge = errors.New("object exceeds size limit")
)

// Store reads and writes document files in a single bucket.
type Store struct {
	client  *storage.Client
	bucket  *storage.BucketHandle
	maxRead int64
}

func New(ctx context.Context, bucket, credentialsFile string, maxRead int64) (*Store, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client failed: %w", err)
	}
	if maxRead <= 0 {
		maxRead = 50 << 20
	}
	return &Store{
		client:  client,
		bucket:  client.Bucket(bucket),
		maxRead: maxRead,
	}, nil
}

// GetBytes downloads a whole object. Objects larger than the configured limit
// are refused before reading.
func (s *Store) GetBytes(ctx context.Context, key string) ([]byte, error) {
	rc, err := s.bucket.Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return nil, fmt.Errorf("open object %s failed: %w", key, err)
	}
	defer rc.Close()

	if rc.Attrs.Size > s.maxRead {
		return nil, fmt.Errorf("%w: %s (%d bytes)", ErrObjectTooLarge, key, rc.Attrs.Size)
	}
	b, err := io.ReadAll(io.LimitReader(rc, s.maxRead+1))
	if err != nil {
		return nil, fmt.Errorf("read object %s failed: %w", key, err)
	}
	if int64(len(b)) > s.maxRead {
		return nil, fmt.Errorf("%w: %s", ErrObjectTooLarge, key)
	}
	return b, nil
}

func (s *Store) Put(ctx context.Context, key, contentType string, r io.Reader) error {
	w := s.bucket.Object(key).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return fmt.Errorf("write object %s failed: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize object %s failed: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.bucket.Object(key).Delete(ctx); err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("delete object %s failed: %w", key, err)
	}
	return nil
}

// SignedURL returns a V4 GET url valid for ttl. fileName, when set, is used as
// the download attachment name.
func (s *Store) SignedURL(key, fileName string, ttl time.Duration) (string, error) {
	opts := &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  "GET",
		Expires: time.Now().Add(ttl),
	}
	if fileName != "" {
		opts.QueryParameters = map[string][]string{
			"response-content-disposition": {fmt.Sprintf("attachment; filename=%q", fileName)},
		}
	}
	url, err := s.bucket.SignedURL(key, opts)
	if err != nil {
		return "", fmt.Errorf("sign url for %s failed: %w", key, err)
	}
	return url, nil
}

// Ping reads the bucket attributes.
func (s *Store) Ping(ctx context.Context) error {
	if _, err := s.bucket.Attrs(ctx); err != nil {
		return fmt.Errorf("read bucket attrs failed: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}
