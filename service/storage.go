package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	gstorage "cloud.google.com/go/storage"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// ErrFileNotFound is an error returned by Download or Delete
type ErrFileNotFound struct {
	File string
}

func (e ErrFileNotFound) Error() string {
	return fmt.Sprintf("File not found: %s", e.File)
}

func isErrNotFound(err error) bool {
	var epath *os.PathError
	var nsk *s3types.NoSuchKey
	return errors.Is(err, gstorage.ErrObjectNotExist) ||
		(errors.As(err, &epath) && os.IsNotExist(epath)) ||
		errors.As(err, &nsk)
}

// Storage is a service to store and retrieve files
type Storage interface {
	// Upload persists the data in the file <name> (relative to the root of the storage) and returns its uri
	Upload(ctx context.Context, name string, data []byte) (string, error)
	// Download retrieves the file <name>
	// Raise ErrFileNotFound
	Download(ctx context.Context, name string) ([]byte, error)
	// Delete deletes the file <name>
	// Raise ErrFileNotFound
	Delete(ctx context.Context, name string) error
}

// S3Options are the optional settings of a s3 storage (default: aws environment)
type S3Options struct {
	Endpoint  string // For s3-compatible storages
	Region    string
	AccessKey string
	SecretKey string
}

// NewStorage creates a storage from the uri: gs://bucket/prefix, s3://bucket/prefix or a local directory
func NewStorage(ctx context.Context, storageURI string, s3opts S3Options) (Storage, error) {
	switch {
	case strings.HasPrefix(storageURI, "gs://"):
		bucket, prefix := splitURI(strings.TrimPrefix(storageURI, "gs://"))
		client, err := gstorage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("NewStorage.gs: %w", err)
		}
		return &gsStorage{client: client, bucket: bucket, prefix: prefix}, nil

	case strings.HasPrefix(storageURI, "s3://"):
		bucket, prefix := splitURI(strings.TrimPrefix(storageURI, "s3://"))
		client, err := newS3Client(ctx, s3opts)
		if err != nil {
			return nil, fmt.Errorf("NewStorage.%w", err)
		}
		return &s3Storage{client: client, bucket: bucket, prefix: prefix}, nil

	case strings.Contains(storageURI, "://"):
		return nil, fmt.Errorf("NewStorage: unsupported storage: %s", storageURI)
	}

	dir := strings.TrimPrefix(storageURI, "file://")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("NewStorage.MkdirAll: %w", err)
	}
	return &localStorage{dir: dir}, nil
}

func splitURI(uri string) (string, string) {
	bucket, prefix, _ := strings.Cut(uri, "/")
	return bucket, strings.Trim(prefix, "/")
}

func joinKey(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

type localStorage struct {
	dir string
}

// ErrInvalidName is returned when a file name would resolve outside of the storage root
type ErrInvalidName struct {
	Name string
}

func (e ErrInvalidName) Error() string {
	return fmt.Sprintf("invalid file name (must stay under the storage root): %q", e.Name)
}

func (s *localStorage) path(name string) (string, error) {
	if !filepath.IsLocal(filepath.FromSlash(name)) {
		return "", MakeFatal(ErrInvalidName{name})
	}
	return filepath.Join(s.dir, filepath.FromSlash(name)), nil
}

// Upload implements Storage
func (s *localStorage) Upload(ctx context.Context, name string, data []byte) (string, error) {
	dst, err := s.path(name)
	if err != nil {
		return "", fmt.Errorf("Upload.%w", err)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return "", fmt.Errorf("Upload.MkdirAll: %w", err)
	}
	if err := os.WriteFile(dst, data, 0644); err != nil {
		return "", fmt.Errorf("Upload.WriteFile: %w", err)
	}
	return dst, nil
}

// Download implements Storage
func (s *localStorage) Download(ctx context.Context, name string) ([]byte, error) {
	src, err := s.path(name)
	if err != nil {
		return nil, fmt.Errorf("Download.%w", err)
	}
	data, err := os.ReadFile(src)
	if err != nil {
		if isErrNotFound(err) {
			return nil, ErrFileNotFound{src}
		}
		return nil, fmt.Errorf("Download.ReadFile: %w", err)
	}
	return data, nil
}

// Delete implements Storage
func (s *localStorage) Delete(ctx context.Context, name string) error {
	src, err := s.path(name)
	if err != nil {
		return fmt.Errorf("Delete.%w", err)
	}
	if err := os.Remove(src); err != nil {
		if isErrNotFound(err) {
			return ErrFileNotFound{src}
		}
		return fmt.Errorf("Delete.Remove: %w", err)
	}
	return nil
}

type gsStorage struct {
	client *gstorage.Client
	bucket string
	prefix string
}

func (s *gsStorage) uri(key string) string {
	return "gs://" + s.bucket + "/" + key
}

// Upload implements Storage
func (s *gsStorage) Upload(ctx context.Context, name string, data []byte) (string, error) {
	key := joinKey(s.prefix, name)
	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	if strings.HasSuffix(name, ".json") {
		w.ContentType = "application/json"
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return "", MakeTemporary(fmt.Errorf("Upload.Write to %s: %w", s.uri(key), err))
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("Upload.Close %s: %w", s.uri(key), err)
	}
	return s.uri(key), nil
}

// Download implements Storage
func (s *gsStorage) Download(ctx context.Context, name string) ([]byte, error) {
	key := joinKey(s.prefix, name)
	r, err := s.client.Bucket(s.bucket).Object(key).NewReader(ctx)
	if err != nil {
		if isErrNotFound(err) {
			return nil, ErrFileNotFound{s.uri(key)}
		}
		return nil, fmt.Errorf("Download.NewReader %s: %w", s.uri(key), err)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, MakeTemporary(fmt.Errorf("Download.ReadAll %s: %w", s.uri(key), err))
	}
	return data, nil
}

// Delete implements Storage
func (s *gsStorage) Delete(ctx context.Context, name string) error {
	key := joinKey(s.prefix, name)
	if err := s.client.Bucket(s.bucket).Object(key).Delete(ctx); err != nil {
		if isErrNotFound(err) {
			return ErrFileNotFound{s.uri(key)}
		}
		return fmt.Errorf("Delete %s: %w", s.uri(key), err)
	}
	return nil
}

func newS3Client(ctx context.Context, opts S3Options) (*s3.Client, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	if opts.AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, "")))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("newS3Client.LoadDefaultConfig: %w", err)
	}
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

type s3Storage struct {
	client *s3.Client
	bucket string
	prefix string
}

func (s *s3Storage) uri(key string) string {
	return "s3://" + s.bucket + "/" + key
}

// Upload implements Storage
func (s *s3Storage) Upload(ctx context.Context, name string, data []byte) (string, error) {
	key := joinKey(s.prefix, name)
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	}
	if strings.HasSuffix(name, ".json") {
		input.ContentType = aws.String("application/json")
	}
	if _, err := manager.NewUploader(s.client).Upload(ctx, input); err != nil {
		return "", fmt.Errorf("Upload to %s: %w", s.uri(key), err)
	}
	return s.uri(key), nil
}

// Download implements Storage
func (s *s3Storage) Download(ctx context.Context, name string) ([]byte, error) {
	key := joinKey(s.prefix, name)
	buf := manager.NewWriteAtBuffer(nil)
	if _, err := manager.NewDownloader(s.client).Download(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err != nil {
		if isErrNotFound(err) {
			return nil, ErrFileNotFound{s.uri(key)}
		}
		return nil, fmt.Errorf("Download %s: %w", s.uri(key), err)
	}
	return buf.Bytes(), nil
}

// Delete implements Storage
func (s *s3Storage) Delete(ctx context.Context, name string) error {
	key := joinKey(s.prefix, name)
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return fmt.Errorf("Delete %s: %w", s.uri(key), err)
	}
	return nil
}
