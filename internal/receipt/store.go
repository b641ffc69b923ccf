package receipt

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const presignTTL = 15 * time.Minute

// Store persists rendered receipts and resolves them to downloadable URLs.
type Store interface {
	// Put saves body under key and returns the artifact reference.
	Put(ctx context.Context, key, contentType string, body []byte) (string, error)
	// URL turns a reference returned by Put into a link a client can fetch.
	URL(ctx context.Context, ref string) (string, error)
}

// DirStore writes receipts into a local directory served under PublicPrefix.
type DirStore struct {
	Dir          string
	PublicPrefix string
}

// NewDirStore builds a directory store, creating dir if needed.
func NewDirStore(dir, publicPrefix string) (*DirStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create receipt dir: %w", err)
	}
	return &DirStore{Dir: dir, PublicPrefix: strings.TrimRight(publicPrefix, "/")}, nil
}

func (s *DirStore) Put(_ context.Context, key, _ string, body []byte) (string, error) {
	name := filepath.Base(key)
	if err := os.WriteFile(filepath.Join(s.Dir, name), body, 0o644); err != nil {
		return "", fmt.Errorf("write receipt: %w", err)
	}
	return s.PublicPrefix + "/" + name, nil
}

func (s *DirStore) URL(_ context.Context, ref string) (string, error) {
	return ref, nil
}

// S3API is the subset of the S3 client the store calls.
type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store keeps receipts in an S3 or S3-compatible bucket.
type S3Store struct {
	api     S3API
	presign *s3.PresignClient
	bucket  string
	prefix  string
}

// NewS3Store builds a bucket-backed store. Keys are placed under prefix.
func NewS3Store(client *s3.Client, bucket, prefix string) *S3Store {
	return &S3Store{api: client, presign: s3.NewPresignClient(client), bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

func (s *S3Store) Put(ctx context.Context, key, contentType string, body []byte) (string, error) {
	objectKey := path.Join(s.prefix, key)
	_, err := s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(objectKey),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err != nil {
		return "", fmt.Errorf("upload receipt: %w", err)
	}
	return "s3://" + s.bucket + "/" + objectKey, nil
}

func (s *S3Store) URL(ctx context.Context, ref string) (string, error) {
	key, ok := strings.CutPrefix(ref, "s3://"+s.bucket+"/")
	if !ok {
		return "", fmt.Errorf("receipt ref %q is not in bucket %s", ref, s.bucket)
	}
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(presignTTL))
	if err != nil {
		return "", fmt.Errorf("presign receipt: %w", err)
	}
	return req.URL, nil
}
