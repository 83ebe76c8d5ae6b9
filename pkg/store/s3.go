package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/cuekit-dev/cuekit/pkg/props"
)

// S3Store persists snapshots as JSON objects in an S3 bucket under a key
// prefix.
//
// Example:
//
//	client := s3.NewFromConfig(cfg)
//	store := store.NewS3Store(client, "my-shows", "snapshots/")
type S3Store struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Store creates an S3-backed snapshot store. The prefix may be empty;
// a non-empty prefix should end with "/".
func NewS3Store(client *s3.Client, bucket, prefix string) *S3Store {
	return &S3Store{
		client: client,
		bucket: bucket,
		prefix: prefix,
	}
}

// Save uploads the snapshot JSON under the prefixed key.
func (s *S3Store) Save(ctx context.Context, name string, snapshot props.Map) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(name)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
		Metadata: map[string]string{
			"snapshot-name": name,
			"saved-at":      time.Now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return fmt.Errorf("s3 put %q: %w", name, err)
	}
	return nil
}

// Load downloads and decodes the snapshot stored under name.
func (s *S3Store) Load(ctx context.Context, name string) (props.Map, error) {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil {
		return nil, ErrNotFound
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, err
	}

	var snapshot props.Map
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("decode snapshot %q: %w", name, err)
	}
	return snapshot, nil
}

// List pages through the prefixed keys and returns the snapshot names,
// sorted.
func (s *S3Store) List(ctx context.Context) ([]string, error) {
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	})

	var names []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Contents {
			if obj.Key == nil {
				continue
			}
			name := strings.TrimPrefix(*obj.Key, s.prefix)
			if strings.HasSuffix(name, ".json") {
				names = append(names, strings.TrimSuffix(name, ".json"))
			}
		}
	}
	sort.Strings(names)
	return names, nil
}

// Delete removes the snapshot object.
func (s *S3Store) Delete(ctx context.Context, name string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	return err
}

func (s *S3Store) key(name string) string {
	return s.prefix + name + ".json"
}
