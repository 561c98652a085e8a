package storage

import (
	"bytes"
	"context"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/green-ecolution/demo-plugin/internal/build"
	"github.com/green-ecolution/demo-plugin/internal/config"
	"github.com/green-ecolution/demo-plugin/internal/errors"
)

// ObjectPutter is the part of *s3.Client the publisher needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// NewClient creates an S3 client from the storage settings. Static
// credentials are used when an access key is configured; otherwise requests
// are sent unsigned.
func NewClient(cfg config.StorageConfig) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		UsePathStyle: cfg.PathStyle,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	if cfg.AccessKeyID != "" {
		creds := aws.Credentials{
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
			SessionToken:    cfg.SessionToken,
			Source:          "demo-plugin config",
		}
		opts.Credentials = aws.NewCredentialsCache(aws.CredentialsProviderFunc(
			func(context.Context) (aws.Credentials, error) {
				return creds, nil
			}))
	}
	return s3.New(opts)
}

// Publisher uploads bundles to one bucket.
type Publisher struct {
	client ObjectPutter
	bucket string
	prefix string
	logger *slog.Logger
}

// Result describes a finished publish.
type Result struct {
	Bucket   string
	Keys     []string
	Size     int64
	Duration time.Duration
}

// NewPublisher creates a publisher. The bucket is required.
func NewPublisher(client ObjectPutter, bucket, prefix string) (*Publisher, error) {
	if bucket == "" {
		return nil, errors.New("P051")
	}
	return &Publisher{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		logger: slog.Default().With("component", "storage", "bucket", bucket),
	}, nil
}

// Key returns the object key of a bundle file.
func (p *Publisher) Key(name string) string {
	if p.prefix == "" {
		return name
	}
	return path.Join(p.prefix, name)
}

// Publish uploads every file of the bundle. The bundle is verified first.
func (p *Publisher) Publish(ctx context.Context, b *build.Bundle) (*Result, error) {
	start := time.Now()
	if err := b.Verify(); err != nil {
		return nil, err
	}

	result := &Result{Bucket: p.bucket}
	for _, name := range uploadOrder(b) {
		if err := ctx.Err(); err != nil {
			return nil, errors.New("P050").WithDetail("publish cancelled").Wrap(err)
		}

		data, _ := b.File(name)
		key := p.Key(name)
		_, err := p.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:       aws.String(p.bucket),
			Key:          aws.String(key),
			Body:         bytes.NewReader(data),
			ContentType:  aws.String(build.ContentType(name)),
			CacheControl: aws.String(b.CacheControl(name)),
			Metadata: map[string]string{
				"plugin":      b.Manifest.Name,
				"upload-time": time.Now().UTC().Format(time.RFC3339),
			},
		})
		if err != nil {
			return nil, errors.New("P050").WithDetailf("put s3://%s/%s", p.bucket, key).Wrap(err)
		}

		p.logger.Debug("uploaded", "key", key, "size", len(data))
		result.Keys = append(result.Keys, key)
		result.Size += int64(len(data))
	}

	result.Duration = time.Since(start)
	p.logger.Info("bundle published",
		"files", len(result.Keys),
		"size", result.Size,
		"duration", result.Duration)
	return result, nil
}

// uploadOrder lists chunks first, then the metadata files, then the remote
// entry.
func uploadOrder(b *build.Bundle) []string {
	entry := b.Entry()
	var chunks, meta []string
	for _, name := range b.Files() {
		switch {
		case name == entry:
		case b.Assets.IsFingerprinted(name):
			chunks = append(chunks, name)
		default:
			meta = append(meta, name)
		}
	}
	return append(append(chunks, meta...), entry)
}
