package storage

import (
	"context"
	stderrors "errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/green-ecolution/demo-plugin/internal/build"
	"github.com/green-ecolution/demo-plugin/internal/config"
	"github.com/green-ecolution/demo-plugin/internal/counter"
	perrors "github.com/green-ecolution/demo-plugin/internal/errors"
	"github.com/green-ecolution/demo-plugin/pkg/federation"
)

type object struct {
	key          string
	body         string
	contentType  string
	cacheControl string
}

type fakeBucket struct {
	mu      sync.Mutex
	objects []object
	failOn  string
}

func (f *fakeBucket) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	key := aws.ToString(in.Key)
	if f.failOn != "" && strings.HasSuffix(key, f.failOn) {
		return nil, stderrors.New("access denied")
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects = append(f.objects, object{
		key:          key,
		body:         string(data),
		contentType:  aws.ToString(in.ContentType),
		cacheControl: aws.ToString(in.CacheControl),
	})
	return &s3.PutObjectOutput{}, nil
}

func testBundle(t *testing.T) *build.Bundle {
	t.Helper()
	cfg := config.New()
	container := federation.NewContainer(cfg.Federation)
	counter.Provide(container)

	bundle, err := build.New(cfg, container, build.Options{Version: "test"}).Bundle(context.Background())
	if err != nil {
		t.Fatalf("Bundle() error = %v", err)
	}
	return bundle
}

func TestNewPublisherRequiresBucket(t *testing.T) {
	_, err := NewPublisher(&fakeBucket{}, "", "")
	var pe *perrors.PluginError
	if !stderrors.As(err, &pe) || pe.Code != "P051" {
		t.Errorf("NewPublisher() error = %v, want P051", err)
	}
}

func TestKey(t *testing.T) {
	tests := []struct {
		prefix string
		want   string
	}{
		{"", "plugin.js"},
		{"plugins/demo", "plugins/demo/plugin.js"},
		{"/plugins/demo/", "plugins/demo/plugin.js"},
	}
	for _, tt := range tests {
		p, err := NewPublisher(&fakeBucket{}, "bucket", tt.prefix)
		if err != nil {
			t.Fatal(err)
		}
		if got := p.Key("plugin.js"); got != tt.want {
			t.Errorf("Key() with prefix %q = %q, want %q", tt.prefix, got, tt.want)
		}
	}
}

func TestPublish(t *testing.T) {
	bundle := testBundle(t)
	bucket := &fakeBucket{}
	p, err := NewPublisher(bucket, "plugins", "demo/v1")
	if err != nil {
		t.Fatal(err)
	}

	result, err := p.Publish(context.Background(), bundle)
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if len(result.Keys) != len(bundle.Files()) {
		t.Errorf("uploaded %d files, want %d", len(result.Keys), len(bundle.Files()))
	}
	if result.Size != bundle.Size() {
		t.Errorf("Size = %d, want %d", result.Size, bundle.Size())
	}

	last := bucket.objects[len(bucket.objects)-1]
	if last.key != "demo/v1/plugin.js" {
		t.Errorf("last upload = %q, want the remote entry", last.key)
	}
	if !strings.Contains(last.body, "./RemoteARoot") {
		t.Error("remote entry body does not expose ./RemoteARoot")
	}

	chunk, _ := bundle.Chunk(federation.RootModule)
	first := bucket.objects[0]
	if first.key != "demo/v1/"+chunk {
		t.Errorf("first upload = %q, want chunk %q", first.key, chunk)
	}
	if first.cacheControl != build.CacheImmutable {
		t.Errorf("chunk Cache-Control = %q", first.cacheControl)
	}
	if !strings.HasPrefix(first.contentType, "application/javascript") {
		t.Errorf("chunk Content-Type = %q", first.contentType)
	}

	for _, obj := range bucket.objects {
		if strings.HasSuffix(obj.key, build.ManifestFile) {
			if obj.cacheControl != build.CacheRevalidate {
				t.Errorf("manifest Cache-Control = %q", obj.cacheControl)
			}
			if !strings.HasPrefix(obj.contentType, "application/json") {
				t.Errorf("manifest Content-Type = %q", obj.contentType)
			}
		}
	}
}

func TestPublishFailure(t *testing.T) {
	bucket := &fakeBucket{failOn: build.ManifestFile}
	p, _ := NewPublisher(bucket, "plugins", "")

	_, err := p.Publish(context.Background(), testBundle(t))
	var pe *perrors.PluginError
	if !stderrors.As(err, &pe) || pe.Code != "P050" {
		t.Fatalf("Publish() error = %v, want P050", err)
	}
	for _, obj := range bucket.objects {
		if obj.key == "plugin.js" {
			t.Error("remote entry uploaded after a failed upload")
		}
	}
}

func TestPublishCancelled(t *testing.T) {
	p, _ := NewPublisher(&fakeBucket{}, "plugins", "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := p.Publish(ctx, testBundle(t)); !stderrors.Is(err, context.Canceled) {
		t.Errorf("Publish() error = %v, want context.Canceled", err)
	}
}

func TestNewClient(t *testing.T) {
	client := NewClient(config.StorageConfig{
		Region:          "eu-central-1",
		Endpoint:        "http://localhost:9000",
		PathStyle:       true,
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
	})
	opts := client.Options()
	if opts.Region != "eu-central-1" || !opts.UsePathStyle {
		t.Errorf("options = region %q path style %v", opts.Region, opts.UsePathStyle)
	}
	if aws.ToString(opts.BaseEndpoint) != "http://localhost:9000" {
		t.Errorf("BaseEndpoint = %q", aws.ToString(opts.BaseEndpoint))
	}
	creds, err := opts.Credentials.Retrieve(context.Background())
	if err != nil || creds.AccessKeyID != "key" {
		t.Errorf("credentials = %+v, %v", creds, err)
	}
}
