package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/green-ecolution/demo-plugin/internal/build"
	"github.com/green-ecolution/demo-plugin/internal/config"
	"github.com/green-ecolution/demo-plugin/internal/counter"
	"github.com/green-ecolution/demo-plugin/pkg/federation"
	"github.com/green-ecolution/demo-plugin/pkg/storage"
)

func publishCmd(flags *globalFlags) *cobra.Command {
	var (
		bucket   string
		prefix   string
		dir      string
		endpoint string
	)

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Upload the bundle to S3-compatible storage",
		Long: `Upload a bundle so a host can load the plugin from object storage.
Without --from the bundle is built in memory first.

Credentials come from AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY and
AWS_SESSION_TOKEN.

Examples:
  demo-plugin publish --bucket=plugins --prefix=demo-plugin/1.0.0
  demo-plugin publish --from=dist --endpoint=http://localhost:9000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if bucket != "" {
				cfg.Storage.Bucket = bucket
			}
			if prefix != "" {
				cfg.Storage.Prefix = prefix
			}
			if endpoint != "" {
				cfg.Storage.Endpoint = endpoint
				cfg.Storage.PathStyle = true
			}
			return runPublish(cmd.Context(), cfg, dir)
		},
	}

	cmd.Flags().StringVar(&bucket, "bucket", "", "Target bucket (default S3_BUCKET)")
	cmd.Flags().StringVar(&prefix, "prefix", "", "Key prefix (default S3_PREFIX)")
	cmd.Flags().StringVar(&dir, "from", "", "Publish a prebuilt bundle directory")
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "S3-compatible endpoint URL; enables path-style addressing")

	return cmd
}

func runPublish(ctx context.Context, cfg *config.Config, dir string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		bundle *build.Bundle
		err    error
	)
	if dir != "" {
		bundle, err = build.LoadDir(dir)
	} else {
		container := federation.NewContainer(cfg.Federation)
		counter.Provide(container)
		bundle, err = build.New(cfg, container, build.Options{Version: version}).Bundle(ctx)
	}
	if err != nil {
		return err
	}

	pub, err := storage.NewPublisher(storage.NewClient(cfg.Storage), cfg.Storage.Bucket, cfg.Storage.Prefix)
	if err != nil {
		return err
	}

	result, err := pub.Publish(ctx, bundle)
	if err != nil {
		return err
	}

	success("Published %d files (%s) in %s", len(result.Keys), formatBytes(result.Size), result.Duration.Round(1000000))
	fmt.Println()
	fmt.Printf("  Remote entry: s3://%s/%s\n", result.Bucket, pub.Key(bundle.Entry()))
	fmt.Println()
	return nil
}
