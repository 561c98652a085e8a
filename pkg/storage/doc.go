// Package storage publishes a built plugin bundle to S3-compatible object
// storage so a host can load it from a static origin instead of the plugin
// server.
//
// Files are uploaded under an optional key prefix with the same
// Content-Type and Cache-Control headers the plugin server would send.
// Chunks go first and the remote entry goes last, so a host that fetches
// the entry while a publish is running never sees a chunk it cannot load.
//
//	client := storage.NewClient(cfg.Storage)
//	pub, err := storage.NewPublisher(client, cfg.Storage.Bucket, cfg.Storage.Prefix)
//	result, err := pub.Publish(ctx, bundle)
package storage
