// Package plugin registers the plugin with its host and keeps it alive.
//
// A Worker registers the plugin descriptor with the host API using client
// credentials and receives a token. RunHeartbeat then posts a heartbeat on
// every tick, registering again when the token is about to expire or the host
// rejects it.
//
//	worker, err := plugin.NewWorker(
//	    plugin.WithHost(hostURL),
//	    plugin.WithPlugin(p),
//	    plugin.WithHostAPIVersion("v1"),
//	)
//	if _, err := worker.Register(ctx, clientID, clientSecret); err != nil {
//	    return err
//	}
//	return worker.RunHeartbeat(ctx)
package plugin
