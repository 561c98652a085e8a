// Package server implements the plugin server.
//
// The server serves the built bundle so a host can load the plugin over
// plain HTTP, and runs live sessions for mounted components:
//
//	GET /                greeting naming the plugin
//	GET /healthz         {"status":"ok","version":"..."}
//	GET /metrics         Prometheus metrics (when configured)
//	GET /preview         a page that loads the remote like a host would
//	GET /plugin.js       remote entry (name taken from the manifest)
//	GET /assets/*        fingerprinted chunks, cached immutably
//	GET /manifest.json   federation manifest
//	GET /assets.json     chunk map
//	GET /live?expose=    websocket session for one component instance
//
// # Live Sessions
//
// Each websocket connection mounts a fresh instance of the exposed
// component. The server renders it and sends
//
//	{"type":"render","html":"..."}
//
// after mount and after every state change. The client reports DOM events
// by hydration ID:
//
//	{"type":"event","hid":"h1","event":"onclick"}
//
// Closing the socket unmounts the instance.
package server
