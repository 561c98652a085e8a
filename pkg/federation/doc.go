// Package federation describes a remotely loadable plugin: which modules it
// exposes under which public import paths, the name of its remote entry file,
// and which dependencies it expects to share with the host.
//
// The manifest is static configuration. It is written next to the built
// bundle as manifest.json, embedded in the remote entry file, and read back by
// hosts (see package host) before they import an exposed module:
//
//	{
//	  "name": "demo_plugin",
//	  "filename": "plugin.js",
//	  "exposes": {"./RemoteARoot": "./internal/counter"},
//	  "shared": ["react", "react-dom", "@green-ecolution/plugin-interface"]
//	}
//
// Shared entries may also be objects carrying a semver requiredVersion, the
// version of the private copy bundled as fallback, and a singleton flag.
//
// A Container binds a manifest to the component factories that implement its
// exposed entries.
package federation
