// Package build produces the plugin bundle.
//
// A bundle is a directory a host can load over plain HTTP:
//
//	dist/
//	├── plugin.js                       # remote entry, named by the manifest
//	├── assets/
//	│   └── RemoteARoot.1a2b3c4d.js     # one fingerprinted chunk per exposed module
//	├── manifest.json                   # federation manifest
//	└── assets.json                     # chunk name -> fingerprinted path
//
// The remote entry is an ES module. It exports the manifest it was built from
// and the init/get pair a module-federation host calls:
//
//	const remote = await import("https://plugin.example.com/plugin.js");
//	remote.init(shareScope);
//	const factory = await remote.get("./RemoteARoot");
//	const { mount } = factory();
//	const unmount = mount(element);
//
// Each chunk carries the server-rendered initial HTML of its component and a
// mount function that opens a live session against the plugin server.
//
// # Usage
//
//	builder := build.New(cfg, container, build.Options{})
//	result, err := builder.Build(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Built %d files in %s\n", result.Files, result.Duration)
package build
