// Package host implements the host side of the federation contract.
//
// A Loader fetches a remote by URL: its manifest.json, its assets.json and
// the remote entry the manifest names. The entry must embed the same
// manifest, otherwise the remote is rejected.
//
//	loader := host.NewLoader()
//	remote, err := loader.Load(ctx, "https://plugin.example.com/")
//	if err != nil {
//	    return err
//	}
//	shared, err := remote.Negotiate(host.Scope{"react": "18.2.0"})
//	chunkURL, err := remote.Resolve("./RemoteARoot")
//
// A Registry holds in-process providers (a federation.Container is one) and
// instantiates their exposed components by public path.
package host
