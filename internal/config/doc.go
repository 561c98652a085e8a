// Package config provides configuration for the plugin.
//
// Configuration is layered:
//
//  1. defaults from New()
//  2. plugin.json in the working directory, if present
//  3. a .env file, if present (loaded into the process environment)
//  4. environment variables
//  5. command-line flags, applied by the CLI
//
// # Configuration File Structure
//
//	{
//	  "plugin": {
//	    "slug": "csv-import",
//	    "name": "CSV Import",
//	    "description": "Imports TBZ Flensburg tree register CSV files."
//	  },
//	  "federation": {
//	    "name": "demo_plugin",
//	    "filename": "plugin.js",
//	    "exposes": {"./RemoteARoot": "./internal/counter"},
//	    "shared": ["react", "react-dom", "@green-ecolution/plugin-interface"]
//	  },
//	  "server": {"port": 8080, "publicURL": "http://localhost:8080/"},
//	  "build": {"output": "dist"},
//	  "host": {"path": "https://app.example.com", "heartbeatInterval": "30s"},
//	  "storage": {"bucket": "plugins", "prefix": "csv-import/"},
//	  "import": {"sourceEPSG": 25832, "targetEPSG": 4326}
//	}
//
// # Environment
//
// CLIENT_ID, CLIENT_SECRET and HOST_PATH configure host registration.
// PLUGIN_PORT, PLUGIN_PUBLIC_URL, LOG_LEVEL, LOG_FORMAT and the S3_* and
// AWS_* variables override the matching file settings. CSV_HEADERS (comma
// separated), CSV_USED_EPSG and CSV_TO_EPSG configure the tree importer.
package config
