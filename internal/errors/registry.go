package errors

import "sort"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Suggestion string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Configuration Errors (P001-P009)
	// ============================================

	"P001": {
		Category:   CategoryConfig,
		Message:    "Invalid configuration file",
		Suggestion: "Check plugin.json for JSON syntax errors.",
	},
	"P002": {
		Category:   CategoryConfig,
		Message:    "Invalid port",
		Suggestion: "Use a port between 1 and 65535.",
	},
	"P003": {
		Category:   CategoryConfig,
		Message:    "Missing host credentials",
		Suggestion: "Set CLIENT_ID and CLIENT_SECRET, or unset HOST_PATH to run without registration.",
	},
	"P004": {
		Category: CategoryConfig,
		Message:  "Invalid URL",
	},
	"P005": {
		Category:   CategoryConfig,
		Message:    "Invalid environment",
		Suggestion: "Check the variables listed in .env.example.",
	},

	// ============================================
	// Manifest Errors (P010-P019)
	// ============================================

	"P010": {
		Category:   CategoryManifest,
		Message:    "Invalid plugin name",
		Suggestion: "Use letters, digits and underscores only, starting with a letter.",
	},
	"P011": {
		Category:   CategoryManifest,
		Message:    "Invalid bundle filename",
		Suggestion: `Use a plain file name ending in .js, such as "plugin.js".`,
	},
	"P012": {
		Category: CategoryManifest,
		Message:  "No exposed modules",
	},
	"P013": {
		Category:   CategoryManifest,
		Message:    "Invalid exposed path",
		Suggestion: `Exposed paths are public import paths and must start with "./".`,
	},
	"P014": {
		Category: CategoryManifest,
		Message:  "Invalid shared dependency",
	},
	"P015": {
		Category:   CategoryManifest,
		Message:    "Invalid version constraint",
		Suggestion: `Use a semver range such as "^18.2.0".`,
	},
	"P016": {
		Category: CategoryManifest,
		Message:  "Exposed module not found",
	},
	"P017": {
		Category: CategoryManifest,
		Message:  "Invalid manifest file",
	},

	// ============================================
	// Build Errors (P020-P029)
	// ============================================

	"P020": {
		Category: CategoryBuild,
		Message:  "Cannot write build output",
	},
	"P021": {
		Category:   CategoryBuild,
		Message:    "Exposed entry has no registered component",
		Suggestion: "Register the component with the component registry before building.",
	},

	// ============================================
	// Remote Loading Errors (P030-P039)
	// ============================================

	"P030": {
		Category: CategoryTransport,
		Message:  "Remote fetch failed",
	},
	"P031": {
		Category: CategoryTransport,
		Message:  "Unexpected response status",
	},
	"P032": {
		Category:   CategoryTransport,
		Message:    "Incompatible shared dependency",
		Suggestion: "Align the host's version with the remote's requiredVersion, or drop singleton.",
	},
	"P033": {
		Category: CategoryTransport,
		Message:  "Remote bundle does not match manifest",
	},
	"P034": {
		Category: CategoryTransport,
		Message:  "Remote already registered",
	},

	// ============================================
	// Host API Errors (P040-P049)
	// ============================================

	"P040": {
		Category: CategoryHost,
		Message:  "Plugin registration failed",
	},
	"P041": {
		Category: CategoryHost,
		Message:  "Heartbeat rejected",
	},
	"P042": {
		Category: CategoryHost,
		Message:  "Invalid access token",
	},

	// ============================================
	// Storage Errors (P050-P059)
	// ============================================

	"P050": {
		Category: CategoryStorage,
		Message:  "Publish failed",
	},
	"P051": {
		Category:   CategoryStorage,
		Message:    "Bucket not configured",
		Suggestion: "Set S3_BUCKET or pass --bucket.",
	},

	// ============================================
	// Import Errors (P060-P069)
	// ============================================

	"P060": {
		Category:   CategoryImport,
		Message:    "File is not a CSV file",
		Suggestion: "Export the tree register as .csv.",
	},
	"P061": {
		Category:   CategoryImport,
		Message:    "CSV file does not contain the expected headers",
		Suggestion: "Compare the header row with CSV_HEADERS.",
	},
	"P062": {
		Category: CategoryImport,
		Message:  "Invalid CSV row",
	},
	"P063": {
		Category:   CategoryImport,
		Message:    "Unsupported coordinate transformation",
		Suggestion: "Supported systems are EPSG:4326, ETRS89 / UTM (258xx) and WGS 84 / UTM (326xx, 327xx).",
	},
	"P064": {
		Category: CategoryImport,
		Message:  "Cannot read CSV file",
	},
	"P065": {
		Category:   CategoryImport,
		Message:    "Invalid import settings",
		Suggestion: "CSV_HEADERS must name at least seven columns.",
	},
}

// Lookup returns the template for a code.
func Lookup(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Codes returns all registered codes in sorted order.
func Codes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
