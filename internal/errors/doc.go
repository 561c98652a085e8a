// Package errors provides structured, actionable errors for the plugin.
//
// Every error raised at a boundary (configuration, manifest validation,
// bundle build, remote loading, host API, object storage) is a *PluginError
// carrying a stable code, a category, and optionally a suggestion and the
// underlying cause:
//
//	err := errors.New("P011").
//	    WithDetail(`filename "plugin" has no .js extension`).
//	    WithSuggestion(`Use a file name such as "plugin.js".`)
//
// Errors with the same code match under errors.Is, so callers can test for a
// condition without string matching:
//
//	if stderrors.Is(err, errors.New("P016")) { ... }
//
// Format renders the error for terminal output.
package errors
