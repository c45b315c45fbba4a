// Package webui exposes the embedded builder UI.
// It lives at the module root to embed the sibling "web/" directory;
// internal/server/embed.go serves it.
package webui

import "embed"

// FS is the embedded web directory tree: index.html plus its script and styles.
//
//go:embed web
var FS embed.FS
