// Package appfs exposes the app's embedded static files: database
// migrations and mail templates.
package appfs

import "embed"

//go:embed migrations templates
var FS embed.FS
