package backoffice

import "embed"

// AssetsFS holds the HTML templates served by the back office.
//
//go:embed assets
var AssetsFS embed.FS
