package folio

import "embed"

// EmbeddedAssets contains the assets shipped with every site:
// style.css, color-mode.js and favicon.svg, under embedded/assets.
//
//go:embed embedded/assets
var EmbeddedAssets embed.FS
