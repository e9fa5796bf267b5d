package assets

import _ "embed"

// PlatformsData holds the raw JSON catalog of AI platforms and their models.
//
//go:embed platforms.json
var PlatformsData []byte
