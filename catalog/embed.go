package catalog

import "embed"

//go:embed actions/*.yaml scripts/*.tengo
var ContentFS embed.FS
