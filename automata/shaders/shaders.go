package shaders

import (
	_ "embed"
)

//go:embed cell.wgsl
var CellWGSL string
