/*
License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2023–2026 Emasoft
*/

package convert

import (
	"github.com/BurntSushi/toml"

	"github.com/Emasoft/svg-text2path/core"
	"github.com/Emasoft/svg-text2path/engine/outline"
)

// Params are the tunable knobs of a document conversion. The zero
// value is not usable, start from DefaultParams.
type Params struct {
	// Precision is the number of decimals in emitted path coordinates.
	Precision int `toml:"precision"`
	// FallbackFamilies are tried after a source's own font-family list.
	FallbackFamilies []string `toml:"fallback-families"`
	// DyResetsBaseline makes a leading dy offset rebase subsequent
	// automatic baselines instead of shifting the current line only.
	DyResetsBaseline bool `toml:"dy-resets-baseline"`
}

// DefaultParams returns the parameters used when no configuration is
// given.
func DefaultParams() Params {
	return Params{
		Precision: outline.DefaultPrecision,
	}
}

// LoadParams reads parameters from a TOML file, with defaults for
// every key the file does not set.
func LoadParams(path string) (Params, error) {
	p := DefaultParams()
	if _, err := toml.DecodeFile(path, &p); err != nil {
		return p, core.WrapError(err, core.EINVALID, "cannot read configuration from %s", path)
	}
	if p.Precision <= 0 {
		p.Precision = outline.DefaultPrecision
	}
	return p, nil
}
