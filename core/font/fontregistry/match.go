package fontregistry

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/Emasoft/svg-text2path/core"
	"github.com/Emasoft/svg-text2path/core/font"
	"github.com/flopp/go-findfont"
	xfont "golang.org/x/image/font"
)

// Resolver maps CSS font properties (family list, weight, style) to a
// concrete typecase. Candidates are taken from the registry first, then
// from the system font directories. Resolution is strict: when neither a
// requested family nor one of the configured fallback families can be
// loaded, resolution fails with core.MissingFontError.
//
// The system font list is scanned once (or on an explicit Prewarm) and
// then only read, so concurrent Resolve calls are fine.
type Resolver struct {
	reg       *Registry
	fallbacks []string // explicit fallback families, tried after the CSS list

	scanOnce sync.Once
	mu       sync.RWMutex
	sysfonts []string // paths of system font files
}

// NewResolver creates a resolver backed by a registry. fallbacks is the
// explicit fallback chain appended to every family list; it may be empty.
func NewResolver(reg *Registry, fallbacks []string) *Resolver {
	if reg == nil {
		reg = GlobalRegistry()
	}
	return &Resolver{reg: reg, fallbacks: fallbacks}
}

// Registry returns the backing registry.
func (rsv *Resolver) Registry() *Registry {
	return rsv.reg
}

// Prewarm (re)builds the system font list. Never run it concurrently with
// layout; normal lookups trigger a lazy scan on first use anyway.
func (rsv *Resolver) Prewarm() {
	paths := findfont.List()
	rsv.mu.Lock()
	rsv.sysfonts = paths
	rsv.mu.Unlock()
	tracer().Infof("font resolver knows %d system fonts", len(paths))
}

func (rsv *Resolver) systemFonts() []string {
	rsv.scanOnce.Do(func() {
		rsv.mu.RLock()
		n := len(rsv.sysfonts)
		rsv.mu.RUnlock()
		if n == 0 {
			rsv.Prewarm()
		}
	})
	rsv.mu.RLock()
	defer rsv.mu.RUnlock()
	return rsv.sysfonts
}

// Resolve finds a typecase for a CSS family list ("Helvetica, Arial,
// sans-serif") with numeric weight (100…900), style keyword and size in
// user units. Generic families (serif, sans-serif, monospace) resolve to
// the built-in fallback font.
func (rsv *Resolver) Resolve(families []string, weight int, style string, size float64) (*font.TypeCase, error) {
	xstyle := font.StyleFromCSS(style)
	xweight := font.WeightFromCSS(weight)
	if len(families) == 0 && len(rsv.fallbacks) == 0 {
		return rsv.builtinFallback(xstyle, xweight, size)
	}
	tried := make([]string, 0, len(families)+len(rsv.fallbacks))
	for _, fam := range appendChain(families, rsv.fallbacks) {
		fam = strings.Trim(strings.TrimSpace(fam), `'"`)
		if fam == "" {
			continue
		}
		if isGenericFamily(fam) {
			return rsv.builtinFallback(xstyle, xweight, size)
		}
		if tc, ok := rsv.lookup(fam, xstyle, xweight, size); ok {
			return tc, nil
		}
		tried = append(tried, fam)
	}
	tracer().Errorf("no font for families %v, weight=%d, style=%s", tried, weight, style)
	return nil, core.MissingFontError{
		Family: strings.Join(tried, ", "),
		Weight: weight,
		Style:  style,
	}
}

// ResolveCovering finds a typecase able to display every rune in missing,
// walking a script-specific fallback preference and picking the candidate
// with the best coverage. Used for the one-time fallback reshape of spans
// whose primary font lacks glyphs.
func (rsv *Resolver) ResolveCovering(missing []rune, weight int, style string, size float64) (*font.TypeCase, error) {
	if len(missing) == 0 {
		return nil, core.Error(core.EINVALID, "nothing to cover")
	}
	xstyle := font.StyleFromCSS(style)
	xweight := font.WeightFromCSS(weight)
	var best *font.TypeCase
	bestCover := 0
	for _, fam := range scriptFallbacks(missing[0]) {
		tc, ok := rsv.lookup(fam, xstyle, xweight, size)
		if !ok {
			continue
		}
		cover := coverage(tc.ScalableFontParent(), missing)
		if cover > bestCover {
			best, bestCover = tc, cover
		}
		if cover == len(missing) {
			break
		}
	}
	if best == nil || bestCover == 0 {
		// last stop: the built-in font
		tc, err := rsv.builtinFallback(xstyle, xweight, size)
		if err == nil && coverage(tc.ScalableFontParent(), missing) > 0 {
			return tc, nil
		}
		return nil, core.MissingFontError{
			Family: "fallback chain",
			Weight: weight,
			Style:  style,
			Detail: "glyphs missing in primary and every fallback font",
		}
	}
	return best, nil
}

// lookup tries the registry, then the system fonts, for one family.
func (rsv *Resolver) lookup(family string, style xfont.Style, weight xfont.Weight, size float64) (*font.TypeCase, bool) {
	key := Key(family, style, weight)
	if tc, err := rsv.reg.TypeCase(key, size); err == nil {
		return tc, true
	}
	fpath, ok := rsv.findSystemFont(family, style, weight)
	if !ok {
		// a registered font under the plain family name still beats failing
		if tc, err := rsv.reg.TypeCase(Key(family, xfont.StyleNormal, xfont.WeightNormal), size); err == nil {
			return tc, true
		}
		return nil, false
	}
	f, err := font.LoadOpenTypeFont(fpath)
	if err != nil {
		tracer().Errorf("cannot parse font file %s: %v", fpath, err)
		return nil, false
	}
	// the name table may declare a different subfamily than the file
	// name suggests; register the font under both keys
	if s, w := f.StyleAndWeight(); s != style || w != weight {
		tracer().Debugf("font %s declares %v/%v, file name suggested %v/%v",
			f.Fontname, s, w, style, weight)
		rsv.reg.StoreFont(Key(family, s, w), f)
	}
	rsv.reg.StoreFont(key, f)
	tc, err := rsv.reg.TypeCase(key, size)
	if err != nil {
		return nil, false
	}
	return tc, true
}

// findSystemFont searches the system font list for a file matching family,
// style and weight. A regular variant of the family is accepted when no
// exact style/weight variant exists (browsers synthesize in that case; we
// at least keep the family).
func (rsv *Resolver) findSystemFont(family string, style xfont.Style, weight xfont.Weight) (string, bool) {
	squashed := squash(family)
	var familyOnly string
	for _, fpath := range rsv.systemFonts() {
		base := squash(strings.TrimSuffix(filepath.Base(fpath), filepath.Ext(fpath)))
		if !strings.HasPrefix(base, squashed) {
			continue
		}
		s, w := font.GuessStyleAndWeight(fpath)
		if s == style && w == weight {
			return fpath, true
		}
		if familyOnly == "" && s == xfont.StyleNormal && w == xfont.WeightNormal {
			familyOnly = fpath
		}
	}
	if familyOnly != "" {
		tracer().Debugf("no %v/%v variant of %s, using regular", style, weight, family)
		return familyOnly, true
	}
	// findfont also matches fuzzily on partial names
	if fpath, err := findfont.Find(family + ".ttf"); err == nil && fpath != "" {
		return fpath, true
	}
	return "", false
}

func (rsv *Resolver) builtinFallback(style xfont.Style, weight xfont.Weight, size float64) (*font.TypeCase, error) {
	f := font.FallbackFont()
	key := Key(f.Fontname, style, weight)
	rsv.reg.StoreFont(key, f)
	return rsv.reg.TypeCase(key, size)
}

func appendChain(families, fallbacks []string) []string {
	out := make([]string, 0, len(families)+len(fallbacks))
	out = append(out, families...)
	out = append(out, fallbacks...)
	return out
}

func isGenericFamily(fam string) bool {
	switch strings.ToLower(fam) {
	case "serif", "sans-serif", "monospace", "cursive", "fantasy", "system-ui":
		return true
	}
	return false
}

func squash(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "-", "")
	s = strings.ReplaceAll(s, "_", "")
	return s
}

func coverage(f *font.ScalableFont, runes []rune) int {
	n := 0
	for _, r := range runes {
		if f.HasGlyph(r) {
			n++
		}
	}
	return n
}

// scriptFallbacks returns fallback family preferences for the script the
// rune belongs to. The buckets mirror common platform fallbacks for
// Arabic, CJK and symbol ranges.
func scriptFallbacks(r rune) []string {
	switch {
	case r >= 0x0600 && r <= 0x06FF, r >= 0x0750 && r <= 0x077F:
		return []string{"Geeza Pro", "Noto Sans Arabic", "Arial Unicode MS", "DejaVu Sans"}
	case r >= 0x4E00 && r <= 0x9FFF, r >= 0x3400 && r <= 0x4DBF:
		return []string{"PingFang SC", "Noto Sans CJK SC", "Noto Sans SC", "Arial Unicode MS"}
	case r >= 0x2600 && r <= 0x27FF, r >= 0x1F300 && r <= 0x1FAFF:
		return []string{"Apple Symbols", "Symbola", "Segoe UI Symbol", "Noto Sans Symbols2"}
	case r > 0x1000:
		return []string{"Arial Unicode MS", "Noto Sans", "DejaVu Sans"}
	}
	return []string{"DejaVu Sans", "Noto Sans", "Arial Unicode MS"}
}
