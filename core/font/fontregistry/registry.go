package fontregistry

import (
	"fmt"
	"sync"

	"github.com/Emasoft/svg-text2path/core"
	"github.com/Emasoft/svg-text2path/core/font"
	"github.com/npillmayer/schuko/tracing"
	xfont "golang.org/x/image/font"
)

// tracer traces with key 't2p.fonts'.
func tracer() tracing.Trace {
	return tracing.Select("t2p.fonts")
}

// Registry is a type for holding information about loaded fonts for a
// conversion run. Its lookups are read-shared across text subtrees and
// are safe for concurrent use.
type Registry struct {
	sync.Mutex
	fonts     map[string]*font.ScalableFont
	typecases map[string]*font.TypeCase
}

var globalFontRegistry *Registry

var globalRegistryCreation sync.Once

// GlobalRegistry is an application-wide singleton to hold information about
// loaded fonts and typecases.
func GlobalRegistry() *Registry {
	globalRegistryCreation.Do(func() {
		globalFontRegistry = NewRegistry()
	})
	return globalFontRegistry
}

func NewRegistry() *Registry {
	fr := &Registry{
		fonts:     make(map[string]*font.ScalableFont),
		typecases: make(map[string]*font.TypeCase),
	}
	return fr
}

// StoreFont pushes a font into the registry if it isn't contained yet.
//
// The font will be stored using the normalized font name as a key. If this
// key is already associated with a font, that font will not be overridden.
func (fr *Registry) StoreFont(normalizedName string, f *font.ScalableFont) {
	if f == nil {
		tracer().Errorf("registry cannot store null font")
		return
	}
	fr.Lock()
	defer fr.Unlock()
	if _, ok := fr.fonts[normalizedName]; !ok {
		tracer().Debugf("registry stores font %s as %s", f.Fontname, normalizedName)
		fr.fonts[normalizedName] = f
	}
}

// Font returns a stored font under a normalized name, or nil.
func (fr *Registry) Font(normalizedName string) *font.ScalableFont {
	fr.Lock()
	defer fr.Unlock()
	return fr.fonts[normalizedName]
}

// TypeCase returns a concrete typecase with a given font and size.
// If a suitable typecase has already been cached, TypeCase will return the
// cached typecase. If a suitable font has previously been stored under key
// `normalizedName`, a typecase will be derived from this font.
//
// Unlike a general-purpose typesetter there is no silent substitution here:
// if no font is stored under the given key, TypeCase fails. Fallback
// handling is the resolver's business and always explicit.
func (fr *Registry) TypeCase(normalizedName string, size float64) (*font.TypeCase, error) {
	tracer().Debugf("registry searches for font %s at %.2f", normalizedName, size)
	tname := appendSize(normalizedName, size)
	fr.Lock()
	defer fr.Unlock()
	if t, ok := fr.typecases[tname]; ok {
		return t, nil
	}
	if f, ok := fr.fonts[normalizedName]; ok {
		t, err := f.PrepareCase(size)
		if err != nil {
			return nil, err
		}
		tracer().Debugf("font registry has font %s, caches at %.2f", normalizedName, size)
		fr.typecases[tname] = t
		return t, nil
	}
	return nil, core.ErrorWithCode(fmt.Errorf("font %s not found in registry", normalizedName), core.EMISSING)
}

// LogFontList is a helper function to dump the list of known fonts and
// typecases in a registry to the trace-file (log-level Info).
func (fr *Registry) LogFontList() {
	level := tracer().GetTraceLevel()
	tracer().SetTraceLevel(tracing.LevelInfo)
	tracer().Infof("--- registered fonts ---")
	fr.Lock()
	defer fr.Unlock()
	for k, v := range fr.fonts {
		tracer().Infof("font [%s] = %v", k, v.Fontname)
	}
	for k, v := range fr.typecases {
		tracer().Infof("typecase [%s] = %v", k, v.ScalableFontParent().Fontname)
	}
	tracer().Infof("------------------------")
	tracer().SetTraceLevel(level)
}

// FontNames returns the normalized names of all stored fonts.
func (fr *Registry) FontNames() []string {
	fr.Lock()
	defer fr.Unlock()
	names := make([]string, 0, len(fr.fonts))
	for k := range fr.fonts {
		names = append(names, k)
	}
	return names
}

func appendSize(fname string, size float64) string {
	return fmt.Sprintf("%s-%.2f", fname, size)
}

// Key produces the registry key for a family with style and weight.
func Key(family string, style xfont.Style, weight xfont.Weight) string {
	return font.NormalizeFontname(family, style, weight)
}
