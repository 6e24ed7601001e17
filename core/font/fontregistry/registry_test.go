package fontregistry

import (
	"errors"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	xfont "golang.org/x/image/font"

	"github.com/Emasoft/svg-text2path/core"
	"github.com/Emasoft/svg-text2path/core/font"
)

func TestRegistryTypeCaseCaching(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "t2p.fonts")
	defer teardown()
	//
	reg := NewRegistry()
	key := Key("My Family", xfont.StyleNormal, xfont.WeightNormal)
	reg.StoreFont(key, font.FallbackFont())
	tc1, err := reg.TypeCase(key, 12)
	if err != nil {
		t.Fatal(err)
	}
	tc2, err := reg.TypeCase(key, 12)
	if err != nil {
		t.Fatal(err)
	}
	if tc1 != tc2 {
		t.Errorf("expected typecases of equal size to be cached, haven't")
	}
	if _, err := reg.TypeCase("unknown-font", 12); err == nil {
		t.Errorf("expected lookup of unknown font to fail, hasn't")
	}
}

func TestResolveGenericFamily(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "t2p.fonts")
	defer teardown()
	//
	rsv := NewResolver(NewRegistry(), nil)
	tc, err := rsv.Resolve([]string{"sans-serif"}, 400, "normal", 12)
	if err != nil {
		t.Fatal(err)
	}
	if tc == nil || tc.Size() != 12 {
		t.Errorf("expected a 12px typecase for sans-serif")
	}
}

func TestResolveEmptyFamilyListUsesBuiltin(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "t2p.fonts")
	defer teardown()
	//
	rsv := NewResolver(NewRegistry(), nil)
	tc, err := rsv.Resolve(nil, 400, "normal", 16)
	if err != nil {
		t.Fatal(err)
	}
	if tc.ScalableFontParent() != font.FallbackFont() {
		t.Errorf("expected the built-in font for an empty family list")
	}
}

func TestResolveRegisteredFamily(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "t2p.fonts")
	defer teardown()
	//
	reg := NewRegistry()
	reg.StoreFont(Key("House Font", xfont.StyleNormal, xfont.WeightNormal), font.FallbackFont())
	rsv := NewResolver(reg, nil)
	tc, err := rsv.Resolve([]string{"House Font"}, 400, "normal", 10)
	if err != nil {
		t.Fatal(err)
	}
	if tc.ScalableFontParent() != font.FallbackFont() {
		t.Errorf("expected the registered font to resolve")
	}
}

func TestResolveUnknownFamilyIsStrict(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "t2p.fonts")
	defer teardown()
	//
	rsv := NewResolver(NewRegistry(), nil)
	_, err := rsv.Resolve([]string{"NoSuchFamilyXYZZY"}, 400, "normal", 12)
	if err == nil {
		t.Fatal("expected resolution of unknown family to fail, hasn't")
	}
	var mfe core.MissingFontError
	if !errors.As(err, &mfe) {
		t.Errorf("expected MissingFontError, have %v", err)
	}
	if core.Code(err) != core.EMISSING {
		t.Errorf("expected error code EMISSING, have %d", core.Code(err))
	}
}

func TestResolveCoveringLatin(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "t2p.fonts")
	defer teardown()
	//
	rsv := NewResolver(NewRegistry(), nil)
	tc, err := rsv.ResolveCovering([]rune{'A', 'z'}, 400, "normal", 12)
	if err != nil {
		t.Fatal(err)
	}
	sf := tc.ScalableFontParent()
	if !sf.HasGlyph('A') || !sf.HasGlyph('z') {
		t.Errorf("covering font does not cover the requested runes")
	}
}
