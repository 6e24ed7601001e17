package path

import (
	"math"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

func TestStraightPathLength(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "t2p.path")
	defer teardown()
	pg, err := FromSVGPath("M 0 0 L 100 0")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if math.Abs(pg.Length()-100) > 1e-9 {
		t.Errorf("length = %g, want 100", pg.Length())
	}
	p, tg, ok := pg.PointAtLength(40)
	if !ok {
		t.Fatal("40 should be on the path")
	}
	if math.Abs(p.X-40) > 1e-9 || math.Abs(p.Y) > 1e-9 {
		t.Errorf("point at 40 = %v", p)
	}
	if math.Abs(tg.X-1) > 1e-9 || math.Abs(tg.Y) > 1e-9 {
		t.Errorf("tangent at 40 = %v", tg)
	}
}

func TestPolylineTangents(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "t2p.path")
	defer teardown()
	pg, err := FromSVGPath("M 0 0 H 10 V 10")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if math.Abs(pg.Length()-20) > 1e-9 {
		t.Errorf("length = %g, want 20", pg.Length())
	}
	_, tg, ok := pg.PointAtLength(15)
	if !ok {
		t.Fatal("15 should be on the path")
	}
	if math.Abs(tg.X) > 1e-9 || math.Abs(tg.Y-1) > 1e-9 {
		t.Errorf("tangent on vertical leg = %v", tg)
	}
}

func TestOutOfRangeQueries(t *testing.T) {
	pg, err := FromSVGPath("M0,0 L10,0")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if _, _, ok := pg.PointAtLength(-1); ok {
		t.Error("negative arc position should be off-path")
	}
	if _, _, ok := pg.PointAtLength(10.5); ok {
		t.Error("position beyond the end should be off-path")
	}
}

func TestRelativeAndImplicitCommands(t *testing.T) {
	pg, err := FromSVGPath("m 0 0 l 10 0 10 0")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if math.Abs(pg.Length()-20) > 1e-9 {
		t.Errorf("length = %g, want 20", pg.Length())
	}
}

func TestCubicCurveLengthPlausible(t *testing.T) {
	// a flat cubic along the x axis must measure its chord
	pg, err := FromSVGPath("M0,0 C 30,0 70,0 100,0")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if math.Abs(pg.Length()-100) > 0.1 {
		t.Errorf("flat cubic length = %g, want ~100", pg.Length())
	}
}

func TestArcSemicircleLength(t *testing.T) {
	pg, err := FromSVGPath("M 0 0 A 50 50 0 0 1 100 0")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	want := math.Pi * 50
	if math.Abs(pg.Length()-want) > want*0.01 {
		t.Errorf("semicircle length = %g, want ~%g", pg.Length(), want)
	}
}

func TestEmptyAndGarbagePaths(t *testing.T) {
	if _, err := FromSVGPath(""); err == nil {
		t.Error("empty d must fail")
	}
	if _, err := FromSVGPath("giraffe"); err == nil {
		t.Error("garbage d must fail")
	}
	if _, err := FromSVGPath("M 0 0"); err == nil {
		t.Error("single point has no extent")
	}
}

func TestCacheComputesOnce(t *testing.T) {
	c := NewCache()
	pg1, err := c.Geometry("p1", "M0,0 L10,0")
	if err != nil {
		t.Fatalf("first lookup failed: %v", err)
	}
	pg2, err := c.Geometry("p1", "ignored on second lookup")
	if err != nil {
		t.Fatalf("second lookup failed: %v", err)
	}
	if pg1 != pg2 {
		t.Error("cache must return the same geometry instance")
	}
	if _, err := c.Geometry("broken", ""); err == nil {
		t.Error("broken path must fail")
	}
	if _, err := c.Geometry("broken", "M0,0 L10,0"); err == nil {
		t.Error("failure must be cached per id")
	}
}
