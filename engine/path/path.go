/*
Package path parses SVG path data and answers arc-length queries.

A PathGeometry is built once from a `d` attribute: the outline is
flattened to a polyline (curves sampled at a fixed parametric step)
with a cumulative arc-length table. PointAtLength then interpolates
position and unit tangent along the polyline, which is what placing
glyphs on a path needs.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2023–2026 Emasoft
*/
package path

import (
	"math"
	"strconv"
	"strings"

	"github.com/npillmayer/schuko/tracing"

	"github.com/Emasoft/svg-text2path/core"
)

// tracer traces with key 't2p.path'.
func tracer() tracing.Trace {
	return tracing.Select("t2p.path")
}

// curveSteps is the fixed number of polyline segments per curve command.
const curveSteps = 24

// Pt is a point in user units.
type Pt struct {
	X, Y float64
}

// segment is a straight line with cached length and tangent angle.
type segment struct {
	a, b   Pt
	length float64
	angle  float64 // tangent angle in radians
}

// PathGeometry answers point and tangent queries by arc length.
type PathGeometry struct {
	segs  []segment
	accum []float64 // accumulated length at the start of each segment
	total float64
}

// Length returns the total arc length of the path.
func (pg *PathGeometry) Length() float64 {
	return pg.total
}

// PointAtLength returns the point and unit tangent at distance s along
// the path. ok is false when s lies outside [0, Length]; glyphs mapped
// there are not rendered.
func (pg *PathGeometry) PointAtLength(s float64) (p Pt, tangent Pt, ok bool) {
	if s < 0 || s > pg.total || len(pg.segs) == 0 {
		return Pt{}, Pt{}, false
	}
	// binary search for the segment containing s
	lo, hi := 0, len(pg.segs)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if pg.accum[mid] <= s {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	sg := pg.segs[lo]
	t := 0.0
	if sg.length > 0 {
		t = (s - pg.accum[lo]) / sg.length
	}
	p = Pt{sg.a.X + (sg.b.X-sg.a.X)*t, sg.a.Y + (sg.b.Y-sg.a.Y)*t}
	tangent = Pt{math.Cos(sg.angle), math.Sin(sg.angle)}
	return p, tangent, true
}

// AngleAtLength returns the tangent angle in radians at distance s.
func (pg *PathGeometry) AngleAtLength(s float64) (float64, bool) {
	_, tg, ok := pg.PointAtLength(s)
	if !ok {
		return 0, false
	}
	return math.Atan2(tg.Y, tg.X), true
}

// FromSVGPath parses a `d` attribute and builds the arc-length
// geometry. An empty or unparsable attribute yields PathGeometryError.
func FromSVGPath(d string) (*PathGeometry, error) {
	pts, err := flatten(d)
	if err != nil {
		return nil, err
	}
	if len(pts) < 2 {
		return nil, core.PathGeometryError{Detail: "path has no extent"}
	}
	pg := &PathGeometry{}
	for i := 0; i < len(pts)-1; i++ {
		a, b := pts[i], pts[i+1]
		length := math.Hypot(b.X-a.X, b.Y-a.Y)
		if length <= 0 {
			continue
		}
		pg.accum = append(pg.accum, pg.total)
		pg.segs = append(pg.segs, segment{
			a: a, b: b,
			length: length,
			angle:  math.Atan2(b.Y-a.Y, b.X-a.X),
		})
		pg.total += length
	}
	if pg.total == 0 {
		return nil, core.PathGeometryError{Detail: "path has zero length"}
	}
	tracer().Debugf("path geometry: %d segments, length %.2f", len(pg.segs), pg.total)
	return pg, nil
}

// --- d attribute parsing ---------------------------------------------------

type scanner struct {
	d   string
	pos int
}

func (sc *scanner) skipSeparators() {
	for sc.pos < len(sc.d) {
		c := sc.d[sc.pos]
		if c == ' ' || c == ',' || c == '\t' || c == '\n' || c == '\r' {
			sc.pos++
		} else {
			break
		}
	}
}

func (sc *scanner) nextCommand() (byte, bool) {
	sc.skipSeparators()
	if sc.pos >= len(sc.d) {
		return 0, false
	}
	c := sc.d[sc.pos]
	if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
		sc.pos++
		return c, true
	}
	return 0, false
}

func (sc *scanner) hasNumber() bool {
	sc.skipSeparators()
	if sc.pos >= len(sc.d) {
		return false
	}
	c := sc.d[sc.pos]
	return c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9')
}

func (sc *scanner) number() (float64, error) {
	sc.skipSeparators()
	start := sc.pos
	if sc.pos < len(sc.d) && (sc.d[sc.pos] == '-' || sc.d[sc.pos] == '+') {
		sc.pos++
	}
	dot := false
	for sc.pos < len(sc.d) {
		c := sc.d[sc.pos]
		if c >= '0' && c <= '9' {
			sc.pos++
		} else if c == '.' && !dot {
			dot = true
			sc.pos++
		} else if (c == 'e' || c == 'E') && sc.pos > start {
			sc.pos++
			if sc.pos < len(sc.d) && (sc.d[sc.pos] == '-' || sc.d[sc.pos] == '+') {
				sc.pos++
			}
		} else {
			break
		}
	}
	if sc.pos == start {
		return 0, core.PathGeometryError{Detail: "expected number at offset " + strconv.Itoa(sc.pos)}
	}
	n, err := strconv.ParseFloat(sc.d[start:sc.pos], 64)
	if err != nil {
		return 0, core.PathGeometryError{Detail: "bad number " + sc.d[start:sc.pos]}
	}
	return n, nil
}

func (sc *scanner) numbers(n int) ([]float64, error) {
	out := make([]float64, n)
	for i := range out {
		v, err := sc.number()
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// flatten walks the path commands and emits the sampled polyline.
func flatten(d string) ([]Pt, error) {
	d = strings.TrimSpace(d)
	if d == "" {
		return nil, core.PathGeometryError{Detail: "empty path data"}
	}
	sc := &scanner{d: d}
	var pts []Pt
	var cur, start, prevCtrl Pt
	var prevCmd byte
	emit := func(p Pt) {
		pts = append(pts, p)
		cur = p
	}
	for {
		cmd, ok := sc.nextCommand()
		if !ok {
			if sc.hasNumber() {
				// implicit command repetition
				switch prevCmd {
				case 'M':
					cmd = 'L'
				case 'm':
					cmd = 'l'
				case 0:
					return nil, core.PathGeometryError{Detail: "path data does not start with a command"}
				default:
					cmd = prevCmd
				}
			} else {
				break
			}
		}
		rel := cmd >= 'a'
		abs := func(x, y float64) Pt {
			if rel {
				return Pt{cur.X + x, cur.Y + y}
			}
			return Pt{x, y}
		}
		switch upper(cmd) {
		case 'M':
			args, err := sc.numbers(2)
			if err != nil {
				return nil, err
			}
			p := abs(args[0], args[1])
			pts = append(pts, p)
			cur, start = p, p
		case 'L':
			args, err := sc.numbers(2)
			if err != nil {
				return nil, err
			}
			emit(abs(args[0], args[1]))
		case 'H':
			args, err := sc.numbers(1)
			if err != nil {
				return nil, err
			}
			if rel {
				emit(Pt{cur.X + args[0], cur.Y})
			} else {
				emit(Pt{args[0], cur.Y})
			}
		case 'V':
			args, err := sc.numbers(1)
			if err != nil {
				return nil, err
			}
			if rel {
				emit(Pt{cur.X, cur.Y + args[0]})
			} else {
				emit(Pt{cur.X, args[0]})
			}
		case 'C':
			args, err := sc.numbers(6)
			if err != nil {
				return nil, err
			}
			c1 := abs(args[0], args[1])
			c2 := abs(args[2], args[3])
			end := abs(args[4], args[5])
			sampleCubic(&pts, cur, c1, c2, end)
			cur, prevCtrl = end, c2
		case 'S':
			args, err := sc.numbers(4)
			if err != nil {
				return nil, err
			}
			c1 := reflect(cur, prevCtrl, prevCmd, 'C')
			c2 := abs(args[0], args[1])
			end := abs(args[2], args[3])
			sampleCubic(&pts, cur, c1, c2, end)
			cur, prevCtrl = end, c2
		case 'Q':
			args, err := sc.numbers(4)
			if err != nil {
				return nil, err
			}
			c1 := abs(args[0], args[1])
			end := abs(args[2], args[3])
			sampleQuad(&pts, cur, c1, end)
			cur, prevCtrl = end, c1
		case 'T':
			args, err := sc.numbers(2)
			if err != nil {
				return nil, err
			}
			c1 := reflect(cur, prevCtrl, prevCmd, 'Q')
			end := abs(args[0], args[1])
			sampleQuad(&pts, cur, c1, end)
			cur, prevCtrl = end, c1
		case 'A':
			args, err := sc.numbers(7)
			if err != nil {
				return nil, err
			}
			end := abs(args[5], args[6])
			sampleArc(&pts, cur, args[0], args[1], args[2], args[3] != 0, args[4] != 0, end)
			cur = end
		case 'Z':
			if cur != start {
				emit(start)
			}
			cur = start
		default:
			return nil, core.PathGeometryError{Detail: "unknown path command " + string(cmd)}
		}
		prevCmd = cmd
	}
	return pts, nil
}

func upper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - 'a' + 'A'
	}
	return c
}

// reflect computes the reflected control point for smooth curve
// commands. The reflection only applies when the previous command was
// of the same curve family.
func reflect(cur, prevCtrl Pt, prevCmd, family byte) Pt {
	prev := upper(prevCmd)
	if family == 'C' && (prev == 'C' || prev == 'S') {
		return Pt{2*cur.X - prevCtrl.X, 2*cur.Y - prevCtrl.Y}
	}
	if family == 'Q' && (prev == 'Q' || prev == 'T') {
		return Pt{2*cur.X - prevCtrl.X, 2*cur.Y - prevCtrl.Y}
	}
	return cur
}

func sampleCubic(pts *[]Pt, p0, p1, p2, p3 Pt) {
	for s := 1; s <= curveSteps; s++ {
		t := float64(s) / curveSteps
		u := 1 - t
		*pts = append(*pts, Pt{
			X: u*u*u*p0.X + 3*u*u*t*p1.X + 3*u*t*t*p2.X + t*t*t*p3.X,
			Y: u*u*u*p0.Y + 3*u*u*t*p1.Y + 3*u*t*t*p2.Y + t*t*t*p3.Y,
		})
	}
}

func sampleQuad(pts *[]Pt, p0, p1, p2 Pt) {
	for s := 1; s <= curveSteps; s++ {
		t := float64(s) / curveSteps
		u := 1 - t
		*pts = append(*pts, Pt{
			X: u*u*p0.X + 2*u*t*p1.X + t*t*p2.X,
			Y: u*u*p0.Y + 2*u*t*p1.Y + t*t*p2.Y,
		})
	}
}

// sampleArc converts an SVG elliptical arc from endpoint to center
// parameterization and samples the sweep.
func sampleArc(pts *[]Pt, p0 Pt, rx, ry, xrotDeg float64, largeArc, sweep bool, p1 Pt) {
	if p0 == p1 {
		return
	}
	rx, ry = math.Abs(rx), math.Abs(ry)
	if rx == 0 || ry == 0 {
		*pts = append(*pts, p1)
		return
	}
	phi := xrotDeg * math.Pi / 180
	cosPhi, sinPhi := math.Cos(phi), math.Sin(phi)
	dx2 := (p0.X - p1.X) / 2
	dy2 := (p0.Y - p1.Y) / 2
	x1p := cosPhi*dx2 + sinPhi*dy2
	y1p := -sinPhi*dx2 + cosPhi*dy2
	// scale radii up if the endpoints are too far apart
	lambda := x1p*x1p/(rx*rx) + y1p*y1p/(ry*ry)
	if lambda > 1 {
		s := math.Sqrt(lambda)
		rx *= s
		ry *= s
	}
	num := rx*rx*ry*ry - rx*rx*y1p*y1p - ry*ry*x1p*x1p
	den := rx*rx*y1p*y1p + ry*ry*x1p*x1p
	co := 0.0
	if den != 0 && num > 0 {
		co = math.Sqrt(num / den)
	}
	if largeArc == sweep {
		co = -co
	}
	cxp := co * rx * y1p / ry
	cyp := -co * ry * x1p / rx
	cx := cosPhi*cxp - sinPhi*cyp + (p0.X+p1.X)/2
	cy := sinPhi*cxp + cosPhi*cyp + (p0.Y+p1.Y)/2
	theta1 := math.Atan2((y1p-cyp)/ry, (x1p-cxp)/rx)
	theta2 := math.Atan2((-y1p-cyp)/ry, (-x1p-cxp)/rx)
	dTheta := theta2 - theta1
	if sweep && dTheta < 0 {
		dTheta += 2 * math.Pi
	} else if !sweep && dTheta > 0 {
		dTheta -= 2 * math.Pi
	}
	steps := curveSteps
	if span := math.Abs(dTheta); span > math.Pi {
		steps = int(float64(curveSteps) * span / math.Pi)
	}
	for s := 1; s <= steps; s++ {
		t := theta1 + dTheta*float64(s)/float64(steps)
		x := cx + rx*math.Cos(t)*cosPhi - ry*math.Sin(t)*sinPhi
		y := cy + rx*math.Cos(t)*sinPhi + ry*math.Sin(t)*cosPhi
		*pts = append(*pts, Pt{x, y})
	}
	// land exactly on the endpoint
	(*pts)[len(*pts)-1] = p1
}
