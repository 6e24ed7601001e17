package svgdom

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/Emasoft/svg-text2path/core"
)

// Matrix is an affine 2D transform in SVG order:
//
//	| a c e |
//	| b d f |
//
// stored as [a b c d e f], matching the matrix() syntax.
type Matrix [6]float64

// Identity is the neutral transform.
var Identity = Matrix{1, 0, 0, 1, 0, 0}

// IsIdentity reports whether m leaves coordinates unchanged.
func (m Matrix) IsIdentity() bool {
	return m == Identity
}

// Mul returns m ∗ n, applying n first.
func (m Matrix) Mul(n Matrix) Matrix {
	return Matrix{
		m[0]*n[0] + m[2]*n[1],
		m[1]*n[0] + m[3]*n[1],
		m[0]*n[2] + m[2]*n[3],
		m[1]*n[2] + m[3]*n[3],
		m[0]*n[4] + m[2]*n[5] + m[4],
		m[1]*n[4] + m[3]*n[5] + m[5],
	}
}

// Apply transforms a point.
func (m Matrix) Apply(x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// Rotation returns a rotation about the origin by deg degrees.
func Rotation(deg float64) Matrix {
	a := deg * math.Pi / 180
	return Matrix{math.Cos(a), math.Sin(a), -math.Sin(a), math.Cos(a), 0, 0}
}

// ScaleFactor is the mean of the two axis scales, used to adjust
// stroke-width when a transform is baked into path coordinates.
func (m Matrix) ScaleFactor() float64 {
	sx := math.Hypot(m[0], m[1])
	sy := math.Hypot(m[2], m[3])
	return (sx + sy) / 2
}

// String formats m as a matrix() transform value.
func (m Matrix) String() string {
	return fmt.Sprintf("matrix(%g %g %g %g %g %g)", m[0], m[1], m[2], m[3], m[4], m[5])
}

var transformFuncPattern = regexp.MustCompile(`([a-zA-Z]+)\s*\(([^)]*)\)`)

// ParseTransform parses an SVG transform list (matrix, translate, scale,
// rotate) into a single matrix. Transforms containing skew components or
// unknown functions are reported as not bakeable; callers keep the
// attribute verbatim in that case.
func ParseTransform(s string) (m Matrix, bakeable bool, err error) {
	m = Identity
	s = strings.TrimSpace(s)
	if s == "" {
		return m, true, nil
	}
	matches := transformFuncPattern.FindAllStringSubmatch(s, -1)
	if len(matches) == 0 {
		return Identity, false, core.Error(core.EINVALID, "unparsable transform %q", s)
	}
	for _, fn := range matches {
		name := strings.ToLower(fn[1])
		args := splitNumbers(fn[2])
		var t Matrix
		switch name {
		case "matrix":
			if len(args) != 6 {
				return Identity, false, core.Error(core.EINVALID, "matrix() needs 6 numbers, got %d", len(args))
			}
			copy(t[:], args)
		case "translate":
			switch len(args) {
			case 1:
				t = Matrix{1, 0, 0, 1, args[0], 0}
			case 2:
				t = Matrix{1, 0, 0, 1, args[0], args[1]}
			default:
				return Identity, false, core.Error(core.EINVALID, "translate() needs 1 or 2 numbers")
			}
		case "scale":
			switch len(args) {
			case 1:
				t = Matrix{args[0], 0, 0, args[0], 0, 0}
			case 2:
				t = Matrix{args[0], 0, 0, args[1], 0, 0}
			default:
				return Identity, false, core.Error(core.EINVALID, "scale() needs 1 or 2 numbers")
			}
		case "rotate":
			switch len(args) {
			case 1:
				t = Rotation(args[0])
			case 3:
				cx, cy := args[1], args[2]
				t = Matrix{1, 0, 0, 1, cx, cy}.Mul(Rotation(args[0])).Mul(Matrix{1, 0, 0, 1, -cx, -cy})
			default:
				return Identity, false, core.Error(core.EINVALID, "rotate() needs 1 or 3 numbers")
			}
		case "skewx", "skewy":
			// keep the original attribute, glyph outlines would shear
			return Identity, false, nil
		default:
			return Identity, false, nil
		}
		m = m.Mul(t)
	}
	return m, true, nil
}

func splitNumbers(s string) []float64 {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	out := make([]float64, 0, len(fields))
	for _, f := range fields {
		if n, err := strconv.ParseFloat(f, 64); err == nil {
			out = append(out, n)
		}
	}
	return out
}

// FlattenedTransform accumulates the transforms from the document root
// down to el, outermost first. The second result is false if any
// ancestor transform cannot be expressed as a bakeable matrix.
func FlattenedTransform(el *Element) (Matrix, bool) {
	var chain []*Element
	for e := el; e != nil; e = e.Parent {
		chain = append(chain, e)
	}
	m := Identity
	for i := len(chain) - 1; i >= 0; i-- {
		attr := chain[i].Attr("transform")
		if attr == "" {
			continue
		}
		t, ok, err := ParseTransform(attr)
		if err != nil || !ok {
			return Identity, false
		}
		m = m.Mul(t)
	}
	return m, true
}
