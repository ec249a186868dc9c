package geometry

import "fmt"

// Tag identifies the region a rectangle belongs to: the distinguished
// Ground tag, the distinguished Blockage tag, or a user identifier.
type Tag string

// Ground is the distinguished tag meaning "unrestricted, allocatable area".
const Ground Tag = "ground"

// Blockage is the distinguished tag meaning "no module may occupy".
const Blockage Tag = "blockage"

// Rectangle is an axis-aligned rectangle with a region tag and mobility flags.
type Rectangle struct {
	Center Point
	Shape  Shape
	Region Tag
	Fixed  bool // placement is immutable
	Hard   bool // shape is immutable but it may translate
}

// NewRectangle builds a Rectangle from its center and shape, defaulting to
// the Ground region. Region, Fixed and Hard can be set afterward.
func NewRectangle(center Point, shape Shape) Rectangle {
	return Rectangle{Center: center, Shape: shape, Region: Ground}
}

// BoundingBox returns (lowerLeft, upperRight).
func (r Rectangle) BoundingBox() (Point, Point) {
	halfW, halfH := r.Shape.W/2, r.Shape.H/2
	return Point{X: r.Center.X - halfW, Y: r.Center.Y - halfH},
		Point{X: r.Center.X + halfW, Y: r.Center.Y + halfH}
}

// Area returns the rectangle's area.
func (r Rectangle) Area() float64 {
	return r.Shape.Area()
}

// AspectRatio returns max(w/h, h/w) >= 1.
func (r Rectangle) AspectRatio() float64 {
	return r.Shape.AspectRatio()
}

// PointInside reports whether p lies inside the closed rectangle (boundary
// counts as inside).
func (r Rectangle) PointInside(p Point) bool {
	ll, ur := r.BoundingBox()
	return ll.X <= p.X && p.X <= ur.X && ll.Y <= p.Y && p.Y <= ur.Y
}

// IsInside reports whether r lies entirely inside other.
func (r Rectangle) IsInside(other Rectangle) bool {
	ll, ur := r.BoundingBox()
	oll, our := other.BoundingBox()
	return ll.X >= oll.X && ll.Y >= oll.Y && ur.X <= our.X && ur.Y <= our.Y
}

// AreaOverlap returns the intersection area of r and other. Rectangles that
// only share an edge return 0 (touching is not overlapping).
func (r Rectangle) AreaOverlap(other Rectangle) float64 {
	ll1, ur1 := r.BoundingBox()
	ll2, ur2 := other.BoundingBox()
	minX := max(ll1.X, ll2.X)
	maxX := min(ur1.X, ur2.X)
	if minX >= maxX {
		return 0
	}
	minY := max(ll1.Y, ll2.Y)
	maxY := min(ur1.Y, ur2.Y)
	if minY >= maxY {
		return 0
	}
	return (maxX - minX) * (maxY - minY)
}

// Overlaps reports whether r and other overlap with positive area.
func (r Rectangle) Overlaps(other Rectangle) bool {
	return r.AreaOverlap(other) > 0
}

// Intersect returns the intersection rectangle of r and other, or (_, false)
// if their regions differ or the intersection has zero area. The returned
// rectangle is tagged with r's region.
func (r Rectangle) Intersect(other Rectangle) (Rectangle, bool) {
	if r.Region != other.Region {
		return Rectangle{}, false
	}
	ll1, ur1 := r.BoundingBox()
	ll2, ur2 := other.BoundingBox()
	minX := max(ll1.X, ll2.X)
	maxX := min(ur1.X, ur2.X)
	width := maxX - minX
	if width <= 0 {
		return Rectangle{}, false
	}
	minY := max(ll1.Y, ll2.Y)
	maxY := min(ur1.Y, ur2.Y)
	height := maxY - minY
	if height <= 0 {
		return Rectangle{}, false
	}
	center := Point{X: minX + width/2, Y: minY + height/2}
	return Rectangle{Center: center, Shape: Shape{W: width, H: height}, Region: r.Region}, true
}

// Duplicate returns a copy of r.
func (r Rectangle) Duplicate() Rectangle {
	return r
}

// SplitHorizontal cuts r at the vertical line x=cut into a left and a right
// piece, both inheriting region/fixed/hard. It is an error if cut does not
// lie strictly inside r.
func (r Rectangle) SplitHorizontal(cut float64) (Rectangle, Rectangle, error) {
	ll, ur := r.BoundingBox()
	if !(ll.X < cut && cut < ur.X) {
		return Rectangle{}, Rectangle{}, fmt.Errorf("geometry: split_horizontal cut %g not strictly inside [%g, %g]", cut, ll.X, ur.X)
	}
	left := Rectangle{
		Center: Point{X: (ll.X + cut) / 2, Y: r.Center.Y},
		Shape:  Shape{W: cut - ll.X, H: r.Shape.H},
		Region: r.Region, Fixed: r.Fixed, Hard: r.Hard,
	}
	right := Rectangle{
		Center: Point{X: (ur.X + cut) / 2, Y: r.Center.Y},
		Shape:  Shape{W: r.Shape.W - left.Shape.W, H: r.Shape.H},
		Region: r.Region, Fixed: r.Fixed, Hard: r.Hard,
	}
	return left, right, nil
}

// SplitHorizontalMid cuts r at its vertical midline.
func (r Rectangle) SplitHorizontalMid() (Rectangle, Rectangle, error) {
	return r.SplitHorizontal(r.Center.X)
}

// SplitVertical cuts r at the horizontal line y=cut into a bottom and a top
// piece, both inheriting region/fixed/hard. It is an error if cut does not
// lie strictly inside r.
func (r Rectangle) SplitVertical(cut float64) (Rectangle, Rectangle, error) {
	ll, ur := r.BoundingBox()
	if !(ll.Y < cut && cut < ur.Y) {
		return Rectangle{}, Rectangle{}, fmt.Errorf("geometry: split_vertical cut %g not strictly inside [%g, %g]", cut, ll.Y, ur.Y)
	}
	bottom := Rectangle{
		Center: Point{X: r.Center.X, Y: (ll.Y + cut) / 2},
		Shape:  Shape{W: r.Shape.W, H: cut - ll.Y},
		Region: r.Region, Fixed: r.Fixed, Hard: r.Hard,
	}
	top := Rectangle{
		Center: Point{X: r.Center.X, Y: (ur.Y + cut) / 2},
		Shape:  Shape{W: r.Shape.W, H: r.Shape.H - bottom.Shape.H},
		Region: r.Region, Fixed: r.Fixed, Hard: r.Hard,
	}
	return bottom, top, nil
}

// SplitVerticalMid cuts r at its horizontal midline.
func (r Rectangle) SplitVerticalMid() (Rectangle, Rectangle, error) {
	return r.SplitVertical(r.Center.Y)
}

// Split cuts r perpendicular to its longer side, at the midline.
func (r Rectangle) Split() (Rectangle, Rectangle, error) {
	if r.Shape.W >= r.Shape.H {
		return r.SplitHorizontalMid()
	}
	return r.SplitVerticalMid()
}

// XCuttable reports whether cutting r vertically at x leaves both pieces
// with width exceeding ratio*height.
func (r Rectangle) XCuttable(x float64, ratio float64) bool {
	ll, ur := r.BoundingBox()
	if !(ll.X < x && x < ur.X) {
		return false
	}
	minWidth := ratio * r.Shape.H
	return (x-ll.X) > minWidth && (ur.X-x) > minWidth
}

// YCuttable reports whether cutting r horizontally at y leaves both pieces
// with height exceeding ratio*width.
func (r Rectangle) YCuttable(y float64, ratio float64) bool {
	ll, ur := r.BoundingBox()
	if !(ll.Y < y && y < ur.Y) {
		return false
	}
	minHeight := ratio * r.Shape.W
	return (y-ll.Y) > minHeight && (ur.Y-y) > minHeight
}

func (r Rectangle) String() string {
	s := fmt.Sprintf("Rectangle(center=%v, shape=%v, region=%s", r.Center, r.Shape, r.Region)
	if r.Fixed {
		s += ", fixed"
	}
	if r.Hard {
		s += ", hard"
	}
	return s + ")"
}
