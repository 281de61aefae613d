package contacts

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/contactdyn/internal/model"
)

// Contact is the read-only view of one constraint handed to the solvers.
type Contact struct {
	Body         int
	Point        mgl64.Vec3 // body frame
	Normal       mgl64.Vec3 // world axis
	Acceleration float64
}

// ConstraintSource is the ordered constraint list a solver runs over, plus
// the sink for the resulting force magnitudes. ConstraintSet and ContactList
// implement it.
type ConstraintSource interface {
	Len() int
	Contact(i int) Contact
	SetForce(i int, f float64)
}

// ContactInfo is a standalone contact for the list-based entry points. For
// impulses, Acceleration holds the target post-impact normal velocity and
// Force receives the impulse.
type ContactInfo struct {
	BodyID       int
	Point        mgl64.Vec3
	Normal       mgl64.Vec3
	Acceleration float64
	Force        float64
}

// ContactList adapts a slice of ContactInfo to ConstraintSource.
type ContactList []ContactInfo

func (l ContactList) Len() int { return len(l) }

func (l ContactList) Contact(i int) Contact {
	c := l[i]
	return Contact{Body: c.BodyID, Point: c.Point, Normal: c.Normal, Acceleration: c.Acceleration}
}

func (l ContactList) SetForce(i int, f float64) { l[i].Force = f }

var axes = [3]mgl64.Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}

// axisIndex maps a positive unit axis to its coordinate index.
func axisIndex(n mgl64.Vec3) (int, bool) {
	for i, a := range axes {
		if n == a {
			return i, true
		}
	}
	return -1, false
}

// validate checks every normal and body id of src against m.
func validate(m *model.Model, src ConstraintSource) error {
	for i := 0; i < src.Len(); i++ {
		c := src.Contact(i)
		if _, ok := axisIndex(c.Normal); !ok {
			return fmt.Errorf("%w: constraint %d has normal %v", ErrInvalidNormal, i, c.Normal)
		}
		if c.Body < 0 || c.Body >= m.NumBodies() {
			return fmt.Errorf("%w: constraint %d references body %d", ErrInvalidBody, i, c.Body)
		}
	}
	return nil
}

// pointCache remembers the last (body, point) pair so consecutive
// constraints on the same point reuse their Jacobian or acceleration.
type pointCache struct {
	body  int
	point mgl64.Vec3
	valid bool
}

// hit reports whether (body, point) matches the previous call and records it.
func (c *pointCache) hit(body int, point mgl64.Vec3) bool {
	if c.valid && c.body == body && c.point == point {
		return true
	}
	c.body, c.point, c.valid = body, point, true
	return false
}
