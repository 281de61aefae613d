package model

import "errors"

// Domain errors for tree construction.
var (
	// ErrUnknownParent indicates a parent id that has not been added yet.
	ErrUnknownParent = errors.New("model: unknown parent body")

	// ErrDuplicateName indicates two bodies registered under the same name.
	ErrDuplicateName = errors.New("model: duplicate body name")

	// ErrInvalidJoint indicates a joint with a degenerate axis.
	ErrInvalidJoint = errors.New("model: invalid joint axis")

	// ErrInvalidBody indicates negative mass or a non-finite inertia.
	ErrInvalidBody = errors.New("model: invalid body parameters")
)
