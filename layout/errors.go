package layout

import "errors"

// Contract violations. These indicate caller bugs or broken configuration
// and abort the layout call; the engine never substitutes default geometry
// for them.
var (
	// ErrLengthMismatch - blocks and measures differ in length.
	ErrLengthMismatch = errors.New("blocks and measures length mismatch")
	// ErrMeasureKind - a measure's variant does not match its block's kind.
	ErrMeasureKind = errors.New("measure kind does not match block kind")
	// ErrBlockKind - a block of unsupported kind was encountered.
	ErrBlockKind = errors.New("unsupported block kind")
	// ErrGeometry - resolved page/column/content dimensions are not positive.
	ErrGeometry = errors.New("non-positive layout geometry")
)
