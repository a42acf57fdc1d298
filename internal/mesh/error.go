package mesh

import "errors"

var (
	// ErrConfigNotFound indicates the mesh configuration file does not exist
	ErrConfigNotFound = errors.New("mesh configuration file not found")

	// ErrMalformedConfig indicates the XML could not be parsed
	ErrMalformedConfig = errors.New("malformed mesh configuration")

	// ErrInvalidConfig indicates the document parsed but fails validation
	ErrInvalidConfig = errors.New("invalid mesh configuration")

	// ErrInvalidDimensions indicates non-positive grid dimensions
	ErrInvalidDimensions = errors.New("invalid grid dimensions")

	// ErrGridTooLarge indicates the point count overflows int64
	ErrGridTooLarge = errors.New("grid point count overflows")

	// ErrInvalidGeometry indicates a rank layout that cannot run
	ErrInvalidGeometry = errors.New("invalid rank geometry")
)
