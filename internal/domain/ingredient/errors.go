package ingredient

import "errors"

// Domain errors for ingredient normalization

var (
	// Lookup errors, reported per line and never fatal to a batch
	ErrUnitUnrecognized   = errors.New("unit not recognized")
	ErrDensityUnavailable = errors.New("density not available")
	ErrDimensionMismatch  = errors.New("units belong to different dimensions")

	// Reference data errors, raised when a table is constructed
	ErrInvalidFactor    = errors.New("unit factor must be a finite number greater than 0")
	ErrInvalidDimension = errors.New("unit dimension must be volume or mass")
	ErrInvalidDensity   = errors.New("density must be a finite number greater than 0")
	ErrDuplicateUnit    = errors.New("unit name or synonym registered twice")
	ErrEmptyUnitName    = errors.New("unit name is required")
	ErrNilTable         = errors.New("reference table must not be nil")
)
