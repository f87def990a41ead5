package density

import "errors"

var (
	// ErrCyclicReference is returned when named function references form a
	// cycle.
	ErrCyclicReference = errors.New("cyclic function reference")
	// ErrUnknownFunction is returned when a Ref names a function missing
	// from the registry.
	ErrUnknownFunction = errors.New("unknown function reference")
	// ErrUnknownNoise is returned when a noise name is missing from the
	// noise registry.
	ErrUnknownNoise = errors.New("unknown noise")
	// ErrInvalidEnvelope is returned when a compiled component declares an
	// empty (min > max) or NaN output envelope.
	ErrInvalidEnvelope = errors.New("invalid output envelope")
	// ErrUnknownRoot is returned when a requested root name was not
	// produced by the compiler.
	ErrUnknownRoot = errors.New("unknown named root")
	// ErrSplineValue is returned when a spline control point value is
	// neither a constant nor a nested spline.
	ErrSplineValue = errors.New("spline value must be a constant or a nested spline")
)
