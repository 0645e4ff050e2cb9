package scene

import "errors"

var (
	ErrNoCamera            = errors.New("no camera was specified")
	ErrNoIntegrator        = errors.New("no integrator was specified")
	ErrDuplicateCamera     = errors.New("there can only be one camera per scene")
	ErrDuplicateIntegrator = errors.New("there can only be one integrator per scene")
	ErrDuplicateSampler    = errors.New("there can only be one sampler per scene")
	ErrAlreadyActivated    = errors.New("scene is already activated")
	ErrNotActivated        = errors.New("scene is not activated")
)
