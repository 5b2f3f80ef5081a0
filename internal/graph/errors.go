package graph

import "errors"

// Structural errors returned by commands when a precondition is violated.
// Rejected connection attempts are not errors; they leave the state as is.
var (
	ErrDuplicateID           = errors.New("duplicate id")
	ErrNodeNotFound          = errors.New("node not found")
	ErrPortNotFound          = errors.New("port not found")
	ErrContainerNotFound     = errors.New("container not found")
	ErrParamNotFound         = errors.New("param not found")
	ErrNoTemporaryConnection = errors.New("no temporary connection")
)
