package registry

import "errors"

var (
	ErrInstanceNotFound = errors.New("graph instance not found")
)
