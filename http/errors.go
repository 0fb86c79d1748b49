package http

import "errors"

// ErrNoFile is returned for uploads without a file part.
var ErrNoFile = errors.New("No file") //nolint:staticcheck // message is part of the API
