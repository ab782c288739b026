package repository

import "errors"

// ErrEmptyImage indicates the remote resource had no body
var ErrEmptyImage = errors.New("empty response body")
