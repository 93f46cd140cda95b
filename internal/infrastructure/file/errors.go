package file

import "errors"

var (
	ErrFileNotFound   = errors.New("stored file not found")
	ErrUnsupportedURL = errors.New("unsupported file url")
)
