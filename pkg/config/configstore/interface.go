package configstore

import "errors"

// ErrEmpty is returned by Load when the source holds no document.
var ErrEmpty = errors.New("config source is empty")

// Loader decodes a configuration document into out.
type Loader interface {
	Load(out any) error
}
