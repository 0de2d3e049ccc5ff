package password

import "errors"

// ErrPasswordTooLong is returned when a password exceeds Config.MaxPasswordBytes.
var ErrPasswordTooLong = errors.New("password exceeds configured maximum length")
