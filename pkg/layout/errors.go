package layout

import "github.com/pkg/errors"

// ErrConfiguration is returned for any layout problem. It is detected before any document is processed.
var ErrConfiguration = errors.New("invalid configuration")
