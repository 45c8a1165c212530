package signal

import "github.com/teranos/qntx-signal/errors"

// Re-exported for callers that only import this package.
var (
	ErrMalformedPath     = errors.ErrMalformedPath
	ErrMalformedFilename = errors.ErrMalformedFilename
	ErrDecoderLaunch     = errors.ErrDecoderLaunch
	ErrDecoderTimeout    = errors.ErrDecoderTimeout
	ErrMissingOutput     = errors.ErrMissingOutput
	ErrMalformedTable    = errors.ErrMalformedTable
)
