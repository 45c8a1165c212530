// Package errors is the error package for qntx-signal.
//
// It re-exports github.com/cockroachdb/errors so every package gets stack
// traces, hints and wrapping from one import, and it defines the sentinel
// errors the ingest pipeline classifies failures by.
//
//	if err := decoder.Decode(ctx, in, out); err != nil {
//	    return errors.Wrapf(err, "decode %s", in)
//	}
//
//	if errors.Is(err, errors.ErrMalformedFilename) {
//	    // skip the file
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// User-facing hints and details
var (
	WithHint           = crdb.WithHint
	WithHintf          = crdb.WithHintf
	WithDetail         = crdb.WithDetail
	WithDetailf        = crdb.WithDetailf
	WithSecondaryError = crdb.WithSecondaryError
	GetAllHints        = crdb.GetAllHints
	FlattenHints       = crdb.FlattenHints
)

// Inspection
var (
	Is        = crdb.Is
	IsAny     = crdb.IsAny
	As        = crdb.As
	Unwrap    = crdb.Unwrap
	UnwrapAll = crdb.UnwrapAll
)

// GetStack returns the reportable stack trace captured when err was created.
var GetStack = crdb.GetReportableStackTrace

// Pipeline sentinels. Wrap them to add context; check with Is.
var (
	// ErrMalformedPath: a file path has fewer trailing segments than
	// city/year/month/day/intersection/file.
	ErrMalformedPath = New("malformed path")

	// ErrMalformedFilename: the nominal timestamp could not be parsed.
	ErrMalformedFilename = New("malformed filename")

	// ErrDecoderLaunch: the decoder process could not be started.
	ErrDecoderLaunch = New("decoder launch failed")

	// ErrDecoderTimeout: the decoder exceeded its per-file timeout.
	ErrDecoderTimeout = New("decoder timed out")

	// ErrMissingOutput: the decoder ran but produced no table.
	ErrMissingOutput = New("decoded output missing")

	// ErrMalformedTable: the decoded table has a short preamble or rows
	// with the wrong field count.
	ErrMalformedTable = New("malformed decoded table")

	// ErrInvalidConfig indicates configuration failed validation.
	ErrInvalidConfig = New("invalid configuration")
)

// IsDecodeFailure reports whether err means a single file could not be
// decoded, as opposed to an environment problem.
func IsDecodeFailure(err error) bool {
	return err != nil && IsAny(err,
		ErrMalformedPath,
		ErrMalformedFilename,
		ErrDecoderLaunch,
		ErrDecoderTimeout,
		ErrMissingOutput,
		ErrMalformedTable,
	)
}
