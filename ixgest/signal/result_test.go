package signal

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/teranos/qntx-signal/errors"
	"github.com/teranos/qntx-signal/pulse"
)

func TestClassify(t *testing.T) {
	_, statErr := os.Stat("/definitely/not/here")

	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"nil", nil, CodeNone},
		{"path", errors.Wrap(ErrMalformedPath, "x"), CodeMalformedPath},
		{"filename", ErrMalformedFilename, CodeMalformedFilename},
		{"launch", &DecodeError{Err: errors.Wrap(ErrDecoderLaunch, "exec")}, CodeDecoderLaunch},
		{"timeout", &DecodeError{Err: ErrDecoderTimeout}, CodeTimeout},
		{"missing", ErrMissingOutput, CodeMissingOutput},
		{"table", ErrMalformedTable, CodeMalformedTable},
		{"cancelled", &DecodeError{Err: context.Canceled}, CodeCancelled},
		{"deadline", errors.Wrap(context.DeadlineExceeded, "run"), CodeCancelled},
		{"panic", errors.Wrap(pulse.ErrJobPanicked, "boom"), CodePanic},
		{"filesystem", errors.Wrap(statErr, "stat"), CodeFilesystem},
		{"other", errors.New("???"), CodeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func sampleBatch() *BatchResult {
	return &BatchResult{
		Days: []DayResult{
			{
				Day: "05",
				Intersections: []IntersectionResult{
					{
						Key:     Key{Intersection: "ISC1"},
						Written: true,
						Files: []FileResult{
							{File: "a.dat", Rows: 3},
							{File: "b.dat", Code: CodeMissingOutput, Error: "missing"},
						},
						Succeeded:    1,
						Failed:       1,
						Rows:         3,
						PersistError: "locked",
					},
					{Key: Key{Intersection: "ISC2"}, Code: CodeFilesystem, Error: "denied"},
				},
			},
			{Day: "06", Code: CodeCancelled, Error: "context canceled"},
		},
	}
}

func TestBatchResult_Totals(t *testing.T) {
	tot := sampleBatch().Totals()

	assert.Equal(t, 2, tot.Days)
	assert.Equal(t, 1, tot.DaysFailed)
	assert.Equal(t, 2, tot.Intersections)
	assert.Equal(t, 1, tot.IntersectionsFailed)
	assert.Equal(t, 1, tot.Artifacts)
	assert.Equal(t, 1, tot.FilesOK)
	assert.Equal(t, 1, tot.FilesFailed)
	assert.Equal(t, 3, tot.Rows)
	assert.Equal(t, []ErrorCode{CodeCancelled, CodeFilesystem, CodeMissingOutput, CodePersist}, tot.Codes())
}

func TestBatchResult_Diagnostics(t *testing.T) {
	diags := sampleBatch().Diagnostics()

	assert.Equal(t, []Diagnostic{
		{Day: "05", Intersection: "ISC1", Code: CodePersist, Message: "locked"},
		{Day: "05", Intersection: "ISC1", File: "b.dat", Code: CodeMissingOutput, Message: "missing"},
		{Day: "05", Intersection: "ISC2", Code: CodeFilesystem, Message: "denied"},
		{Day: "06", Code: CodeCancelled, Message: "context canceled"},
	}, diags)
}
