package signal

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"time"

	"github.com/kballard/go-shellquote"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/teranos/qntx-signal/errors"
	"github.com/teranos/qntx-signal/logger"
)

// Decoder converts one raw controller log into one decoded table at output.
// A nil return only means the decoder ran; callers confirm success by
// reading the output.
type Decoder interface {
	Decode(ctx context.Context, input, output string) error
}

// DecoderFunc adapts a function to Decoder.
type DecoderFunc func(ctx context.Context, input, output string) error

// Decode calls f.
func (f DecoderFunc) Decode(ctx context.Context, input, output string) error {
	return f(ctx, input, output)
}

// DecodeError describes a decoder invocation that could not complete.
type DecodeError struct {
	Input    string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Input, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// stderrLimit caps how much decoder stderr is kept for diagnostics.
const stderrLimit = 4096

// ExecOptions tunes ExecDecoder.
type ExecOptions struct {
	// Timeout kills a decode that runs longer. Zero means no timeout.
	Timeout time.Duration

	// MaxLaunchesPerSecond throttles process launches across all callers
	// sharing the decoder. Zero means unlimited.
	MaxLaunchesPerSecond float64
}

// ExecDecoder runs an external decoder executable as
//
//	<command words...> <input> <output>
//
// The command is shell-quoted so wrappers such as `wine C:/decode.exe`
// work. Safe for concurrent use.
type ExecDecoder struct {
	argv    []string
	timeout time.Duration
	limiter *rate.Limiter
	logger  *zap.SugaredLogger
}

// NewExecDecoder parses command and returns a decoder for it.
func NewExecDecoder(command string, opts ExecOptions, log *zap.SugaredLogger) (*ExecDecoder, error) {
	argv, err := shellquote.Split(command)
	if err != nil {
		return nil, errors.Wrapf(err, "parse decoder command %q", command)
	}
	if len(argv) == 0 {
		return nil, errors.New("decoder command is empty")
	}
	if log == nil {
		log = logger.ComponentLogger("signal.decoder")
	}

	d := &ExecDecoder{
		argv:    argv,
		timeout: opts.Timeout,
		logger:  log,
	}
	if opts.MaxLaunchesPerSecond > 0 {
		burst := int(opts.MaxLaunchesPerSecond)
		if burst < 1 {
			burst = 1
		}
		d.limiter = rate.NewLimiter(rate.Limit(opts.MaxLaunchesPerSecond), burst)
	}
	return d, nil
}

// Args returns the full argument vector for one invocation.
func (d *ExecDecoder) Args(input, output string) []string {
	args := make([]string, 0, len(d.argv)+2)
	args = append(args, d.argv...)
	return append(args, input, output)
}

// Decode runs the decoder once. A stale output file is removed first so a
// previous run cannot pass for this one. A non-zero exit status is logged
// but not returned: whether the decode worked is decided by the output.
func (d *ExecDecoder) Decode(ctx context.Context, input, output string) error {
	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				err = ctx.Err()
			}
			return &DecodeError{Input: input, Err: errors.Wrap(err, "wait for launch slot")}
		}
	}

	if err := os.Remove(output); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &DecodeError{Input: input, Err: errors.Wrapf(err, "remove stale output %s", output)}
	}

	runCtx := ctx
	if d.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	args := d.Args(input, output)
	cmd := exec.CommandContext(runCtx, args[0], args[1:]...)
	cmd.WaitDelay = time.Second
	var stderr bytes.Buffer
	cmd.Stderr = &limitedWriter{buf: &stderr, limit: stderrLimit}

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start)

	if err == nil {
		d.logger.Debugw("Decoder finished",
			logger.FieldFile, input,
			logger.FieldDurationMS, elapsed.Milliseconds())
		return nil
	}

	switch {
	case ctx.Err() != nil:
		return &DecodeError{Input: input, Stderr: stderr.String(), Err: ctx.Err()}
	case runCtx.Err() == context.DeadlineExceeded:
		return &DecodeError{
			Input:  input,
			Stderr: stderr.String(),
			Err:    errors.Wrapf(ErrDecoderTimeout, "after %s", d.timeout),
		}
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		d.logger.Debugw("Decoder exited non-zero",
			logger.FieldFile, input,
			"exit_code", exitErr.ExitCode(),
			logger.FieldStderr, stderr.String(),
			logger.FieldDurationMS, elapsed.Milliseconds())
		return nil
	}

	return &DecodeError{
		Input:    input,
		ExitCode: -1,
		Err:      errors.Wrapf(ErrDecoderLaunch, "%s: %v", args[0], err),
	}
}

// limitedWriter keeps the first limit bytes and discards the rest without
// failing the writer, so the child never sees EPIPE.
type limitedWriter struct {
	buf   *bytes.Buffer
	limit int
}

func (w *limitedWriter) Write(p []byte) (int, error) {
	if room := w.limit - w.buf.Len(); room > 0 {
		if len(p) > room {
			w.buf.Write(p[:room])
		} else {
			w.buf.Write(p)
		}
	}
	return len(p), nil
}
