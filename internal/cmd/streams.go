package cmd

import (
	"context"
	"io"
	"os"
)

// streams are the standard streams a command talks to. Tests swap them
// through the command context.
type streams struct {
	in  io.Reader
	out io.Writer
	err io.Writer
}

type streamsKey struct{}

type errorFormatKey struct{}

func withIO(ctx context.Context, in io.Reader, out, err io.Writer) context.Context {
	return context.WithValue(ctx, streamsKey{}, streams{in: in, out: out, err: err})
}

func streamsFrom(ctx context.Context) streams {
	var s streams
	if ctx != nil {
		s, _ = ctx.Value(streamsKey{}).(streams)
	}
	if s.in == nil {
		s.in = os.Stdin
	}
	if s.out == nil {
		s.out = os.Stdout
	}
	if s.err == nil {
		s.err = os.Stderr
	}
	return s
}

func stdinFromContext(ctx context.Context) io.Reader  { return streamsFrom(ctx).in }
func stdoutFromContext(ctx context.Context) io.Writer { return streamsFrom(ctx).out }
func stderrFromContext(ctx context.Context) io.Writer { return streamsFrom(ctx).err }

// WithErrorFormat records --error-format.
func WithErrorFormat(ctx context.Context, format string) context.Context {
	return context.WithValue(ctx, errorFormatKey{}, format)
}

// ErrorFormatFromContext returns the recorded --error-format, or "".
func ErrorFormatFromContext(ctx context.Context) string {
	format, _ := ctx.Value(errorFormatKey{}).(string)
	return format
}
