package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/salmonumbrella/webclaw-cli/internal/output"
)

func structuredOutputRequested() bool {
	return output.IsStructured(GetOutputFormat())
}

func printStructured(data interface{}) error {
	ctx := currentContext()
	printer := output.NewPrinter(stdoutFromContext(ctx), GetOutputFormat())
	return printer.Print(ctx, data)
}

// printTable prints a Tabular value in table layout regardless of the
// text/table output choice.
func printTable(data output.Tabular) error {
	ctx := currentContext()
	printer := output.NewPrinter(stdoutFromContext(ctx), output.FormatTable)
	return printer.Print(ctx, data)
}

// printStatus writes a human-readable status line unless --quiet is set.
func printStatus(format string, args ...interface{}) {
	ctx := currentContext()
	if output.QuietFromContext(ctx) {
		return
	}
	fmt.Fprintf(stdoutFromContext(ctx), format, args...)
}

func stdout() io.Writer {
	return stdoutFromContext(currentContext())
}

func stderr() io.Writer {
	return stderrFromContext(currentContext())
}

func currentContext() context.Context {
	if rootCmd != nil && rootCmd.Context() != nil {
		return rootCmd.Context()
	}
	return context.Background()
}
