package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/salmonumbrella/webclaw-cli/internal/gateway"
	"github.com/salmonumbrella/webclaw-cli/internal/output"
	"github.com/salmonumbrella/webclaw-cli/internal/tableblock"
	"github.com/salmonumbrella/webclaw-cli/internal/workbench"
)

func validateErrorFormat(format string) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "auto", "text", "json", "yaml":
		return nil
	default:
		return fmt.Errorf("invalid --error-format %q (expected auto|text|json|yaml)", format)
	}
}

func effectiveErrorFormat(ctx context.Context) string {
	format := strings.ToLower(strings.TrimSpace(ErrorFormatFromContext(ctx)))
	if format == "" || format == "auto" {
		switch output.FormatFromContext(ctx) {
		case output.FormatJSON, output.FormatNDJSON:
			return "json"
		case output.FormatYAML:
			return "yaml"
		default:
			return "text"
		}
	}
	return format
}

func printCommandError(ctx context.Context, err error) {
	if err == nil {
		return
	}

	switch effectiveErrorFormat(ctx) {
	case "json":
		enc := json.NewEncoder(stderrFromContext(ctx))
		enc.SetEscapeHTML(false)
		_ = enc.Encode(buildErrorEnvelope(err))
		return
	case "yaml":
		enc := yaml.NewEncoder(stderrFromContext(ctx))
		enc.SetIndent(2)
		_ = enc.Encode(buildErrorEnvelope(err))
		_ = enc.Close()
		return
	}

	_, _ = fmt.Fprintln(stderrFromContext(ctx), err)
}

func buildErrorEnvelope(err error) map[string]interface{} {
	payload := map[string]interface{}{
		"error": map[string]interface{}{
			"message": err.Error(),
		},
	}

	errMap := payload["error"].(map[string]interface{})
	errMap["category"] = "system"
	errMap["type"] = "error"

	var authErr gateway.AuthenticationError
	if errors.As(err, &authErr) {
		errMap["type"] = "auth"
		errMap["category"] = "user"
	}

	var validationErr gateway.ValidationError
	if errors.As(err, &validationErr) {
		errMap["type"] = "validation"
		errMap["category"] = "user"
	}

	var notFoundErr gateway.NotFoundError
	if errors.As(err, &notFoundErr) || errors.Is(err, workbench.ErrBlockNotFound) || errors.Is(err, errTargetNotFound) {
		errMap["type"] = "not_found"
		errMap["category"] = "user"
	}

	var rateErr gateway.RateLimitError
	if errors.As(err, &rateErr) {
		errMap["type"] = "rate_limit"
		errMap["category"] = "system"
	}

	var rpcErr gateway.RPCError
	if errors.As(err, &rpcErr) {
		errMap["type"] = "rpc"
		errMap["method"] = rpcErr.Method
		if rpcErr.Code != "" {
			errMap["code"] = rpcErr.Code
		}
	}

	if errors.Is(err, tableblock.ErrUnclosedQuote) || errors.Is(err, tableblock.ErrEmptyCSV) {
		errMap["type"] = "csv"
		errMap["category"] = "user"
	}

	return payload
}
