package cmd

import (
	"context"
	"os"

	"github.com/salmonumbrella/webclaw-cli/internal/gateway"
	"github.com/salmonumbrella/webclaw-cli/internal/secrets"
	"github.com/salmonumbrella/webclaw-cli/internal/tui"
	"github.com/salmonumbrella/webclaw-cli/internal/workbench"
)

var (
	openSecretsStore       = secrets.OpenDefault
	newClientFromCredsFunc = gateway.NewClientFromCredentials
	envGet                 = os.Getenv
	openWorkbenchBackend   = func(ctx context.Context, path string) (workbench.Backend, error) {
		return workbench.Open(ctx, path, workbench.WithLogger(logger))
	}
	runEditor            = tui.Run
	ensureKeychainAccess = secrets.EnsureKeychainAccess
)
