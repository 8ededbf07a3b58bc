package cmd

import (
	"context"
	"fmt"

	"github.com/salmonumbrella/webclaw-cli/internal/workbench"
)

// backend is the open workbench store for this invocation, if any
var backend workbench.Backend

// getBackend opens the workbench store on first use.
func getBackend(ctx context.Context) (workbench.Backend, error) {
	if backend != nil {
		return backend, nil
	}
	if storePath == "" {
		return nil, fmt.Errorf("workbench store path unknown; use --store or set store_path")
	}
	opened, err := openWorkbenchBackend(ctx, storePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbench store: %w", err)
	}
	logger.Debug("workbench store open", "path", storePath)
	backend = opened
	return backend, nil
}

// getWorkbench returns a Workbench over the open store.
func getWorkbench(ctx context.Context) (*workbench.Workbench, error) {
	b, err := getBackend(ctx)
	if err != nil {
		return nil, err
	}
	return workbench.New(b), nil
}

// closeWorkbench closes the store opened by this invocation.
func closeWorkbench() error {
	if backend == nil {
		return nil
	}
	err := backend.Close()
	backend = nil
	return err
}
