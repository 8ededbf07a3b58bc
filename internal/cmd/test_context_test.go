package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/spf13/cobra"

	"github.com/salmonumbrella/webclaw-cli/internal/gateway"
	"github.com/salmonumbrella/webclaw-cli/internal/output"
)

func withTestContext(t *testing.T, format output.Format, yes bool) (*bytes.Buffer, *bytes.Buffer, func()) {
	t.Helper()
	in := &bytes.Buffer{}
	out := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}

	ctx := withIO(context.Background(), in, out, errBuf)
	ctx = output.WithFormat(ctx, format)
	ctx = output.WithYes(ctx, yes)
	ctx = output.WithQuiet(ctx, true)
	rootCmd.SetContext(ctx)

	prevType := outputType
	prevFmt := outputFmt
	outputType = format
	outputFmt = string(format)

	return out, errBuf, func() {
		outputType = prevType
		outputFmt = prevFmt
		rootCmd.SetContext(context.Background())
	}
}

func withTestClient(t *testing.T, apiClient gateway.GatewayAPI) func() {
	t.Helper()
	prev := client
	client = apiClient
	return func() {
		client = prev
	}
}

func setCmdContext(cmd *cobra.Command) {
	if cmd == nil {
		return
	}
	cmd.SetContext(rootCmd.Context())
}

// fakeGateway implements gateway.GatewayAPI with overridable funcs. Unset
// funcs return zero values.
type fakeGateway struct {
	CallFunc          func(ctx context.Context, method string, params interface{}, out interface{}) error
	ListSessionsFunc  func(ctx context.Context) ([]gateway.Session, error)
	HistoryFunc       func(ctx context.Context, sessionKey string, limit int) (*gateway.History, error)
	SendMessageFunc   func(ctx context.Context, sessionKey, text string) error
	CronJobsFunc      func(ctx context.Context, includeDisabled bool) ([]gateway.CronJob, error)
	CronRunsFunc      func(ctx context.Context, jobID string) ([]map[string]interface{}, error)
	RunCronJobFunc    func(ctx context.Context, jobID string) (map[string]interface{}, error)
	UpdateCronJobFunc func(ctx context.Context, jobID string, patch map[string]interface{}) (*gateway.CronJob, error)
	PingFunc          func(ctx context.Context) (json.RawMessage, error)
}

func (f *fakeGateway) Call(ctx context.Context, method string, params interface{}, out interface{}) error {
	if f.CallFunc != nil {
		return f.CallFunc(ctx, method, params, out)
	}
	return nil
}

func (f *fakeGateway) ListSessions(ctx context.Context) ([]gateway.Session, error) {
	if f.ListSessionsFunc != nil {
		return f.ListSessionsFunc(ctx)
	}
	return nil, nil
}

func (f *fakeGateway) History(ctx context.Context, sessionKey string, limit int) (*gateway.History, error) {
	if f.HistoryFunc != nil {
		return f.HistoryFunc(ctx, sessionKey, limit)
	}
	return &gateway.History{SessionKey: sessionKey}, nil
}

func (f *fakeGateway) SendMessage(ctx context.Context, sessionKey, text string) error {
	if f.SendMessageFunc != nil {
		return f.SendMessageFunc(ctx, sessionKey, text)
	}
	return nil
}

func (f *fakeGateway) CronJobs(ctx context.Context, includeDisabled bool) ([]gateway.CronJob, error) {
	if f.CronJobsFunc != nil {
		return f.CronJobsFunc(ctx, includeDisabled)
	}
	return nil, nil
}

func (f *fakeGateway) CronRuns(ctx context.Context, jobID string) ([]map[string]interface{}, error) {
	if f.CronRunsFunc != nil {
		return f.CronRunsFunc(ctx, jobID)
	}
	return nil, nil
}

func (f *fakeGateway) RunCronJob(ctx context.Context, jobID string) (map[string]interface{}, error) {
	if f.RunCronJobFunc != nil {
		return f.RunCronJobFunc(ctx, jobID)
	}
	return map[string]interface{}{}, nil
}

func (f *fakeGateway) UpdateCronJob(ctx context.Context, jobID string, patch map[string]interface{}) (*gateway.CronJob, error) {
	if f.UpdateCronJobFunc != nil {
		return f.UpdateCronJobFunc(ctx, jobID, patch)
	}
	return &gateway.CronJob{ID: jobID}, nil
}

func (f *fakeGateway) Ping(ctx context.Context) (json.RawMessage, error) {
	if f.PingFunc != nil {
		return f.PingFunc(ctx)
	}
	return json.RawMessage(`{}`), nil
}
