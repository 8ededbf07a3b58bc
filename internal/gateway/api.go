package gateway

import (
	"context"
	"encoding/json"
)

// GatewayAPI is the set of gateway calls the CLI makes. Client implements
// it over HTTP; tests substitute fakes.
type GatewayAPI interface {
	// Call invokes an arbitrary gateway method and decodes its result into
	// out (which may be nil).
	Call(ctx context.Context, method string, params interface{}, out interface{}) error

	// ListSessions returns the gateway's chat sessions (sessions.list).
	ListSessions(ctx context.Context) ([]Session, error)

	// History returns up to limit messages of a session (chat.history).
	History(ctx context.Context, sessionKey string, limit int) (*History, error)

	// SendMessage posts text into a session's prompt (chat.send).
	SendMessage(ctx context.Context, sessionKey, text string) error

	// CronJobs lists scheduled jobs (cron.list).
	CronJobs(ctx context.Context, includeDisabled bool) ([]CronJob, error)

	// CronRuns lists past runs of a job (cron.runs).
	CronRuns(ctx context.Context, jobID string) ([]map[string]interface{}, error)

	// RunCronJob triggers a job now (cron.run).
	RunCronJob(ctx context.Context, jobID string) (map[string]interface{}, error)

	// UpdateCronJob applies a partial update to a job (cron.update).
	UpdateCronJob(ctx context.Context, jobID string, patch map[string]interface{}) (*CronJob, error)

	// Ping checks that the gateway accepts the configured credentials.
	Ping(ctx context.Context) (json.RawMessage, error)
}
