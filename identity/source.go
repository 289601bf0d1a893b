// Package identity checks that the current process is the task the scheduler
// assigned to drive a tournament.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrNoTaskID is returned when the hosting environment does not expose a task id.
var ErrNoTaskID = errors.New("current task id unavailable")

// Source reports the task id of the running process.
type Source interface {
	CurrentTaskID(ctx context.Context) (string, error)
}

// Static is a Source with a fixed task id, typically read from TASK_ID.
type Static string

// CurrentTaskID returns the configured id, or ErrNoTaskID when empty.
func (s Static) CurrentTaskID(ctx context.Context) (string, error) {
	if s == "" {
		return "", ErrNoTaskID
	}
	return string(s), nil
}

// ECSMetadata reads the task id from the ECS container metadata endpoint (v4).
type ECSMetadata struct {
	// BaseURL is the value of ECS_CONTAINER_METADATA_URI_V4.
	BaseURL string

	Client *http.Client
}

// NewECSMetadata creates a source for the given metadata endpoint.
func NewECSMetadata(baseURL string) *ECSMetadata {
	return &ECSMetadata{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

type taskMetadata struct {
	TaskARN string `json:"TaskARN"`
}

// CurrentTaskID fetches {BaseURL}/task and returns the last segment of its TaskARN.
func (e *ECSMetadata) CurrentTaskID(ctx context.Context) (string, error) {
	if e.BaseURL == "" {
		return "", ErrNoTaskID
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.BaseURL+"/task", nil)
	if err != nil {
		return "", fmt.Errorf("failed to build metadata request: %w", err)
	}

	resp, err := e.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to query task metadata: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read task metadata: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("task metadata returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out taskMetadata
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("failed to decode task metadata: %w", err)
	}

	return TaskIDFromARN(out.TaskARN)
}

// TaskIDFromARN extracts the task id from an ECS task ARN such as
// arn:aws:ecs:eu-west-1:123456789012:task/cluster/abc123.
func TaskIDFromARN(arn string) (string, error) {
	if arn == "" {
		return "", ErrNoTaskID
	}
	i := strings.LastIndex(arn, "/")
	id := arn[i+1:]
	if id == "" {
		return "", fmt.Errorf("malformed task arn %q", arn)
	}
	return id, nil
}
