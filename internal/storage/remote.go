package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/moasq/toolfactory/internal/tool"
)

// SavePath is the save endpoint path relative to the service root.
const SavePath = "/api/tool-factory/save"

// SaveError is a non-2xx response from the save endpoint.
type SaveError struct {
	Status  int
	Message string
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("save failed (%d): %s", e.Status, e.Message)
}

// RemoteSaver posts tools to a remote save endpoint.
type RemoteSaver struct {
	endpoint string
	client   *http.Client
}

// NewRemoteSaver returns a saver for the service rooted at endpoint.
func NewRemoteSaver(endpoint string, client *http.Client) *RemoteSaver {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &RemoteSaver{endpoint: strings.TrimRight(endpoint, "/"), client: client}
}

func (r *RemoteSaver) Save(ctx context.Context, t tool.Tool) (string, error) {
	body, err := tool.Marshal(t)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint+SavePath, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to reach save endpoint: %w", err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	var out struct {
		ToolID string `json:"toolId"`
		Error  string `json:"error"`
	}
	_ = json.Unmarshal(data, &out)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := out.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		if resp.StatusCode == http.StatusConflict {
			return "", fmt.Errorf("%w: %s", ErrDuplicateSlug, msg)
		}
		return "", &SaveError{Status: resp.StatusCode, Message: msg}
	}
	if out.ToolID == "" {
		return "", fmt.Errorf("save endpoint returned no toolId")
	}
	return out.ToolID, nil
}
