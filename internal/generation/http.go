package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
)

// GeneratePath is the generate endpoint path relative to the service root.
const GeneratePath = "/api/tool-factory/generate"

const readChunkSize = 4096

// HTTPClient streams from a remote generate endpoint.
type HTTPClient struct {
	endpoint string
	client   *http.Client
	logger   *zap.Logger
}

// ClientOption configures an HTTPClient.
type ClientOption func(*HTTPClient)

// WithHTTPClient overrides the underlying http.Client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(h *HTTPClient) { h.client = c }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) ClientOption {
	return func(h *HTTPClient) { h.logger = l }
}

// NewHTTPClient returns a client for the service rooted at endpoint.
func NewHTTPClient(endpoint string, opts ...ClientOption) *HTTPClient {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.ResponseHeaderTimeout = 2 * time.Minute
	// No overall timeout: generations stream for minutes. Cancel via ctx.
	c := &HTTPClient{
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   &http.Client{Transport: tr},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Stream posts req and relays the body to onChunk as it arrives. Chunks
// already delivered stay delivered when the stream later fails.
func (c *HTTPClient) Stream(ctx context.Context, req Request, onChunk func(string)) error {
	if err := req.Validate(); err != nil {
		return err
	}
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+GeneratePath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/plain")

	start := time.Now()
	resp, err := c.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &Error{Kind: req.ToolType, Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := errorMessage(resp)
		c.logger.Warn("generate request rejected", zap.Int("status", resp.StatusCode), zap.String("error", msg))
		return &Error{Kind: req.ToolType, Status: resp.StatusCode, Message: msg}
	}

	total, err := relayUTF8(resp.Body, onChunk)
	c.logger.Debug("generate stream finished",
		zap.String("kind", string(req.ToolType)),
		zap.Int("bytes", total),
		zap.Duration("elapsed", time.Since(start)),
		zap.Error(err))
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &Error{Kind: req.ToolType, Message: "stream interrupted: " + err.Error(), Err: err}
	}
	return nil
}

// relayUTF8 reads r sequentially and emits text without splitting a rune
// across chunks.
func relayUTF8(r io.Reader, onChunk func(string)) (int, error) {
	buf := make([]byte, readChunkSize)
	var pending []byte
	total := 0
	for {
		n, err := r.Read(buf)
		if n > 0 {
			total += n
			pending = append(pending, buf[:n]...)
			complete, rest := splitIncompleteRune(pending)
			if len(complete) > 0 {
				onChunk(string(complete))
			}
			pending = append(pending[:0:0], rest...)
		}
		if err != nil {
			if len(pending) > 0 {
				onChunk(strings.ToValidUTF8(string(pending), "\uFFFD"))
			}
			if errors.Is(err, io.EOF) {
				return total, nil
			}
			return total, err
		}
	}
}

// splitIncompleteRune separates a trailing partial UTF-8 sequence from b.
func splitIncompleteRune(b []byte) (complete, rest []byte) {
	for i := len(b) - 1; i >= 0 && i >= len(b)-utf8.UTFMax; i-- {
		if utf8.RuneStart(b[i]) {
			if !utf8.FullRune(b[i:]) {
				return b[:i], b[i:]
			}
			break
		}
	}
	return b, nil
}

func errorMessage(resp *http.Response) string {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &body) == nil && body.Error != "" {
		return body.Error
	}
	if s := strings.TrimSpace(string(data)); s != "" {
		return s
	}
	return http.StatusText(resp.StatusCode)
}
