package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"syscall"
	"time"

	openai "github.com/openai/openai-go/v3"
	goopenai "github.com/sashabaranov/go-openai"

	"github.com/tendorai/avp/internal/models"
)

const maxErrorBody = 512

// postJSON sends body as JSON and decodes a 2xx response into out. Non-2xx
// responses become RateLimitError or PlatformError.
func postJSON(ctx context.Context, client *http.Client, provider, url string, headers map[string]string, body, out any) error {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return &models.PlatformError{Provider: provider, Transient: isTransientNetErr(err), Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &models.PlatformError{Provider: provider, Transient: true, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := string(respBody)
		if len(msg) > maxErrorBody {
			msg = msg[:maxErrorBody]
		}
		return statusError(provider, resp.StatusCode, resp.Header.Get("Retry-After"), errors.New(msg))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// statusError maps an HTTP status to the error taxonomy.
func statusError(provider string, status int, retryAfter string, err error) error {
	if status == http.StatusTooManyRequests {
		return &models.RateLimitError{Provider: provider, RetryAfter: parseRetryAfter(retryAfter), Err: err}
	}
	return &models.PlatformError{Provider: provider, Status: status, Transient: transientStatus(status), Err: err}
}

func transientStatus(status int) bool {
	switch status {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout, 529:
		return true
	}
	return false
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return 0
}

// classifyOpenAIError maps errors from either OpenAI client library.
func classifyOpenAIError(provider string, err error) error {
	var sdkErr *openai.Error
	if errors.As(err, &sdkErr) {
		retryAfter := ""
		if sdkErr.Response != nil {
			retryAfter = sdkErr.Response.Header.Get("Retry-After")
		}
		return statusError(provider, sdkErr.StatusCode, retryAfter, err)
	}

	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return statusError(provider, apiErr.HTTPStatusCode, "", err)
	}

	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		return statusError(provider, reqErr.HTTPStatusCode, "", err)
	}

	return &models.PlatformError{Provider: provider, Transient: isTransientNetErr(err), Err: err}
}

// IsRateLimited reports whether err is an upstream rate limit.
func IsRateLimited(err error) bool {
	var rl *models.RateLimitError
	return errors.As(err, &rl)
}

// IsTransient reports whether err is worth a single quick retry.
func IsTransient(err error) bool {
	var pe *models.PlatformError
	if errors.As(err, &pe) && pe.Transient {
		return true
	}
	return isTransientNetErr(err)
}

func isTransientNetErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
