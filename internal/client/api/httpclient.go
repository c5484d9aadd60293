package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aidolab/mgstudio/internal/client/authsignal"
	"github.com/aidolab/mgstudio/internal/client/credentials"
	"github.com/aidolab/mgstudio/internal/common"
	"github.com/aidolab/mgstudio/internal/logging"
)

// HTTPClient is the JSON-over-HTTP implementation of Client.
//
// The credential store is read synchronously on every call, never cached, so
// the headers always reflect the current record. The store is written only
// on the 401 path (defense in depth, independent of the session layer, which
// reacts to the broadcast).
type HTTPClient struct {
	baseURL string
	http    *http.Client
	store   credentials.Store
	signal  *authsignal.Signal
	logger  logging.Logger
}

// NewHTTPClient constructs a client for the API at baseURL. The timeout is a
// configuration constant applied to every call; in-flight requests are not
// otherwise cancellable beyond the caller's context.
func NewHTTPClient(baseURL string, store credentials.Store, sig *authsignal.Signal, logger logging.Logger, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		store:   store,
		signal:  sig,
		logger:  logger.With("component", "api"),
	}
}

// errorBody is the failure payload shape used by the server (and by the
// original FastAPI backend, which used "detail").
type errorBody struct {
	Message string `json:"message"`
	Detail  string `json:"detail"`
}

func (e *errorBody) text() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Detail
}

// do performs one round trip: marshal body, attach credentials, send, map
// the response. out may be nil for calls whose payload the caller ignores.
func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	// Credentials are attached when present; their absence means the call
	// goes out unauthenticated and the server decides.
	if rec, err := c.store.Read(ctx); err != nil {
		c.logger.Warn(ctx, "credential store read failed, sending unauthenticated", "error", err.Error())
	} else if rec != nil {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+rec.Token)
		req.Header.Set(common.UserIDHeaderName, rec.UserID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return c.handleUnauthorized(ctx, resp)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var eb errorBody
		_ = json.Unmarshal(raw, &eb)
		if msg := eb.text(); msg != "" {
			return fmt.Errorf("%s %s: %s", method, path, msg)
		}
		return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// handleUnauthorized runs the 401 pathway exactly once per failed call:
// clear the persisted credentials directly, broadcast the unauthenticated
// signal, and surface ErrUnauthorized to the caller. The call is not
// retried.
func (c *HTTPClient) handleUnauthorized(ctx context.Context, resp *http.Response) error {
	c.logger.Warn(ctx, "request unauthorized, clearing credentials")

	if err := c.store.Clear(ctx); err != nil {
		c.logger.Warn(ctx, "defensive credential clear failed", "error", err.Error())
	}
	c.signal.Broadcast()

	var eb errorBody
	_ = json.NewDecoder(resp.Body).Decode(&eb)
	if msg := eb.text(); msg != "" {
		return fmt.Errorf("%w: %s", ErrUnauthorized, msg)
	}
	return ErrUnauthorized
}
