package platform

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// ApiToken authenticates requests against the platform API.
type ApiToken struct {
	// TokenId is the full token identifier, e.g. "hypercheck@pve!runner".
	TokenId string
	Secret  string
}

// CredentialsProvider resolves the secret material of a connection profile.
// Secrets never live in configurations or run snapshots.
type CredentialsProvider interface {
	TokenFor(ctx context.Context, profileId string) (ApiToken, error)
}

// apiClient is a thin typed wrapper over the platform's JSON API. Every
// response wraps its payload in a "data" envelope.
type apiClient struct {
	baseUrl    string
	token      ApiToken
	httpClient *http.Client
}

func newApiClient(profileHost string, port int, verifySsl bool, token ApiToken) *apiClient {
	transport := http.DefaultTransport
	if !verifySsl {
		transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec
		}
	}
	return &apiClient{
		baseUrl: fmt.Sprintf("https://%s:%d/api2/json", profileHost, port),
		token:   token,
		httpClient: &http.Client{
			Timeout:   60 * time.Second,
			Transport: transport,
		},
	}
}

type apiError struct {
	StatusCode int
	Body       string
}

func (e apiError) Error() string {
	return fmt.Sprintf("platform api returned status %d: %s", e.StatusCode, e.Body)
}

func isNotFound(err error) bool {
	var apiErr apiError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

func (c *apiClient) do(ctx context.Context, method, path string, form url.Values, out any) error {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseUrl+path, body)
	if err != nil {
		return errors.Wrap(err, "building platform api request")
	}
	req.Header.Set("Authorization", fmt.Sprintf("PVEAPIToken=%s=%s", c.token.TokenId, c.token.Secret))
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "calling %s %s", method, path)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return errors.Wrap(err, "reading platform api response")
	}
	if resp.StatusCode >= 400 {
		return apiError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	if out == nil {
		return nil
	}
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return errors.Wrap(err, "decoding platform api envelope")
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return errors.Wrap(err, "decoding platform api payload")
	}
	return nil
}

func (c *apiClient) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *apiClient) post(ctx context.Context, path string, form url.Values, out any) error {
	return c.do(ctx, http.MethodPost, path, form, out)
}

func (c *apiClient) delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// waitForTask polls a node task until it reaches a terminal state. Long
// operations (guest creation, backups) return a task id instead of completing
// inline.
func (c *apiClient) waitForTask(ctx context.Context, node, upid string) error {
	if upid == "" {
		return nil
	}
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		var status struct {
			Status     string `json:"status"`
			ExitStatus string `json:"exitstatus"`
		}
		err := c.get(ctx, fmt.Sprintf("/nodes/%s/tasks/%s/status", node, url.PathEscape(upid)), &status)
		if err != nil {
			return err
		}
		if status.Status == "stopped" {
			if status.ExitStatus != "OK" {
				return errors.Newf("task %s finished with status %q", upid, status.ExitStatus)
			}
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
