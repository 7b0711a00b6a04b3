package filemaker

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"resty.dev/v3"
)

const adminAPIPrefix = "/fmi/admin/api/v2"

// ErrUnauthorized means the Admin API rejected the credentials or token.
var ErrUnauthorized = errors.New("filemaker admin api rejected credentials")

// Client talks to FileMaker Server Admin APIs.
type Client struct {
	client *resty.Client
}

func NewClient(timeout time.Duration) *Client {
	client := resty.New()
	client.SetTimeout(timeout)
	return &Client{client: client}
}

func (c *Client) Close() error {
	if c.client != nil {
		c.client.Close()
	}
	return nil
}

// Login exchanges an admin username and password for a session token.
func (c *Client) Login(ctx context.Context, baseURL, username, password string) (string, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetBasicAuth(username, password).
		SetHeader("Content-Type", "application/json").
		SetBody("{}").
		Post(endpoint(baseURL, "/user/auth"))
	if err != nil {
		return "", fmt.Errorf("failed to log in to %s: %w", baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode() == http.StatusUnauthorized {
		return "", ErrUnauthorized
	}
	if !resp.IsSuccess() {
		return "", fmt.Errorf("login failed with status: %s", resp.Status())
	}
	return DecodeToken(resp.Bytes())
}

// ServerStatus reads the version and running state of the server.
func (c *Client) ServerStatus(ctx context.Context, baseURL, token string) (ServerInfo, error) {
	metadata, err := c.get(ctx, baseURL, token, "/server/metadata")
	if err != nil {
		return ServerInfo{}, err
	}
	version, err := DecodeVersion(metadata)
	if err != nil {
		return ServerInfo{}, err
	}

	status, err := c.get(ctx, baseURL, token, "/server/status")
	if err != nil {
		return ServerInfo{}, err
	}
	running, err := DecodeRunning(status)
	if err != nil {
		return ServerInfo{}, err
	}
	return ServerInfo{Version: version, Running: running}, nil
}

func (c *Client) get(ctx context.Context, baseURL, token, path string) ([]byte, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetAuthToken(token).
		Get(endpoint(baseURL, path))
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode() == http.StatusUnauthorized {
		return nil, ErrUnauthorized
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("get %s failed with status: %s", path, resp.Status())
	}
	return resp.Bytes(), nil
}

func endpoint(baseURL, path string) string {
	return strings.TrimRight(baseURL, "/") + adminAPIPrefix + path
}
