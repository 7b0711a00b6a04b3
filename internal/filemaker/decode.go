package filemaker

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrUnrecognizedShape means a response decoded as JSON but carried none of the known fields.
var ErrUnrecognizedShape = errors.New("unrecognized filemaker response shape")

var (
	tokenKeys   = []string{"token", "access_token", "accessToken"}
	versionKeys = []string{"version", "ServerVersion", "server_version", "serverVersion"}
	statusKeys  = []string{"status", "ServerStatus", "server_status"}
	runningKeys = []string{"running", "isRunning", "is_running"}
)

// ServerInfo is the canonical form of the status and metadata responses.
type ServerInfo struct {
	Version string
	Running bool
}

// DecodeToken extracts a session token from a login response. The token may
// sit at the top level or under "response".
func DecodeToken(body []byte) (string, error) {
	objs, err := candidates(body)
	if err != nil {
		return "", err
	}
	if tok, ok := lookupString(objs, tokenKeys); ok && tok != "" {
		return tok, nil
	}
	return "", fmt.Errorf("login response: %w", ErrUnrecognizedShape)
}

// DecodeVersion extracts the server version from a metadata response.
func DecodeVersion(body []byte) (string, error) {
	objs, err := candidates(body)
	if err != nil {
		return "", err
	}
	if v, ok := lookupString(objs, versionKeys); ok && v != "" {
		return v, nil
	}
	return "", fmt.Errorf("metadata response: %w", ErrUnrecognizedShape)
}

// DecodeRunning reports whether a status response says the server is running.
// Both {"status": "RUNNING"} and {"running": true} forms are accepted.
func DecodeRunning(body []byte) (bool, error) {
	objs, err := candidates(body)
	if err != nil {
		return false, err
	}
	if s, ok := lookupString(objs, statusKeys); ok {
		return strings.EqualFold(s, "RUNNING") || strings.EqualFold(s, "ONLINE"), nil
	}
	for _, obj := range objs {
		for _, k := range runningKeys {
			raw, ok := obj[k]
			if !ok {
				continue
			}
			var b bool
			if err := json.Unmarshal(raw, &b); err == nil {
				return b, nil
			}
		}
	}
	return false, fmt.Errorf("status response: %w", ErrUnrecognizedShape)
}

// candidates returns the top-level object followed by its "response" object, if any.
func candidates(body []byte) ([]map[string]json.RawMessage, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		return nil, fmt.Errorf("failed to decode filemaker response: %w", err)
	}
	objs := []map[string]json.RawMessage{top}
	if raw, ok := top["response"]; ok {
		var inner map[string]json.RawMessage
		if err := json.Unmarshal(raw, &inner); err == nil {
			objs = append(objs, inner)
		}
	}
	return objs, nil
}

func lookupString(objs []map[string]json.RawMessage, keys []string) (string, bool) {
	for _, obj := range objs {
		for _, k := range keys {
			raw, ok := obj[k]
			if !ok {
				continue
			}
			var s string
			if err := json.Unmarshal(raw, &s); err == nil {
				return s, true
			}
		}
	}
	return "", false
}
