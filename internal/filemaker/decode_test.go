package filemaker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeToken(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"nested response token", `{"response":{"token":"abc"},"messages":[{"code":"0"}]}`, "abc"},
		{"top level token", `{"token":"def"}`, "def"},
		{"oauth style", `{"access_token":"ghi","expires_in":900}`, "ghi"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeToken([]byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeTokenUnrecognized(t *testing.T) {
	_, err := DecodeToken([]byte(`{"response":{"session":"abc"}}`))
	assert.ErrorIs(t, err, ErrUnrecognizedShape)

	_, err = DecodeToken([]byte(`{"token":""}`))
	assert.ErrorIs(t, err, ErrUnrecognizedShape)

	_, err = DecodeToken([]byte(`not json`))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnrecognizedShape)
}

func TestDecodeVersion(t *testing.T) {
	for _, body := range []string{
		`{"response":{"ServerVersion":"21.0.1"}}`,
		`{"version":"21.0.1"}`,
		`{"response":{"server_version":"21.0.1"}}`,
	} {
		got, err := DecodeVersion([]byte(body))
		require.NoError(t, err, body)
		assert.Equal(t, "21.0.1", got)
	}

	_, err := DecodeVersion([]byte(`{"response":{}}`))
	assert.ErrorIs(t, err, ErrUnrecognizedShape)
}

func TestDecodeRunning(t *testing.T) {
	tests := []struct {
		body string
		want bool
	}{
		{`{"response":{"status":"RUNNING"}}`, true},
		{`{"response":{"status":"STOPPED"}}`, false},
		{`{"running":true}`, true},
		{`{"response":{"isRunning":false}}`, false},
	}
	for _, tt := range tests {
		got, err := DecodeRunning([]byte(tt.body))
		require.NoError(t, err, tt.body)
		assert.Equal(t, tt.want, got, tt.body)
	}

	_, err := DecodeRunning([]byte(`{"response":{"state":1}}`))
	assert.ErrorIs(t, err, ErrUnrecognizedShape)
}
