package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesLogFile(t *testing.T) {
	dir := t.TempDir()
	logger, err := New(dir, "debug")
	require.NoError(t, err)

	logger.Infof("hello %s", "world")
	logger.Close()

	data, err := os.ReadFile(filepath.Join(dir, "status-dashboard.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello world")
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(t.TempDir(), "loud")
	require.Error(t, err)
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, logrus.WarnLevel)

	logger.Infof("ignored")
	logger.Warnf("kept")

	assert.NotContains(t, buf.String(), "ignored")
	assert.Contains(t, buf.String(), "kept")
}

func TestWithFieldCarriesField(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, logrus.InfoLevel).WithField("check_run_id", "abc")

	logger.Infof("done")

	assert.Contains(t, buf.String(), "check_run_id=abc")
}
