package main

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunReturnsConfigError(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	err := run(logger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config")
}
