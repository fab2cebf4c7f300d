package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePort(t *testing.T) {
	p, err := parsePort("9090")
	require.NoError(t, err)
	assert.Equal(t, 9090, p)

	for _, bad := range []string{"abc", "-1", "70000", ""} {
		_, err := parsePort(bad)
		assert.Error(t, err, bad)
	}
}
