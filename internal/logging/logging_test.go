package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := New("loud", "")
	assert.Error(t, err)
}

func TestNewWithGELF(t *testing.T) {
	log, err := New("debug", "127.0.0.1:12201")
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(-1))
	log.Info("hello")
}
