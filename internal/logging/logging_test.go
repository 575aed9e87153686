package logging

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestSetupDebugRaisesLevel(t *testing.T) {
	Setup(true)
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
}

func TestSetupDefaultIsInfo(t *testing.T) {
	Setup(false)
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}
