package logger

import (
	"bytes"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
)

func TestLoggerWithoutInit(t *testing.T) {
	logger = nil
	assert.NotPanics(t, func() {
		Debug("debug", "key", "value")
		Info("info")
		Warn("warn", "count", 3)
		Error("error")
	})
}

func TestSetOutputRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf, log.InfoLevel)
	t.Cleanup(func() { logger = nil })

	Debug("hidden request", "method", "GET")
	Info("component created", "name", "promo-banner")

	out := buf.String()
	assert.NotContains(t, out, "hidden request")
	assert.Contains(t, out, "component created")
	assert.Contains(t, out, "promo-banner")
}
