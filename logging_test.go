package cellular

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogging_WriterLoggerLevels(t *testing.T) {
	var out, errOut bytes.Buffer
	l := NewWriterLogger(&out, &errOut, "sim", false)

	l.Debugf("hidden %d", 1)
	l.Infof("generation %d", 2)
	l.Warnf("slow")
	l.Errorf("broken: %s", "grid")

	assert.NotContains(t, out.String(), "hidden")
	assert.Contains(t, out.String(), "[sim] INFO: generation 2")
	assert.Contains(t, errOut.String(), "[sim] WARN: slow")
	assert.Contains(t, errOut.String(), "[sim] ERROR: broken: grid")

	l.SetDebug(true)
	assert.True(t, l.DebugEnabled())
	l.Debugf("visible")
	assert.Contains(t, out.String(), "DEBUG: visible")
}

func TestLogging_NoPrefix(t *testing.T) {
	var out bytes.Buffer
	l := NewWriterLogger(&out, &out, "", true)
	l.Infof("plain")
	assert.Contains(t, out.String(), " INFO: plain")
	assert.NotContains(t, out.String(), "[")
}

func TestLogging_ModuleInstallsLogger(t *testing.T) {
	var out bytes.Buffer
	custom := NewWriterLogger(&out, &out, "test", false)

	app := NewAppBuilder().
		UseModule(LoggingModule{Logger: custom, Debug: true}).
		Build()

	assert.Same(t, custom, app.Logger())
	assert.True(t, custom.DebugEnabled())

	app.Commands().Logger().Infof("through commands")
	assert.Contains(t, out.String(), "through commands")
}

func TestLogging_DefaultLoggerFromModule(t *testing.T) {
	app := NewAppBuilder().UseModule(LoggingModule{Prefix: "cellular"}).Build()
	l, ok := app.Logger().(*DefaultLogger)
	assert.True(t, ok)
	assert.False(t, l.DebugEnabled())
}

func TestLogging_FallbackIsNop(t *testing.T) {
	var app *App
	assert.NotNil(t, app.Logger())

	app = NewAppBuilder().Build()
	l := app.Logger()
	assert.NotNil(t, l)
	assert.False(t, l.DebugEnabled())
	l.Errorf("dropped")
}
