package logger

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsWriteToStderr(t *testing.T) {
	o := NewOptions()
	assert.Equal(t, []string{"stderr"}, o.OutputPaths)
	assert.Equal(t, "console", o.Format)
	assert.Empty(t, o.Validate())
}

func TestFlagsAndComplete(t *testing.T) {
	o := NewOptions()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	o.AddFlags(fs)
	require.NoError(t, fs.Parse([]string{"--log.level=debug", "--log.format=json"}))
	require.NoError(t, o.Complete())

	assert.Equal(t, "DEBUG", o.Level)
	assert.Equal(t, "json", o.Format)
	assert.Empty(t, o.Validate())
}

func TestValidateRejectsUnknownFormat(t *testing.T) {
	o := NewOptions()
	o.Format = "xml"
	errs := o.Validate()
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "log.format")
}

func TestCreateLoggerAttachesService(t *testing.T) {
	o := NewOptions()
	o.Service, o.Version = "docstore-boot", "v0.1.0"

	log, err := o.CreateLogger()
	require.NoError(t, err)
	assert.NotNil(t, log)
	assert.Equal(t, "docstore-boot", o.InitialFields["service.name"])
	assert.Equal(t, "v0.1.0", o.InitialFields["service.version"])
}
