package app

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandFlags(t *testing.T) {
	var level string
	a := NewApp(
		WithName("docstore-boot"),
		WithShortDescription("short"),
		WithFlags(func(fs *pflag.FlagSet) {
			fs.StringVar(&level, "log.level", "INFO", "")
		}),
	)

	assert.Equal(t, "docstore-boot", a.Name())
	root := a.Command()
	assert.Equal(t, "short", root.Short)
	assert.NotNil(t, root.PersistentFlags().Lookup(ConfigFlag))
	assert.NotNil(t, root.PersistentFlags().ShorthandLookup("c"))
	assert.NotNil(t, root.PersistentFlags().Lookup("version"))
	assert.NotNil(t, root.PersistentFlags().Lookup("log.level"))
}

func TestNoConfigNoVersion(t *testing.T) {
	root := NewApp(WithName("x"), WithNoConfig(), WithNoVersion()).Command()
	assert.Nil(t, root.PersistentFlags().Lookup(ConfigFlag))
	assert.Nil(t, root.PersistentFlags().Lookup("version"))
}

func TestSubcommandsInheritFlags(t *testing.T) {
	var gotConfig string
	sub := &cobra.Command{
		Use: "conditions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			gotConfig, err = cmd.Flags().GetString(ConfigFlag)
			return err
		},
	}
	root := NewApp(WithName("docstore-boot"), WithCommands(sub), WithSilence()).Command()

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"conditions", "-c", "/etc/docstore-boot.yaml"})
	require.NoError(t, root.Execute())
	assert.Equal(t, "/etc/docstore-boot.yaml", gotConfig)
	assert.True(t, root.SilenceErrors)
}

func TestGetVersion(t *testing.T) {
	assert.Equal(t, GetVersionInfo().GitVersion, GetVersion())
}
