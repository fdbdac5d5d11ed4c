package cmd

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flagSet(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	flags := pflag.NewFlagSet("download", pflag.ContinueOnError)
	flags.String("output", "/default", "")
	flags.Int("workers", 4, "")
	flags.Bool("lyrics", false, "")
	flags.StringArray("provider", []string{"youtube"}, "")
	require.NoError(t, flags.Parse(args))
	return flags
}

func TestOptionPrecedence(t *testing.T) {
	// flag default < config value < explicit flag
	assert.Equal(t, "/default", stringOption(flagSet(t), "output", ""))
	assert.Equal(t, "/config", stringOption(flagSet(t), "output", "/config"))
	assert.Equal(t, "/flag", stringOption(flagSet(t, "--output", "/flag"), "output", "/config"))

	assert.Equal(t, 4, intOption(flagSet(t), "workers", 0))
	assert.Equal(t, 16, intOption(flagSet(t), "workers", 16))
	assert.Equal(t, 2, intOption(flagSet(t, "--workers", "2"), "workers", 16))

	assert.False(t, boolOption(flagSet(t), "lyrics", false))
	assert.True(t, boolOption(flagSet(t), "lyrics", true))
	assert.True(t, boolOption(flagSet(t, "--lyrics"), "lyrics", false))
}

func TestProviderNames(t *testing.T) {
	assert.Equal(t, []string{"youtube"}, providerNames(flagSet(t), new(Config)))
	assert.Equal(t, []string{"youtube-music"},
		providerNames(flagSet(t), &Config{Providers: []string{"youtube-music"}}))
	assert.Equal(t, []string{"youtube-music"},
		providerNames(flagSet(t, "--provider", "youtube-music"), &Config{Providers: []string{"youtube"}}))
}
