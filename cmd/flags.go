package cmd

import (
	"github.com/spf13/pflag"
	"github.com/spotDL/spotify-downloader-sub000/util"
)

// The merge helpers implement the flag-over-config precedence: a
// flag explicitly set on the command line always wins, otherwise a
// non-zero config file value replaces the flag default.

func stringOption(flags *pflag.FlagSet, name, configured string) string {
	value := util.ErrWrap("")(flags.GetString(name))
	if !flags.Changed(name) {
		return util.Fallback(configured, value)
	}
	return value
}

func intOption(flags *pflag.FlagSet, name string, configured int) int {
	value := util.ErrWrap(0)(flags.GetInt(name))
	if !flags.Changed(name) {
		return util.Fallback(configured, value)
	}
	return value
}

func boolOption(flags *pflag.FlagSet, name string, configured bool) bool {
	if !flags.Changed(name) && configured {
		return true
	}
	return util.ErrWrap(false)(flags.GetBool(name))
}

func providerNames(flags *pflag.FlagSet, config *Config) []string {
	if !flags.Changed("provider") && len(config.Providers) > 0 {
		return config.Providers
	}
	return util.ErrWrap([]string{})(flags.GetStringArray("provider"))
}
