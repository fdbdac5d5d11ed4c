package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spotDL/spotify-downloader-sub000/downloader"
)

// Process exit codes, stable for scripting.
const (
	exitOK             = 0
	exitNothingFound   = 1
	exitUsage          = 2
	exitPartialFailure = 3
)

// statusError carries an explicit exit code out of a command.
type statusError struct {
	code int
	err  error
}

func (status *statusError) Error() string { return status.err.Error() }

func (status *statusError) Unwrap() error { return status.err }

var cmdRoot = &cobra.Command{
	Use:          "spotdl",
	Short:        "Download Spotify songs, albums and playlists from alternative providers",
	SilenceUsage: true,
}

func Execute() {
	if err := cmdRoot.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)

		code := exitNothingFound
		var status *statusError
		switch {
		case errors.As(err, &status):
			code = status.code
		case errors.Is(err, downloader.ErrConfiguration):
			code = exitUsage
		}
		os.Exit(code)
	}
}
