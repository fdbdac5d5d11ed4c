package cmd

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"path/filepath"
	"strconv"
)

// FFmpeg transcodes the given input blob to the format implied by the
// output path extension. The subprocess inherits the context, so an
// external cancellation kills it rather than leaving it orphaned.
func FFmpeg(ctx context.Context, input, output string, bitrate int) error {
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", input,
		"-vn",
	}
	if bitrate > 0 {
		args = append(args, "-b:a", strconv.Itoa(bitrate))
	}
	if filepath.Ext(output) == ".mp3" {
		args = append(args, "-id3v2_version", "3")
	}
	args = append(args, output)

	var buffer bytes.Buffer
	command := exec.CommandContext(ctx, "ffmpeg", args...)
	command.Stdout = &buffer
	command.Stderr = &buffer
	if err := command.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return errors.New(buffer.String())
	}
	return nil
}
