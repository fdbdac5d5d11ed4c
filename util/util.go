package util

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
)

const cacheDirname = "spotdl"

// ErrWrap returns a closure which flattens a (value, error)
// pair to the value alone, falling back to the given
// default whenever the error is set.
func ErrWrap[T any](fallback T) func(T, error) T {
	return func(value T, err error) T {
		if err != nil {
			return fallback
		}
		return value
	}
}

func ErrSuppress(err error) {
	_ = err
}

// ErrOnly flattens a (value, error) pair to the error alone.
func ErrOnly(_ any, err error) error {
	return err
}

// First returns the first element of the given
// slice, or the zero value on an empty one.
func First[T any](values []T) (value T) {
	if len(values) > 0 {
		value = values[0]
	}
	return
}

// Fallback returns the value unless it is the zero
// value, in which case the fallback is returned.
func Fallback[T comparable](value, fallback T) T {
	var zero T
	if value == zero {
		return fallback
	}
	return value
}

func CacheDirectory() string {
	return filepath.Join(xdg.CacheHome, cacheDirname)
}

func CacheFile(filename string) string {
	return filepath.Join(CacheDirectory(), filename)
}

func FileBaseStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// LegalizeFilename strips out illegal characters
// for a filename to be widely supported
func LegalizeFilename(filename string) string {
	legalized := filename
	for illegal, legal := range map[string]string{
		"/":  "-",
		"\\": "-",
		":":  "-",
		"*":  "",
		"?":  "",
		"\"": "'",
		"<":  "(",
		">":  ")",
		"|":  "-",
	} {
		legalized = strings.ReplaceAll(legalized, illegal, legal)
	}
	return strings.TrimSpace(legalized)
}

// FileMoveOrCopy moves the given source path to the given
// destination, falling back to a copy-and-remove whenever
// the two paths live on different filesystems.
func FileMoveOrCopy(source, destination string, overwrite ...bool) error {
	if len(overwrite) == 0 || !overwrite[0] {
		if _, err := os.Stat(destination); err == nil {
			return fmt.Errorf("destination %s already exists", destination)
		}
	}

	if err := os.MkdirAll(filepath.Dir(destination), 0o755); err != nil {
		return err
	}

	if err := os.Rename(source, destination); err == nil {
		return nil
	}

	input, err := os.Open(source)
	if err != nil {
		return err
	}
	defer input.Close()

	output, err := os.Create(destination)
	if err != nil {
		return err
	}
	defer output.Close()

	if err := ErrOnly(io.Copy(output, input)); err != nil {
		return err
	}
	return os.Remove(source)
}

// Excerpt shortens the given data to a printable preview.
func Excerpt(data string, length ...int) string {
	span := 80
	if len(length) > 0 {
		span = length[0]
	}

	flat := strings.Join(strings.Fields(data), " ")
	if len(flat) <= span {
		return flat
	}
	return flat[:span] + "..."
}

func HumanizeBytes(size int) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%dB", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%cB", float64(size)/float64(div), "KMGTPE"[exp])
}
