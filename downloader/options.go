package downloader

import (
	"fmt"
	"time"

	"github.com/spotDL/spotify-downloader-sub000/entity"
	"github.com/spotDL/spotify-downloader-sub000/provider"
)

// Overwrite is the policy applied when the expected output file
// already exists.
type Overwrite string

const (
	OverwriteSkip   Overwrite = "skip"
	OverwriteForce  Overwrite = "force"
	OverwritePrompt Overwrite = "prompt"
)

// ConfirmFunc asks the caller whether the existing file at path may
// be overwritten. Used by the prompt overwrite policy.
type ConfirmFunc func(song *entity.Song, path string) bool

type Options struct {
	Output       string // output directory
	PathTemplate string // see entity.DefaultPathTemplate
	Format       string // output audio format, also the file extension
	Bitrate      int    // transcoding bitrate, 0 keeps the encoder default
	Quality      provider.Quality
	StreamFormat string // preferred source codec, empty takes any
	Overwrite    Overwrite
	Confirm      ConfirmFunc // consulted by OverwritePrompt, nil skips
	Workers      int
	ArchivePath  string // skip/archive file, empty disables persistence

	BatchSize  int
	BatchMin   int
	BatchMax   int
	BatchDelay time.Duration

	RetryBudget    int     // attempts per song before Failed
	FuzzyThreshold float64 // filename similarity treated as already downloaded

	Events chan<- Event
}

func (options Options) withDefaults() Options {
	if options.PathTemplate == "" {
		options.PathTemplate = entity.DefaultPathTemplate
	}
	if options.Format == "" {
		options.Format = "mp3"
	}
	if options.Quality == "" {
		options.Quality = provider.QualityBest
	}
	if options.Overwrite == "" {
		options.Overwrite = OverwriteSkip
	}
	if options.Workers <= 0 {
		options.Workers = 4
	}
	if options.BatchSize <= 0 {
		options.BatchSize = 16
	}
	if options.BatchMin <= 0 {
		options.BatchMin = 4
	}
	if options.BatchMax <= 0 {
		options.BatchMax = 64
	}
	if options.BatchDelay < 0 {
		options.BatchDelay = 0
	}
	if options.RetryBudget <= 0 {
		options.RetryBudget = 3
	}
	if options.FuzzyThreshold <= 0 {
		options.FuzzyThreshold = 0.85
	}
	return options
}

// Validate fails fast on invalid option combinations, before any
// network activity.
func (options Options) Validate() error {
	switch options.Overwrite {
	case "", OverwriteSkip, OverwriteForce, OverwritePrompt:
	default:
		return fmt.Errorf("%w: unknown overwrite policy %q", ErrConfiguration, options.Overwrite)
	}
	switch options.Quality {
	case "", provider.QualityBest, provider.QualityWorst:
	default:
		return fmt.Errorf("%w: unknown quality %q", ErrConfiguration, options.Quality)
	}
	if options.FuzzyThreshold > 1 {
		return fmt.Errorf("%w: fuzzy threshold %f above 1", ErrConfiguration, options.FuzzyThreshold)
	}
	if options.BatchMin > options.BatchMax && options.BatchMax > 0 && options.BatchMin > 0 {
		return fmt.Errorf("%w: batch floor above ceiling", ErrConfiguration)
	}
	return nil
}
