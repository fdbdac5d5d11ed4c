// Package downloader orchestrates the concurrent match, fetch,
// convert and tag pipeline over many songs, with bounded workers,
// adaptive batch sizing and per-song retry.
package downloader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/arunsworld/nursery"
	"github.com/spotDL/spotify-downloader-sub000/entity"
	"github.com/spotDL/spotify-downloader-sub000/entity/index"
	"github.com/spotDL/spotify-downloader-sub000/lyrics"
	"github.com/spotDL/spotify-downloader-sub000/provider"
	"github.com/spotDL/spotify-downloader-sub000/spotify"
	"github.com/spotDL/spotify-downloader-sub000/util"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Resolver matches one song to a downloadable stream.
// *provider.Matcher is the production implementation.
type Resolver interface {
	Resolve(ctx context.Context, song *entity.Song, quality provider.Quality, format string) (*provider.Candidate, *provider.Stream, error)
}

// ConvertFunc transcodes the input blob to the output path.
type ConvertFunc func(ctx context.Context, input, output string, bitrate int) error

// EmbedFunc writes the song's tags into the finished file.
type EmbedFunc func(song *entity.Song, path string) error

type Summary struct {
	Total     int
	Succeeded int
	Failed    int
	Skipped   int
	Cancelled int
}

type Syncer struct {
	options      Options
	resolver     Resolver
	fetcher      Fetcher
	convert      ConvertFunc
	embed        EmbedFunc
	lyricsSource lyrics.Source
	archive      *index.Index
	log          *zap.Logger
}

func New(options Options, resolver Resolver, fetcher Fetcher, convert ConvertFunc, embed EmbedFunc, lyricsSource lyrics.Source, log *zap.Logger) (*Syncer, error) {
	if err := options.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}

	archive := index.New()
	if options.ArchivePath != "" {
		if err := archive.Load(options.ArchivePath); err != nil {
			return nil, fmt.Errorf("archive %s: %w", options.ArchivePath, err)
		}
	}

	return &Syncer{
		options:      options.withDefaults(),
		resolver:     resolver,
		fetcher:      fetcher,
		convert:      convert,
		embed:        embed,
		lyricsSource: lyricsSource,
		archive:      archive,
		log:          log,
	}, nil
}

// Sync drives every song to a terminal status and reports the final
// counts. Per-song failures never abort the batch; only the caller's
// cancellation does, in which case unfinished tasks end Cancelled.
func (syncer *Syncer) Sync(ctx context.Context, songs []*entity.Song) (*Summary, error) {
	var (
		tasks   = make([]*Task, 0, len(songs))
		pending []*Task
	)
	for _, song := range songs {
		final, skip := syncer.preflight(song)
		task := newTask(song, final, len(songs), syncer.options.Events)
		tasks = append(tasks, task)
		if skip {
			task.transition(StatusSkipped, "already downloaded")
			continue
		}
		pending = append(pending, task)
	}

	var (
		batchSize = syncer.options.BatchSize
		calm      = 0
	)
	for len(pending) > 0 && ctx.Err() == nil {
		size := batchSize
		if size > len(pending) {
			size = len(pending)
		}
		batch := pending[:size]
		pending = pending[size:]

		var (
			mutex    sync.Mutex
			requeued []*Task
			failed   = 0
		)
		group, groupCtx := errgroup.WithContext(ctx)
		group.SetLimit(syncer.options.Workers)
		for _, task := range batch {
			task := task
			group.Go(func() error {
				err := syncer.run(groupCtx, task)
				if err == nil || groupCtx.Err() != nil {
					// cancelled tasks settle after the loop
					return nil
				}

				mutex.Lock()
				defer mutex.Unlock()
				if Retryable(err) && task.Attempts < syncer.options.RetryBudget {
					syncer.log.Debug("requeueing task",
						zap.String("song", task.Song.ID), zap.Int("attempt", task.Attempts), zap.Error(err))
					requeued = append(requeued, task)
					return nil
				}
				failed++
				syncer.log.Debug("task failed",
					zap.String("song", task.Song.ID), zap.Error(err))
				task.transition(StatusFailed, errorCategory(err))
				return nil
			})
		}
		_ = group.Wait()

		// transient failures re-enter at the end of the run
		pending = append(pending, requeued...)
		batchSize, calm = syncer.adaptBatch(batchSize, calm, len(batch), failed+len(requeued))

		if len(pending) > 0 && syncer.options.BatchDelay > 0 && ctx.Err() == nil {
			timer := time.NewTimer(syncer.options.BatchDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
			case <-timer.C:
			}
		}
	}

	summary := &Summary{Total: len(tasks)}
	for _, task := range tasks {
		if !task.Status.Terminal() {
			task.transition(StatusCancelled, "")
		}
		switch task.Status {
		case StatusDone:
			summary.Succeeded++
		case StatusFailed:
			summary.Failed++
		case StatusSkipped:
			summary.Skipped++
		case StatusCancelled:
			summary.Cancelled++
		}
	}
	if err := ctx.Err(); err != nil {
		return summary, err
	}
	return summary, nil
}

// run drives one task through its sequential stages. Temporary data
// lives under the cache directory and only reaches the final path
// once fully written and tagged.
func (syncer *Syncer) run(ctx context.Context, task *Task) error {
	task.Attempts++
	song := task.Song

	task.transition(StatusMatching, song.String())
	candidate, stream, err := syncer.resolver.Resolve(ctx, song, syncer.options.Quality, syncer.options.StreamFormat)
	if err != nil {
		return err
	}
	song.DownloadURL = candidate.URL

	task.transition(StatusDownloading, candidate.URL)
	part := song.Path().Part()
	if err := nursery.RunConcurrentlyWithContext(ctx,
		func(ctx context.Context, errs chan error) {
			if err := syncer.fetcher.Fetch(ctx, stream.URL, part); err != nil {
				errs <- err
			}
		},
		func(ctx context.Context, _ chan error) {
			syncer.collectArtwork(ctx, song)
		},
		func(ctx context.Context, _ chan error) {
			syncer.collectLyrics(ctx, song)
		},
	); err != nil {
		os.Remove(part)
		return err
	}

	task.transition(StatusConverting, "")
	work := song.Path().Work(syncer.options.Format)
	if err := syncer.convert(ctx, part, work, syncer.options.Bitrate); err != nil {
		os.Remove(part)
		os.Remove(work)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrConversion, err)
	}
	os.Remove(part)

	task.transition(StatusTagging, "")
	if err := syncer.embed(song, work); err != nil {
		os.Remove(work)
		return err
	}
	if err := util.FileMoveOrCopy(work, task.OutputPath, true); err != nil {
		os.Remove(work)
		return err
	}
	if syncer.archive != nil {
		if err := syncer.archive.Add(song.ID, syncer.options.ArchivePath); err != nil {
			syncer.log.Warn("archive append failed", zap.String("song", song.ID), zap.Error(err))
		}
	}

	task.transition(StatusDone, task.OutputPath)
	return nil
}

// collectArtwork and collectLyrics run alongside the audio fetch.
// Both are best-effort: their absence degrades the tags, not the
// download. Fetched data lands in the cache directory, so a retried
// or re-run song never refetches it.
func (syncer *Syncer) collectArtwork(ctx context.Context, song *entity.Song) {
	if song.Artwork.URL == "" || len(song.Artwork.Data) > 0 {
		return
	}

	cache := song.Path().Artwork()
	if data, err := os.ReadFile(cache); err == nil && len(data) > 0 {
		song.Artwork.Data = data
		return
	}

	data, err := syncer.fetcher.FetchBytes(ctx, song.Artwork.URL)
	if err != nil {
		syncer.log.Debug("artwork fetch failed", zap.String("song", song.ID), zap.Error(err))
		return
	}
	song.Artwork.Data = data
	syncer.stash(cache, data)
}

func (syncer *Syncer) collectLyrics(ctx context.Context, song *entity.Song) {
	if song.Lyrics != "" || syncer.lyricsSource == nil {
		return
	}

	cache := song.Path().Lyrics()
	if data, err := os.ReadFile(cache); err == nil && len(data) > 0 {
		song.Lyrics = string(data)
		return
	}

	text, err := lyrics.Search(ctx, song, syncer.lyricsSource)
	if err != nil {
		syncer.log.Debug("lyrics fetch failed", zap.String("song", song.ID), zap.Error(err))
		return
	}
	song.Lyrics = text
	if text != "" {
		syncer.stash(cache, []byte(text))
	}
}

func (syncer *Syncer) stash(path string, data []byte) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		syncer.log.Debug("cache write failed", zap.String("path", path), zap.Error(err))
	}
}

// adaptBatch shrinks the batch after a high-failure batch and grows
// it back after sustained calm, smoothing load on the provider.
func (syncer *Syncer) adaptBatch(size, calm, batchLen, unsuccessful int) (int, int) {
	if batchLen == 0 {
		return size, calm
	}

	rate := float64(unsuccessful) / float64(batchLen)
	switch {
	case rate > 0.3:
		size = int(float64(size) * 0.7)
		if size < syncer.options.BatchMin {
			size = syncer.options.BatchMin
		}
		calm = 0
	case rate < 0.1:
		calm++
		if calm >= 2 {
			size = int(float64(size)*1.2 + 0.5)
			if size > syncer.options.BatchMax {
				size = syncer.options.BatchMax
			}
			calm = 0
		}
	default:
		calm = 0
	}
	return size, calm
}

func errorCategory(err error) string {
	switch {
	case errors.Is(err, provider.ErrNoCandidate):
		return "no candidate"
	case errors.Is(err, provider.ErrNoStream):
		return "no stream"
	case errors.Is(err, spotify.ErrNotFound):
		return "not found"
	case errors.Is(err, spotify.ErrNoMatch):
		return "no match"
	case errors.Is(err, ErrConversion):
		return "conversion"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	}
	return "network"
}
