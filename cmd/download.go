package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/cobra"
	"github.com/spotDL/spotify-downloader-sub000/downloader"
	"github.com/spotDL/spotify-downloader-sub000/entity"
	"github.com/spotDL/spotify-downloader-sub000/entity/playlist"
	"github.com/spotDL/spotify-downloader-sub000/lyrics"
	"github.com/spotDL/spotify-downloader-sub000/processor"
	"github.com/spotDL/spotify-downloader-sub000/provider"
	"github.com/spotDL/spotify-downloader-sub000/ratelimit"
	"github.com/spotDL/spotify-downloader-sub000/spotify"
	"github.com/spotDL/spotify-downloader-sub000/util"
	"github.com/spotDL/spotify-downloader-sub000/util/anchor"
	shell "github.com/spotDL/spotify-downloader-sub000/util/cmd"
	"github.com/spotDL/spotify-downloader-sub000/util/logger"
	"go.uber.org/zap"
)

var tui = anchor.New(anchor.Cyan)

func init() {
	cmdRoot.AddCommand(cmdDownload())
}

func cmdDownload() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "download",
		Short:        "Download the given track, album, playlist or artist references",
		SilenceUsage: true,
		Args:         cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				flags   = cmd.Flags()
				verbose = util.ErrWrap(false)(flags.GetBool("verbose"))
				log     = logger.New(verbose)
			)
			defer func() { util.ErrSuppress(log.Sync()) }()

			config, err := loadConfig(util.ErrWrap("")(flags.GetString("config")))
			if err != nil {
				return &statusError{exitUsage, err}
			}

			var (
				output       = stringOption(flags, "output", config.Output)
				template     = stringOption(flags, "path-template", config.PathTemplate)
				format       = stringOption(flags, "format", config.Format)
				bitrate      = intOption(flags, "bitrate", config.Bitrate)
				quality      = stringOption(flags, "quality", config.Quality)
				streamFormat = util.ErrWrap("")(flags.GetString("stream-format"))
				overwrite    = stringOption(flags, "overwrite", config.Overwrite)
				workers      = intOption(flags, "workers", config.Workers)
				archive      = stringOption(flags, "archive", config.Archive)
				names        = providerNames(flags, config)
				tolerance    = intOption(flags, "duration-tolerance", config.DurationTolerance)
				manual       = util.ErrWrap(false)(flags.GetBool("manual"))
				mix          = util.ErrWrap(false)(flags.GetBool("m3u"))
				withLyrics   = boolOption(flags, "lyrics", config.Lyrics)
				geniusToken  = stringOption(flags, "genius-token", config.GeniusToken)
				forceURL     = util.ErrWrap("")(flags.GetString("force-url"))
				batchSize    = util.ErrWrap(0)(flags.GetInt("batch-size"))
				batchDelay   = util.ErrWrap(time.Duration(0))(flags.GetDuration("batch-delay"))
				retries      = util.ErrWrap(0)(flags.GetInt("retries"))
				clientID     = util.Fallback(stringOption(flags, "client-id", config.ClientID), os.Getenv("SPOTIFY_ID"))
				clientSecret = util.Fallback(stringOption(flags, "client-secret", config.ClientSecret), os.Getenv("SPOTIFY_KEY"))
			)
			if clientID == "" {
				return &statusError{exitUsage, errors.New("spotify client id required (flag, config file or SPOTIFY_ID)")}
			}
			if forceURL != "" && len(args) > 1 {
				return &statusError{exitUsage, errors.New("force-url applies to a single track reference only")}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			spotifyLimiter := ratelimit.New(ratelimit.Options{})
			var client *spotify.Client
			if clientSecret != "" {
				client, err = spotify.AuthenticateClientCredentials(ctx, clientID, clientSecret, spotifyLimiter, log)
			} else {
				client, err = spotify.Authenticate(clientID, clientSecret, openBrowser, spotifyLimiter, log)
			}
			if err != nil {
				return err
			}

			songs, collection, err := expand(ctx, client, args)
			if err != nil {
				return err
			}
			if len(songs) == 0 {
				return &statusError{exitNothingFound, errors.New("no downloadable songs found")}
			}
			if forceURL != "" {
				if len(songs) > 1 {
					return &statusError{exitUsage, errors.New("force-url applies to a single track reference only")}
				}
				songs[0].DownloadURL = forceURL
			}
			tui.Printf("%d songs to download", len(songs))

			var (
				providerLimiter = ratelimit.New(ratelimit.Options{})
				searchers       []provider.Provider
			)
			for _, name := range names {
				searcher, err := provider.For(provider.Name(name), nil, providerLimiter, log)
				if err != nil {
					return &statusError{exitUsage, err}
				}
				searchers = append(searchers, searcher)
			}
			matcher := buildMatcher(searchers, tolerance, manual, providerLimiter, log)

			var lyricsSource lyrics.Source
			if withLyrics {
				sources := lyrics.MultiSource{lyrics.NewOvh(nil)}
				if geniusToken != "" {
					sources = append(sources, lyrics.NewGenius(nil, geniusToken))
				}
				lyricsSource = sources
			}

			var (
				events   = make(chan downloader.Event, 512)
				rendered = make(chan bool, 1)
			)
			options := downloader.Options{
				Output:       output,
				PathTemplate: template,
				Format:       format,
				Bitrate:      bitrate,
				Quality:      provider.Quality(quality),
				StreamFormat: streamFormat,
				Overwrite:    downloader.Overwrite(overwrite),
				Confirm:      confirmOverwrite,
				Workers:      workers,
				ArchivePath:  archive,
				BatchSize:    batchSize,
				BatchDelay:   batchDelay,
				RetryBudget:  retries,
				Events:       events,
			}
			syncer, err := downloader.New(options, matcher, &downloader.HTTPFetcher{}, shell.FFmpeg, processor.Do, lyricsSource, log)
			if err != nil {
				return &statusError{exitUsage, err}
			}

			go renderEvents(events, rendered)
			summary, err := syncer.Sync(ctx, songs)
			close(events)
			<-rendered

			report := tui.Printf
			if summary.Failed > 0 {
				report = tui.AnchorPrintf
			}
			report("downloaded %d, skipped %d, failed %d, cancelled %d",
				summary.Succeeded, summary.Skipped, summary.Failed, summary.Cancelled)
			if err != nil {
				return err
			}

			if mix {
				if err := writePlaylist(collection, songs, options); err != nil {
					return err
				}
			}

			switch {
			case summary.Succeeded == 0 && summary.Skipped == 0:
				return &statusError{exitNothingFound, errors.New("no song could be downloaded")}
			case summary.Failed > 0:
				return &statusError{exitPartialFailure, fmt.Errorf("%d of %d songs failed", summary.Failed, summary.Total)}
			}
			return nil
		},
	}
	cmd.Flags().String("config", "", "Configuration file path")
	cmd.Flags().StringP("output", "o", xdg.UserDirs.Music, "Output directory")
	cmd.Flags().String("path-template", entity.DefaultPathTemplate, "Output filename template")
	cmd.Flags().String("format", "mp3", "Output audio format")
	cmd.Flags().Int("bitrate", 0, "Transcoding bitrate in kbps (0 keeps the encoder default)")
	cmd.Flags().String("quality", string(provider.QualityBest), "Source stream preference (best or worst)")
	cmd.Flags().String("stream-format", "", "Preferred source codec, e.g. opus or mp4a")
	cmd.Flags().StringArray("provider", []string{string(provider.YouTube), string(provider.YouTubeMusic)}, "Search providers, queried in order")
	cmd.Flags().Int("duration-tolerance", provider.DefaultDurationTolerance, "Seconds of duration drift tolerated when auto-picking (0 disables)")
	cmd.Flags().BoolP("manual", "m", false, "Prompt to pick the download candidate")
	cmd.Flags().String("overwrite", string(downloader.OverwriteSkip), "Existing file policy (skip, force or prompt)")
	cmd.Flags().Int("workers", 4, "Concurrent downloads")
	cmd.Flags().String("archive", "", "Archive file recording downloaded song ids")
	cmd.Flags().Int("batch-size", 0, "Initial scheduler batch size")
	cmd.Flags().Duration("batch-delay", 0, "Pause between scheduler batches")
	cmd.Flags().Int("retries", 0, "Attempts per song before giving up")
	cmd.Flags().Bool("m3u", false, "Write an M3U playlist next to the downloaded files")
	cmd.Flags().BoolP("lyrics", "l", false, "Fetch and embed lyrics")
	cmd.Flags().String("genius-token", "", "Genius API token for the lyrics fallback")
	cmd.Flags().String("force-url", "", "Download the given URL instead of searching (single track only)")
	cmd.Flags().String("client-id", "", "Spotify application client id")
	cmd.Flags().String("client-secret", "", "Spotify application client secret")
	cmd.Flags().BoolP("verbose", "v", false, "Verbose diagnostics")
	return cmd
}

// expand resolves every reference into its songs, deduplicating by
// id while preserving first-seen order. The collection name of the
// first named reference labels an eventual playlist file.
func expand(ctx context.Context, client *spotify.Client, references []string) ([]*entity.Song, string, error) {
	var (
		songs      []*entity.Song
		collection string
		seen       = map[string]bool{}
	)
	for _, reference := range references {
		expanded, name, err := client.Expand(ctx, reference)
		if err != nil {
			return nil, "", fmt.Errorf("%s: %w", reference, err)
		}
		collection = util.Fallback(collection, name)
		for _, song := range expanded {
			if seen[song.ID] {
				continue
			}
			seen[song.ID] = true
			songs = append(songs, song)
		}
	}
	return songs, collection, nil
}

// renderEvents drives the terminal anchor off the pipeline's event
// stream, one lot per song.
func renderEvents(events <-chan downloader.Event, rendered chan<- bool) {
	lots := map[string]*anchor.Lot{}
	for event := range events {
		lot, ok := lots[event.SongID]
		if !ok {
			name := event.SongID
			if event.Status == downloader.StatusMatching && event.Message != "" {
				name = event.Message
			}
			lot = tui.Lot(name)
			lots[event.SongID] = lot
		}

		switch event.Status {
		case downloader.StatusDone:
			lot.Close("done")
		case downloader.StatusSkipped:
			lot.Close("skipped")
		case downloader.StatusFailed:
			lot.Close("failed: " + util.Excerpt(event.Message, 60))
		case downloader.StatusCancelled:
			lot.Close("cancelled")
		case downloader.StatusMatching:
			if event.Attempt > 1 {
				lot.Printf("%s (attempt %d)", event.Status, event.Attempt)
				continue
			}
			lot.Print(string(event.Status))
		default:
			lot.Print(string(event.Status))
		}
	}
	rendered <- true
}

// writePlaylist emits an M3U file referencing the songs that
// actually made it to disk, by relative path.
func writePlaylist(collection string, songs []*entity.Song, options downloader.Options) error {
	name := util.Fallback(collection, "spotdl")
	mix := playlist.New(name)
	located := map[string]string{}
	for _, song := range songs {
		relative := song.RenderPath(util.Fallback(options.PathTemplate, entity.DefaultPathTemplate), util.Fallback(options.Format, "mp3"))
		if _, err := os.Stat(filepath.Join(options.Output, relative)); err != nil {
			continue
		}
		located[song.ID] = relative
		mix.Add(song)
	}
	if len(mix.Songs) == 0 {
		return nil
	}

	path := filepath.Join(options.Output, util.LegalizeFilename(name)+".m3u")
	tui.Printf("writing playlist %s", path)
	return mix.Encode(path, func(song *entity.Song) string {
		return located[song.ID]
	})
}

// buildMatcher assembles the selection policy handed to the
// pipeline: automatic picks stay within the duration tolerance
// unless manual mode hands the choice to the prompt.
func buildMatcher(searchers []provider.Provider, tolerance int, manual bool, limiter *ratelimit.Limiter, log *zap.Logger) *provider.Matcher {
	return &provider.Matcher{
		Providers:         searchers,
		DurationTolerance: tolerance,
		Manual:            manual,
		Select:            selectCandidate,
		Manifests:         &provider.PlayerManifests{Limiter: limiter},
		Log:               log,
	}
}

// confirmOverwrite asks before replacing an existing file under the
// prompt overwrite policy.
func confirmOverwrite(song *entity.Song, path string) bool {
	answer := strings.ToLower(tui.Reads(fmt.Sprintf("%s exists, overwrite it for %s? [y/N]", path, song)))
	return answer == "y" || answer == "yes"
}

// selectCandidate prompts through the anchor for a 1-based pick, 0
// or anything unparsable meaning skip.
func selectCandidate(song *entity.Song, candidates []*provider.Candidate) (int, error) {
	tui.Printf("pick a match for %s:", song)
	for index, candidate := range candidates {
		tui.Printf("%2d. %s (%d:%02d) %s", index+1, candidate.Title, candidate.Duration/60, candidate.Duration%60, candidate.URL)
	}

	answer := strings.TrimSpace(tui.Reads("number (0 skips): "))
	choice, err := strconv.Atoi(answer)
	if err != nil {
		return 0, nil
	}
	return choice, nil
}

func openBrowser(url string) error {
	command := "xdg-open"
	if runtime.GOOS == "darwin" {
		command = "open"
	}
	if err := exec.Command(command, url).Start(); err != nil {
		tui.Printf("open the following URL to authenticate: %s", url)
	}
	return nil
}
