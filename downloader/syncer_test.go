package downloader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/bogem/id3v2/v2"
	"github.com/google/uuid"
	"github.com/spotDL/spotify-downloader-sub000/entity"
	"github.com/spotDL/spotify-downloader-sub000/entity/id3"
	"github.com/spotDL/spotify-downloader-sub000/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResolver struct {
	mutex    sync.Mutex
	calls    int
	fail     map[string]error // song id -> error
	failOnce map[string]error // song id -> error for the first attempt only
}

func (resolver *fakeResolver) Resolve(_ context.Context, song *entity.Song, _ provider.Quality, _ string) (*provider.Candidate, *provider.Stream, error) {
	resolver.mutex.Lock()
	defer resolver.mutex.Unlock()
	resolver.calls++

	if err, ok := resolver.failOnce[song.ID]; ok {
		delete(resolver.failOnce, song.ID)
		return nil, nil, err
	}
	if err, ok := resolver.fail[song.ID]; ok {
		return nil, nil, err
	}
	return &provider.Candidate{ID: song.ID, URL: "https://www.youtube.com/watch?v=" + song.ID},
		&provider.Stream{URL: "https://stream/" + song.ID, Bitrate: 128000}, nil
}

type fakeFetcher struct{}

func (fakeFetcher) Fetch(_ context.Context, _, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte("audio"), 0o600)
}

func (fakeFetcher) FetchBytes(_ context.Context, _ string) ([]byte, error) {
	return []byte("artwork"), nil
}

func fakeConvert(_ context.Context, input, output string, _ int) error {
	data, err := os.ReadFile(input)
	if err != nil {
		return err
	}
	return os.WriteFile(output, data, 0o600)
}

func fakeEmbed(_ *entity.Song, _ string) error { return nil }

func songFixture(id, title string) *entity.Song {
	return &entity.Song{ID: id, Title: title, Artists: []string{"Artist"}, Duration: 213}
}

func testSyncer(t *testing.T, options Options, resolver Resolver) *Syncer {
	t.Helper()
	syncer, err := New(options, resolver, fakeFetcher{}, fakeConvert, fakeEmbed, nil, nil)
	require.NoError(t, err)
	return syncer
}

func drain(events chan Event) []Event {
	collected := []Event{}
	for {
		select {
		case event := <-events:
			collected = append(collected, event)
		default:
			return collected
		}
	}
}

func TestSyncSingleTrack(t *testing.T) {
	var (
		output = t.TempDir()
		events = make(chan Event, 100)
	)
	syncer := testSyncer(t, Options{Output: output, Events: events}, &fakeResolver{})

	summary, err := syncer.Sync(context.Background(), []*entity.Song{songFixture("ABC123", "Song")})
	require.NoError(t, err)
	assert.Equal(t, &Summary{Total: 1, Succeeded: 1}, summary)
	assert.FileExists(t, filepath.Join(output, "Artist - Song.mp3"))

	var done, failed int
	for _, event := range drain(events) {
		assert.Equal(t, "ABC123", event.SongID)
		switch event.Status {
		case StatusDone:
			done++
		case StatusFailed:
			failed++
		}
	}
	assert.Equal(t, 1, done)
	assert.Zero(t, failed)
}

func TestSyncPlaylistWithUnmatchableSong(t *testing.T) {
	var (
		output = t.TempDir()
		events = make(chan Event, 100)
		songs  = []*entity.Song{
			songFixture("one", "First"),
			songFixture("two", "Second"),
			songFixture("three", "Third"),
		}
	)
	resolver := &fakeResolver{fail: map[string]error{"two": provider.ErrNoCandidate}}
	syncer := testSyncer(t, Options{Output: output, Events: events}, resolver)

	summary, err := syncer.Sync(context.Background(), songs)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	assert.Zero(t, summary.Skipped)

	for _, event := range drain(events) {
		if event.SongID == "two" && event.Status == StatusFailed {
			assert.Equal(t, "no candidate", event.Message)
		}
	}
	// content absence is not retried
	assert.Equal(t, 3, resolver.calls)
}

func TestSyncRerunSkipsWithoutNetwork(t *testing.T) {
	var (
		output  = t.TempDir()
		archive = filepath.Join(output, "archive.txt")
		songs   = []*entity.Song{songFixture("one", "First"), songFixture("two", "Second")}
		options = Options{Output: output, ArchivePath: archive}
	)

	first := testSyncer(t, options, &fakeResolver{})
	summary, err := first.Sync(context.Background(), songs)
	require.NoError(t, err)
	require.Equal(t, 2, summary.Succeeded)

	rerunResolver := &fakeResolver{}
	second := testSyncer(t, options, rerunResolver)
	summary, err = second.Sync(context.Background(), songs)
	require.NoError(t, err)
	assert.Equal(t, &Summary{Total: 2, Skipped: 2}, summary)
	assert.Zero(t, rerunResolver.calls)
}

func TestSyncSkipsExistingFileEvenWithoutArchive(t *testing.T) {
	output := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(output, "Artist - Song.mp3"), []byte("x"), 0o600))

	resolver := &fakeResolver{}
	syncer := testSyncer(t, Options{Output: output}, resolver)
	summary, err := syncer.Sync(context.Background(), []*entity.Song{songFixture("ABC123", "Song")})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Skipped)
	assert.Zero(t, resolver.calls)
}

func TestSyncFuzzySkipTolerantOfNamingDrift(t *testing.T) {
	output := t.TempDir()
	// same song, renamed by hand with slightly different punctuation
	require.NoError(t, os.WriteFile(filepath.Join(output, "Artist - Never Gonna Give You Up!.mp3"), []byte("x"), 0o600))

	resolver := &fakeResolver{}
	syncer := testSyncer(t, Options{Output: output}, resolver)
	summary, err := syncer.Sync(context.Background(), []*entity.Song{songFixture("ABC123", "Never Gonna Give You Up")})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Skipped)
	assert.Zero(t, resolver.calls)
}

func TestSyncPromptOverwrite(t *testing.T) {
	var (
		output   = t.TempDir()
		existing = filepath.Join(output, "Artist - Song.mp3")
		song     = songFixture("ABC123", "Song")
	)
	require.NoError(t, os.WriteFile(existing, []byte("old"), 0o600))

	// declined prompt keeps the file and stays off the network
	decliner := &fakeResolver{}
	declined := testSyncer(t, Options{
		Output:    output,
		Overwrite: OverwritePrompt,
		Confirm:   func(*entity.Song, string) bool { return false },
	}, decliner)
	summary, err := declined.Sync(context.Background(), []*entity.Song{song})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Skipped)
	assert.Zero(t, decliner.calls)
	data, err := os.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))

	// accepted prompt re-downloads in place
	accepted := testSyncer(t, Options{
		Output:    output,
		Overwrite: OverwritePrompt,
		Confirm:   func(*entity.Song, string) bool { return true },
	}, &fakeResolver{})
	summary, err = accepted.Sync(context.Background(), []*entity.Song{song})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Succeeded)
	data, err = os.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, "audio", string(data))
}

func TestSyncPromptWithoutCallbackSkips(t *testing.T) {
	output := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(output, "Artist - Song.mp3"), []byte("old"), 0o600))

	resolver := &fakeResolver{}
	syncer := testSyncer(t, Options{Output: output, Overwrite: OverwritePrompt}, resolver)
	summary, err := syncer.Sync(context.Background(), []*entity.Song{songFixture("ABC123", "Song")})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Skipped)
	assert.Zero(t, resolver.calls)
}

func TestSyncRecognizesRenamedTaggedFile(t *testing.T) {
	var (
		output = t.TempDir()
		song   = songFixture("ABC123", "Never Gonna Give You Up")
		moved  = filepath.Join(output, "kept for the road trip.mp3")
	)
	require.NoError(t, os.WriteFile(moved, []byte{}, 0o600))
	tag, err := id3.Open(moved, id3v2.Options{Parse: true})
	require.NoError(t, err)
	tag.SetSongID(song.ID)
	require.NoError(t, tag.Save())
	require.NoError(t, tag.Close())

	resolver := &fakeResolver{}
	syncer := testSyncer(t, Options{Output: output}, resolver)
	summary, err := syncer.Sync(context.Background(), []*entity.Song{song})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Skipped)
	assert.Zero(t, resolver.calls)
}

func TestSyncForceOverwrites(t *testing.T) {
	output := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(output, "Artist - Song.mp3"), []byte("old"), 0o600))

	syncer := testSyncer(t, Options{Output: output, Overwrite: OverwriteForce}, &fakeResolver{})
	summary, err := syncer.Sync(context.Background(), []*entity.Song{songFixture("ABC123", "Song")})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Succeeded)

	data, err := os.ReadFile(filepath.Join(output, "Artist - Song.mp3"))
	require.NoError(t, err)
	assert.Equal(t, "audio", string(data))
}

func TestSyncRetriesTransientFailure(t *testing.T) {
	resolver := &fakeResolver{failOnce: map[string]error{"one": errors.New("connection reset")}}
	syncer := testSyncer(t, Options{Output: t.TempDir()}, resolver)

	summary, err := syncer.Sync(context.Background(), []*entity.Song{songFixture("one", "First")})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 2, resolver.calls)
}

func TestSyncRetryBudgetExhausted(t *testing.T) {
	resolver := &fakeResolver{fail: map[string]error{"one": errors.New("connection reset")}}
	syncer := testSyncer(t, Options{Output: t.TempDir(), RetryBudget: 3}, resolver)

	summary, err := syncer.Sync(context.Background(), []*entity.Song{songFixture("one", "First")})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 3, resolver.calls)
}

type cancellingResolver struct {
	fakeResolver
	cancel context.CancelFunc
	allow  int
}

func (resolver *cancellingResolver) Resolve(ctx context.Context, song *entity.Song, quality provider.Quality, format string) (*provider.Candidate, *provider.Stream, error) {
	resolver.mutex.Lock()
	resolver.calls++
	calls := resolver.calls
	resolver.mutex.Unlock()

	if calls > resolver.allow {
		resolver.cancel()
		return nil, nil, context.Canceled
	}
	return &provider.Candidate{ID: song.ID, URL: "u"}, &provider.Stream{URL: "s"}, nil
}

func TestSyncCancellationMidBatch(t *testing.T) {
	var (
		output      = t.TempDir()
		ctx, cancel = context.WithCancel(context.Background())
		songs       []*entity.Song
	)
	defer cancel()
	for index := 0; index < 10; index++ {
		songs = append(songs, songFixture(fmt.Sprintf("song%d", index), fmt.Sprintf("Title %d", index)))
	}

	resolver := &cancellingResolver{cancel: cancel, allow: 3}
	syncer := testSyncer(t, Options{Output: output, Workers: 2, BatchSize: 10}, resolver)

	summary, err := syncer.Sync(ctx, songs)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 3, summary.Succeeded)
	assert.Equal(t, 7, summary.Cancelled)
	assert.Zero(t, summary.Failed)

	// completed files are intact, nothing partial at any final path
	entries, readErr := os.ReadDir(output)
	require.NoError(t, readErr)
	assert.Len(t, entries, 3)
	for _, entry := range entries {
		assert.NotContains(t, entry.Name(), ".part")
	}
}

type countingFetcher struct {
	fakeFetcher
	mutex sync.Mutex
	bytes int
}

func (fetcher *countingFetcher) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	fetcher.mutex.Lock()
	fetcher.bytes++
	fetcher.mutex.Unlock()
	return fetcher.fakeFetcher.FetchBytes(ctx, url)
}

type stubLyricsSource struct {
	mutex sync.Mutex
	calls int
}

func (stub *stubLyricsSource) Search(context.Context, *entity.Song) (string, error) {
	stub.mutex.Lock()
	defer stub.mutex.Unlock()
	stub.calls++
	return "some lyrics", nil
}

func TestSyncCachesArtworkAndLyrics(t *testing.T) {
	song := songFixture(uuid.NewString(), "Cached")
	song.Artwork.URL = fmt.Sprintf("https://img/%s.jpg", song.ID)
	t.Cleanup(func() {
		os.Remove(song.Path().Artwork())
		os.Remove(song.Path().Lyrics())
	})

	var (
		fetcher = &countingFetcher{}
		words   = &stubLyricsSource{}
	)
	first, err := New(Options{Output: t.TempDir()}, &fakeResolver{}, fetcher, fakeConvert, fakeEmbed, words, nil)
	require.NoError(t, err)
	_, err = first.Sync(context.Background(), []*entity.Song{song})
	require.NoError(t, err)
	assert.Equal(t, 1, fetcher.bytes)
	assert.Equal(t, 1, words.calls)
	assert.FileExists(t, song.Path().Artwork())
	assert.FileExists(t, song.Path().Lyrics())

	// a fresh run reuses the cached copies instead of refetching
	rerun := songFixture(song.ID, "Cached")
	rerun.Artwork.URL = song.Artwork.URL
	second, err := New(Options{Output: t.TempDir()}, &fakeResolver{}, fetcher, fakeConvert, fakeEmbed, words, nil)
	require.NoError(t, err)
	_, err = second.Sync(context.Background(), []*entity.Song{rerun})
	require.NoError(t, err)
	assert.Equal(t, 1, fetcher.bytes)
	assert.Equal(t, 1, words.calls)
	assert.Equal(t, "artwork", string(rerun.Artwork.Data))
	assert.Equal(t, "some lyrics", rerun.Lyrics)
}

func TestAdaptBatch(t *testing.T) {
	syncer := testSyncer(t, Options{Output: t.TempDir(), BatchSize: 16, BatchMin: 4, BatchMax: 64}, &fakeResolver{})

	// high failure rate shrinks toward the floor
	size, calm := syncer.adaptBatch(16, 0, 10, 5)
	assert.Equal(t, 11, size)
	assert.Zero(t, calm)
	size, _ = syncer.adaptBatch(5, 0, 5, 5)
	assert.Equal(t, 4, size)

	// two calm batches grow toward the ceiling
	size, calm = syncer.adaptBatch(16, 0, 10, 0)
	assert.Equal(t, 16, size)
	assert.Equal(t, 1, calm)
	size, calm = syncer.adaptBatch(16, 1, 10, 0)
	assert.Equal(t, 19, size)
	assert.Zero(t, calm)
	size, _ = syncer.adaptBatch(60, 1, 10, 0)
	assert.Equal(t, 64, size)

	// middling rate just resets the calm streak
	_, calm = syncer.adaptBatch(16, 1, 10, 2)
	assert.Zero(t, calm)
}

func TestErrorCategory(t *testing.T) {
	assert.Equal(t, "no candidate", errorCategory(fmt.Errorf("x: %w", provider.ErrNoCandidate)))
	assert.Equal(t, "conversion", errorCategory(fmt.Errorf("%w: exit status 1", ErrConversion)))
	assert.Equal(t, "network", errorCategory(errors.New("connection reset")))
}
