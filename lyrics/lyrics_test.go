package lyrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/spotDL/spotify-downloader-sub000/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	lyrics string
	err    error
}

func (source stubSource) Search(_ context.Context, _ *entity.Song) (string, error) {
	return source.lyrics, source.err
}

var lyricsSong = &entity.Song{Title: "Song - Acoustic", Artists: []string{"Artist"}}

func TestMultiSourceFirstHitWins(t *testing.T) {
	sources := MultiSource{
		stubSource{err: ErrLyricsNotFound},
		stubSource{lyrics: "found"},
		stubSource{lyrics: "never reached"},
	}

	lyrics, err := sources.Search(context.Background(), lyricsSong)
	require.NoError(t, err)
	assert.Equal(t, "found", lyrics)
}

func TestMultiSourcePropagatesTransportErrors(t *testing.T) {
	sources := MultiSource{stubSource{err: errors.New("boom")}}
	_, err := sources.Search(context.Background(), lyricsSong)
	assert.Error(t, err)
}

func TestSearchMapsAbsenceToEmpty(t *testing.T) {
	lyrics, err := Search(context.Background(), lyricsSong, MultiSource{stubSource{err: ErrLyricsNotFound}})
	require.NoError(t, err)
	assert.Empty(t, lyrics)
}

func TestOvh(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		// the variant suffix is stripped from the queried title
		assert.Equal(t, "/Artist/Song", request.URL.Path)
		_, _ = writer.Write([]byte(`{"lyrics":"never gonna give you up"}`))
	}))
	defer server.Close()

	source := NewOvh(server.Client())
	ovhURLFixture(t, source, server.URL)

	lyrics, err := source.Search(context.Background(), lyricsSong)
	require.NoError(t, err)
	assert.Equal(t, "never gonna give you up", lyrics)
}

func TestOvhNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		writer.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	source := NewOvh(server.Client())
	ovhURLFixture(t, source, server.URL)

	_, err := source.Search(context.Background(), lyricsSong)
	assert.ErrorIs(t, err, ErrLyricsNotFound)
}

// ovhURLFixture reroutes the source to the test server.
func ovhURLFixture(t *testing.T, source *Ovh, baseURL string) {
	t.Helper()
	source.client.Transport = rewriteTransport{baseURL: baseURL, inner: source.client.Transport}
}

type rewriteTransport struct {
	baseURL string
	inner   http.RoundTripper
}

func (transport rewriteTransport) RoundTrip(request *http.Request) (*http.Response, error) {
	request.URL.Scheme = "http"
	request.URL.Host = transport.baseURL[len("http://"):]
	inner := transport.inner
	if inner == nil {
		inner = http.DefaultTransport
	}
	return inner.RoundTrip(request)
}

func TestGeniusWithoutToken(t *testing.T) {
	_, err := NewGenius(nil, "").Search(context.Background(), lyricsSong)
	assert.ErrorIs(t, err, ErrLyricsNotFound)
}

func TestStripTags(t *testing.T) {
	assert.Equal(t, "line one\nline two", stripTags("<a>line one</a>\n<i>line two</i>"))
}
