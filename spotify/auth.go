package spotify

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spotDL/spotify-downloader-sub000/ratelimit"
	"github.com/thanhpk/randstr"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	callbackAddress = "127.0.0.1:8080"
	callbackPath    = "/callback"
)

// Authenticate runs the browser PKCE authorization-code flow: it
// spawns a local callback server, hands the authorization URL to the
// given opener and blocks until the user completes the grant. The
// code verifier lets the exchange complete without a client secret.
func Authenticate(clientID, clientSecret string, openURL func(string) error, limiter *ratelimit.Limiter, log *zap.Logger) (*Client, error) {
	var (
		state         = randstr.Hex(16)
		verifier      = oauth2.GenerateVerifier()
		authenticator = spotifyauth.New(
			spotifyauth.WithClientID(clientID),
			spotifyauth.WithClientSecret(clientSecret),
			spotifyauth.WithRedirectURL(fmt.Sprintf("http://%s%s", callbackAddress, callbackPath)),
			spotifyauth.WithScopes(
				spotifyauth.ScopeUserLibraryRead,
				spotifyauth.ScopePlaylistReadPrivate,
				spotifyauth.ScopePlaylistReadCollaborative,
			),
		)
		clients  = make(chan *spotify.Client, 1)
		failures = make(chan error, 1)
	)

	server := &http.Server{Addr: callbackAddress, ReadHeaderTimeout: 5 * time.Second}
	http.HandleFunc(callbackPath, func(writer http.ResponseWriter, request *http.Request) {
		token, err := authenticator.Token(request.Context(), state, request, oauth2.VerifierOption(verifier))
		if err != nil {
			http.Error(writer, "authorization failed", http.StatusForbidden)
			failures <- err
			return
		}
		fmt.Fprintln(writer, "authorization complete, you can close this tab")
		clients <- spotify.New(authenticator.Client(request.Context(), token))
	})
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			failures <- err
		}
	}()
	defer server.Close()

	if err := openURL(authCodeURL(authenticator, state, verifier)); err != nil {
		return nil, err
	}

	select {
	case client := <-clients:
		return NewClient(client, limiter, log), nil
	case err := <-failures:
		return nil, err
	case <-time.After(2 * time.Minute):
		return nil, fmt.Errorf("authentication timed out")
	}
}

// authCodeURL carries the S256 challenge matching the verifier used
// at token exchange.
func authCodeURL(authenticator *spotifyauth.Authenticator, state, verifier string) string {
	return authenticator.AuthURL(state, oauth2.S256ChallengeOption(verifier))
}

// AuthenticateClientCredentials authenticates without user
// interaction. Catalog lookups only: no library or private
// playlist access.
func AuthenticateClientCredentials(ctx context.Context, clientID, clientSecret string, limiter *ratelimit.Limiter, log *zap.Logger) (*Client, error) {
	config := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     spotifyauth.TokenURL,
	}
	token, err := config.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("client credentials: %w", err)
	}
	return NewClient(spotify.New(spotifyauth.New().Client(ctx, token)), limiter, log), nil
}
