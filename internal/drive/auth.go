package drive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/jwt"
)

// DriveScope is the full Drive scope. The narrower drive.file scope is not
// enough: ownership transfer acceptance fails with it.
const DriveScope = "https://www.googleapis.com/auth/drive"

// GoogleTokenURL is the OAuth2 token endpoint for the JWT bearer grant.
const GoogleTokenURL = "https://oauth2.googleapis.com/token"

// ErrNoCredentials is returned when a service account is missing its email
// or private key.
var ErrNoCredentials = errors.New("drive: service account email and private key are required")

// ServiceAccount identifies the account ownership is transferred to.
// TokenURL defaults to GoogleTokenURL; tests point it at a local server.
type ServiceAccount struct {
	Email      string
	PrivateKey []byte
	TokenURL   string
}

// NewTokenSource returns a TokenSource that mints access tokens for sa with
// the two-legged JWT flow and caches them until expiry. httpClient is used
// for token exchanges; nil means http.DefaultClient.
//
// ctx must outlive the TokenSource: token refresh uses it.
func NewTokenSource(ctx context.Context, sa ServiceAccount, httpClient *http.Client, logger *slog.Logger) (TokenSource, error) {
	if sa.Email == "" || len(sa.PrivateKey) == 0 {
		return nil, ErrNoCredentials
	}

	if logger == nil {
		logger = slog.Default()
	}

	tokenURL := sa.TokenURL
	if tokenURL == "" {
		tokenURL = GoogleTokenURL
	}

	if httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)
	}

	cfg := &jwt.Config{
		Email:      sa.Email,
		PrivateKey: sa.PrivateKey,
		Scopes:     []string{DriveScope},
		TokenURL:   tokenURL,
	}

	return &tokenBridge{src: cfg.TokenSource(ctx), logger: logger}, nil
}

// tokenBridge adapts oauth2.TokenSource to drive.TokenSource.
// Logs token acquisition at debug level so refresh activity is visible.
type tokenBridge struct {
	src    oauth2.TokenSource
	logger *slog.Logger
}

func (b *tokenBridge) Token() (string, error) {
	t, err := b.src.Token()
	if err != nil {
		b.logger.Warn("token acquisition failed")
		return "", fmt.Errorf("drive: obtaining token: %w", err)
	}

	b.logger.Debug("token acquired",
		slog.Time("expiry", t.Expiry),
		slog.Bool("valid", t.Valid()),
	)

	return t.AccessToken, nil
}
