package googleauth

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"

	"github.com/JakeFAU/index-submitter/internal/metrics"
)

// JWTProvider exchanges service-account credentials for access tokens.
// Tokens are never cached; every call performs a fresh exchange.
type JWTProvider struct {
	client   *http.Client
	tokenURL string
	logger   *zap.Logger
}

// NewJWTProvider builds a provider that performs token exchanges with client against
// tokenURL, or Google's token endpoint when tokenURL is empty. The credential's own
// token_uri is never contacted.
func NewJWTProvider(client *http.Client, tokenURL string, logger *zap.Logger) *JWTProvider {
	if client == nil {
		client = http.DefaultClient
	}
	if tokenURL == "" {
		tokenURL = google.JWTTokenURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JWTProvider{client: client, tokenURL: tokenURL, logger: logger}
}

// AccessToken signs an assertion for cred and exchanges it for a bearer token scoped to scope.
func (p *JWTProvider) AccessToken(ctx context.Context, cred Credential, scope string) (_ string, err error) {
	start := time.Now()
	defer func() {
		metrics.ObserveUpstream(metrics.ServiceGoogleToken, err, time.Since(start))
	}()

	if cred.TokenURI != "" && cred.TokenURI != p.tokenURL {
		p.logger.Warn("ignoring credential token_uri",
			zap.String("client_email", cred.ClientEmail),
			zap.String("token_uri", cred.TokenURI),
		)
	}
	cfg := &jwt.Config{
		Email:        cred.ClientEmail,
		PrivateKey:   []byte(cred.PrivateKey),
		PrivateKeyID: cred.PrivateKeyID,
		Scopes:       []string{scope},
		TokenURL:     p.tokenURL,
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.client)
	tok, err := cfg.TokenSource(ctx).Token()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrAuthentication, err)
	}
	if tok == nil || tok.AccessToken == "" {
		return "", fmt.Errorf("%w: token endpoint returned no access token", ErrAuthentication)
	}
	p.logger.Debug("access token obtained", zap.String("client_email", cred.ClientEmail))
	return tok.AccessToken, nil
}
