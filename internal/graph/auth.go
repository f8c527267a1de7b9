package graph

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/oauth2/microsoft"
)

// graphScope requests every application permission granted to the app
// registration.
const graphScope = "https://graph.microsoft.com/.default"

// AppCredentials identifies an Entra ID app registration used for
// app-only (client credentials) access.
type AppCredentials struct {
	TenantID     string
	ClientID     string
	ClientSecret string

	// TokenURL overrides the tenant's token endpoint. Tests point it at an
	// httptest server.
	TokenURL string
}

// NewAppTokenSource returns a TokenSource that fetches and caches app-only
// tokens. httpClient (may be nil) is used for token requests.
//
// ctx must outlive the TokenSource; callers should pass a long-lived
// context such as context.Background().
func NewAppTokenSource(ctx context.Context, creds AppCredentials, httpClient *http.Client, logger *slog.Logger) TokenSource {
	if logger == nil {
		logger = slog.Default()
	}

	tokenURL := creds.TokenURL
	if tokenURL == "" {
		tokenURL = microsoft.AzureADEndpoint(creds.TenantID).TokenURL
	}

	cfg := &clientcredentials.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		TokenURL:     tokenURL,
		Scopes:       []string{graphScope},
		AuthStyle:    oauth2.AuthStyleInParams,
	}

	if httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)
	}

	return &tokenBridge{src: cfg.TokenSource(ctx), logger: logger}
}

// tokenBridge adapts oauth2.TokenSource to graph.TokenSource.
type tokenBridge struct {
	src    oauth2.TokenSource
	logger *slog.Logger
}

func (b *tokenBridge) Token() (string, error) {
	t, err := b.src.Token()
	if err != nil {
		b.logger.Warn("token acquisition failed", slog.String("error", err.Error()))
		return "", err
	}

	b.logger.Debug("token acquired",
		slog.Time("expiry", t.Expiry),
		slog.Bool("valid", t.Valid()),
	)

	return t.AccessToken, nil
}

// classifyTokenError wraps a token failure as a connection error. Rejected
// credentials are permanent; endpoint outages and transport failures are
// temporary.
func classifyTokenError(err error) error {
	temporary := true

	var re *oauth2.RetrieveError
	if errors.As(err, &re) && re.Response != nil {
		code := re.Response.StatusCode
		temporary = code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
	}

	return &ConnectionError{
		Op:        "obtaining token",
		Err:       err,
		Temporary: temporary,
	}
}
