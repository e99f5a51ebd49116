package google

import (
	"context"

	"golang.org/x/oauth2"

	"github.com/custodia-labs/ragsync/internal/core/ports/driven"
)

// TokenSourceAdapter adapts a driven.TokenProvider to oauth2.TokenSource.
type TokenSourceAdapter struct {
	provider driven.TokenProvider
	ctx      context.Context
}

// NewProviderTokenSource creates an oauth2.TokenSource from a TokenProvider.
func NewProviderTokenSource(ctx context.Context, provider driven.TokenProvider) oauth2.TokenSource {
	return &TokenSourceAdapter{
		provider: provider,
		ctx:      ctx,
	}
}

// Token implements oauth2.TokenSource.
func (t *TokenSourceAdapter) Token() (*oauth2.Token, error) {
	accessToken, err := t.provider.GetToken(t.ctx)
	if err != nil {
		return nil, err
	}

	return &oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}, nil
}

// Ensure StaticToken implements the interface.
var _ driven.TokenProvider = StaticToken("")

// StaticToken is a TokenProvider for a pre-issued access token.
// It is never refreshed.
type StaticToken string

// GetToken returns the token.
func (s StaticToken) GetToken(context.Context) (string, error) {
	if s == "" {
		return "", ErrUnauthorized
	}
	return string(s), nil
}

// IsAuthenticated reports whether a token is set.
func (s StaticToken) IsAuthenticated() bool {
	return s != ""
}
