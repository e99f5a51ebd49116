package google

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/custodia-labs/ragsync/internal/core/domain"
	"github.com/custodia-labs/ragsync/internal/core/ports/driven"
)

// DriveReadonlyScope is the only scope the connector needs.
const DriveReadonlyScope = drive.DriveReadonlyScope

// Credentials selects how the Drive client authenticates. The first
// non-empty option wins, in field order.
type Credentials struct {
	// Provider supplies access tokens from elsewhere in the process.
	Provider driven.TokenProvider

	// CredentialsFile is a service-account JSON key file.
	CredentialsFile string

	// ClientID, ClientSecret and RefreshToken form an installed-app grant.
	ClientID     string
	ClientSecret string
	RefreshToken string

	// AccessToken is a short-lived token used as is.
	AccessToken string
}

// ClientOptions returns the API client options for the credentials.
func (c Credentials) ClientOptions(ctx context.Context) ([]option.ClientOption, error) {
	switch {
	case c.Provider != nil:
		return []option.ClientOption{option.WithTokenSource(NewProviderTokenSource(ctx, c.Provider))}, nil
	case c.CredentialsFile != "":
		return []option.ClientOption{
			option.WithCredentialsFile(c.CredentialsFile),
			option.WithScopes(DriveReadonlyScope),
		}, nil
	case c.RefreshToken != "":
		if c.ClientID == "" || c.ClientSecret == "" {
			return nil, fmt.Errorf("%w: refresh token requires client id and secret", domain.ErrAuthRequired)
		}
		cfg := &oauth2.Config{
			ClientID:     c.ClientID,
			ClientSecret: c.ClientSecret,
			Endpoint:     googleoauth.Endpoint,
			Scopes:       []string{DriveReadonlyScope},
		}
		ts := cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: c.RefreshToken})
		return []option.ClientOption{option.WithTokenSource(ts)}, nil
	case c.AccessToken != "":
		ts := NewProviderTokenSource(ctx, StaticToken(c.AccessToken))
		return []option.ClientOption{option.WithTokenSource(ts)}, nil
	default:
		return nil, fmt.Errorf("%w: no google credentials configured", domain.ErrAuthRequired)
	}
}

// NewDriveService creates a Google Drive API service.
func NewDriveService(ctx context.Context, creds Credentials) (*drive.Service, error) {
	opts, err := creds.ClientOptions(ctx)
	if err != nil {
		return nil, err
	}
	svc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	return svc, nil
}
