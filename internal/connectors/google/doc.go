// Package google provides shared infrastructure for the Google Drive connector.
//
// It contains:
//   - credential handling that turns a service-account file, a refresh
//     token, or a static access token into an oauth2.TokenSource
//   - a TokenSource adapter for driven.TokenProvider
//   - classification of Google API errors (401, 403, 404, 429)
//   - rate limiting to respect Google API quotas
//
// # Usage
//
//	ts, err := google.NewTokenSource(ctx, creds)
//	svc, err := google.NewDriveService(ctx, ts)
//
// # OAuth2 Scopes
//
// The Drive connector only reads, so it requests
// https://www.googleapis.com/auth/drive.readonly. Obtaining the first
// refresh token through a consent screen is left to other tools.
package google
