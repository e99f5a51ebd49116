package driving

import "github.com/custodia-labs/ragsync/internal/core/domain"

// SettingsService reads and updates the user tunables.
type SettingsService interface {
	// Get returns the settings with defaults applied.
	Get() domain.AppSettings

	// Set parses raw for key and persists it. Unknown keys and values of
	// the wrong type return domain.ErrInvalidInput.
	Set(key, raw string) error

	// Values returns every known key with its effective value.
	Values() map[string]string

	// Keys returns the known keys in sorted order.
	Keys() []string
}
