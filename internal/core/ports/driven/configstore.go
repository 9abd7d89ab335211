package driven

// ConfigStore is a flat key/value view of the configuration file.
// Keys use dot notation ("embedding.provider"). Values keep whatever type
// the backing store decoded; SettingsService coerces them.
type ConfigStore interface {
	// Get returns the raw value for key and whether it is set.
	Get(key string) (any, bool)

	// Set stores a value and persists it immediately.
	Set(key string, value any) error

	// Path describes where the configuration lives.
	Path() string
}
