package driven

// ConfigStore provides persistent key-value configuration.
type ConfigStore interface {
	// Get retrieves a configuration value by key.
	Get(key string) (any, bool)

	// GetString retrieves a string value, or "" if absent.
	GetString(key string) string

	// GetInt retrieves an integer value, or 0 if absent.
	GetInt(key string) int

	// GetFloat retrieves a float value, or 0 if absent.
	GetFloat(key string) float64

	// GetBool retrieves a boolean value, or false if absent.
	GetBool(key string) bool

	// Set stores a configuration value.
	Set(key string, value any) error

	// Delete removes a configuration value.
	Delete(key string) error
}
