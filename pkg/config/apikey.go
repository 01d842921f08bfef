package config

// ApiKeyConfig bounds API key lifetimes. Zero or negative disables
// expiration, so issued keys never expire.
type ApiKeyConfig struct {
	ExpirationInDays int `env:"API_KEY_EXPIRATION_DAYS" env-default:"365"`
}
