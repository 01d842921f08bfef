package config

import "fmt"

// AppConfig holds the HTTP listener configuration
type AppConfig struct {
	Host    string `env:"GALLERY_HOST" env-default:"0.0.0.0"`
	Port    uint16 `env:"GALLERY_PORT" env-default:"4000"`
	BaseUrl string `env:"GALLERY_BASE_URL" env-default:"http://localhost:4000"`
}

// Addr returns the host:port listen address
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}
