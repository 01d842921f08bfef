// Package config holds environment-driven configuration structs shared by
// the service binaries. Structs carry cleanenv env tags and convert into the
// value types the individual packages consume.
package config
