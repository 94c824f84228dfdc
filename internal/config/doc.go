// Package config loads service-express settings from defaults, an optional
// YAML config file, and SERVICE_EXPRESS_* environment variables.
package config
