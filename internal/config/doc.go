// Package config defines the watch settings and provides helpers to load,
// validate and save them in YAML format.
//
// Settings live in ~/.config/diffbell/config.yaml by default. A missing file
// is not an error: the defaults are used instead.
package config
