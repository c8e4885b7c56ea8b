// Package env reads raw environment values in the few spots that run before
// the typed config is loaded, such as logger bootstrap.
package env

import "os"

// Get returns the variable's value, or fallback when it is unset or empty.
func Get(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
