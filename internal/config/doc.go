// Package config loads and saves viewer configuration from JSON files.
// Reads go through gjson paths and writes through sjson, so unknown
// keys in a user's file survive a save untouched.
package config
