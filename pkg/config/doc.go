// Package config resolves the server's runtime configuration from
// three layers, lowest precedence first: defaults, a traintastic.yaml
// file in the data directory, command-line flags. Environment
// variables prefixed TRAINTASTIC_ override the file but not flags
// explicitly set on the command line.
package config
