// Package logging configures log/slog for the wikisearch CLI.
//
// By default records go to stderr as text at the configured level. With
// --debug, JSON records are also written to ~/.wikisearch/logs/wikisearch.log,
// rotated by size.
package logging
