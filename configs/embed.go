// Package configs provides the embedded configuration template for wikisearch.
//
// The template is embedded at build time so `wikisearch config init` works
// for source builds and binary releases alike.
//
// Configuration hierarchy (see internal/config Load):
//  1. Hardcoded defaults (internal/config NewConfig)
//  2. User config (~/.config/wikisearch/config.yaml)
//  3. Project config (.wikisearch.yaml, or --config)
//  4. Environment variables (WIKISEARCH_*)
//  5. Command flags
package configs

import _ "embed"

// ProjectConfigTemplate is the template written by `wikisearch config init`.
// Every key is set to its default, so the file validates unchanged.
//
//go:embed wikisearch.example.yaml
var ProjectConfigTemplate string
