// SPDX-License-Identifier: MPL-2.0

// Package config loads lazymod settings with Viper, using CUE as the file
// format.
//
// Sources, lowest precedence first: built-in defaults, the config file, and
// LAZYMOD_* environment variables (LAZYMOD_LAZY_IMPORTS, LAZYMOD_SEARCH_PATHS,
// LAZYMOD_LOG_LEVEL, ...). The file is the one passed with --config, else
// lazymod.cue in the user config directory, else lazymod.cue in the working
// directory. Files are validated against the embedded #Config schema.
package config
