// Package file provides file-based implementations of driven port interfaces.
// These adapters persist data to the local filesystem as TOML.
//
// Adapters:
//   - ConfigStore: user settings at ~/.ragsync/config.toml
//   - WatcherFile: one watcher's configuration and sync state
package file
