// Package badger stores tracker state in an embedded BadgerDB.
//
// Each source is one key, syncstate/<source id>, holding the JSON-encoded
// state. It suits long-running watchers that want crash-safe state without
// a SQL database.
package badger
