// Package connectors provides implementations of the Connector interface
// for the watched document sources: a local directory and a Google Drive
// folder. Each connector lists changed items, reports deletions, and
// fetches file bytes. It never extracts text itself.
package connectors
