// Package history keeps a local log of delivered notifications in a BoltDB
// file, so past deliveries can be listed after the desktop popups are gone.
package history
