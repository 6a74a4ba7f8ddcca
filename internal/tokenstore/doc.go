// Package tokenstore persists the GitHub access token obtained through the
// device flow and watches the token file for changes made by other
// ghnotifier processes.
package tokenstore
