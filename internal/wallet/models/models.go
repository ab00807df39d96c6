// Package models holds the wallet connection types shared with the mint flow.
package models

import "time"

// Connection is a read-only snapshot of the process-wide wallet connection.
type Connection struct {
	Address   string
	Connected bool
}

// Usable reports whether the connection can sign.
func (c Connection) Usable() bool {
	return c.Connected && c.Address != ""
}

// Disconnected is the zero connection.
var Disconnected = Connection{}

// Authorization remembers an address the user approved, so the connection can
// be restored on the next start without prompting.
type Authorization struct {
	Address      string    `json:"address"`
	AuthorizedAt time.Time `json:"authorized_at"`
}
