package server

import "time"

// Server configuration constants
const (
	// Per-connection inbound websocket limit
	RateLimitMessages = 10
	RateLimitWindow   = time.Second

	// Upper bound on one broadcast write to a slow client
	WriteTimeout = 5 * time.Second

	// Catalog image previews are scaled to at most this height
	PreviewHeight = 311

	// History lookback when the request names none
	DefaultHistoryWindow = 5 * time.Minute
)

// Websocket message types
const (
	TypeMatch    = "match"
	TypeReset    = "reset"
	TypeResetAck = "reset_ack"
	TypeStats    = "stats"
	TypeError    = "error"
)
