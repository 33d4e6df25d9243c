// internal/handlers/ws_codes.go
package handlers

import "github.com/coder/websocket"

// Custom WebSocket close codes sent when the server gives up on a client.
const (
	StatusWriteFailed websocket.StatusCode = 3000 // an outbound write errored or timed out
	StatusPingTimeout websocket.StatusCode = 3001 // the client stopped answering pings
)
