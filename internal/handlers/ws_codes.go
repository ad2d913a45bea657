// internal/handlers/ws_codes.go
package handlers

// Custom WebSocket close codes used by the game stream.
const (
	BadSubprotocolError   = 3000 // Client connected with an unsupported subprotocol.
	InvalidAuthTokenError = 3001 // Auth token stopped being valid while connected.
	NotInGameError        = 3002 // The user is no longer seated in the game.
	GameFinishedCode      = 3003 // The game ended; the last state has been sent.
)
