package connengine

import (
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 5 * time.Second

// maxCloseReasonBytes is the WebSocket close-frame reason size limit: the
// control frame payload is capped at 125 bytes, 2 of which are the status
// code, leaving 123 for the reason string (§4.4 "Tie-break" policies).
const maxCloseReasonBytes = 123

func closePayload(code int, reason string) []byte {
	if code == 0 {
		code = websocket.CloseNormalClosure
	}
	return websocket.FormatCloseMessage(code, reason)
}

// truncateReason trims s from the end until it fits within
// maxCloseReasonBytes, matching the WebSocket close-frame limit.
func truncateReason(s string) string {
	b := []byte(s)
	if len(b) <= maxCloseReasonBytes {
		return s
	}
	return string(b[:maxCloseReasonBytes])
}
