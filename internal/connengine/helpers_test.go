package connengine

import (
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
)

func TestTruncateReasonLeavesShortStringUntouched(t *testing.T) {
	assert.Equal(t, "short", truncateReason("short"))
}

func TestTruncateReasonTrimsFromTheEnd(t *testing.T) {
	s := strings.Repeat("a", maxCloseReasonBytes) + "overflow"
	got := truncateReason(s)
	assert.Len(t, got, maxCloseReasonBytes)
	assert.Equal(t, strings.Repeat("a", maxCloseReasonBytes), got)
}

func TestClosePayloadDefaultsToNormalClosure(t *testing.T) {
	payload := closePayload(0, "done")
	code, reason, err := decodeCloseMessage(payload)
	assert := assert.New(t)
	assert.NoError(err)
	assert.Equal(websocket.CloseNormalClosure, code)
	assert.Equal("done", reason)
}

func decodeCloseMessage(payload []byte) (int, string, error) {
	if len(payload) < 2 {
		return 0, "", assertErr{}
	}
	code := int(payload[0])<<8 | int(payload[1])
	return code, string(payload[2:]), nil
}
