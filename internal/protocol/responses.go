package protocol

import "encoding/json"

// fallbackErrorJSON is substituted when an outbound DTO fails to marshal,
// which should never happen for the fixed shapes in this package.
const fallbackErrorJSON = `{"success":false,"message":"internal serialization error"}`

// Register is the first frame sent on every new connection.
type Register struct {
	Success   bool   `json:"success"`
	Type      EventType `json:"type"`
	ConnID    string `json:"connId"`
	Timestamp int64  `json:"timestamp"`
}

func NewRegister(peerID string, now int64) Register {
	return Register{Success: true, Type: TypeRegister, ConnID: peerID, Timestamp: now}
}

// ErrorFrame is the wire shape of every routing/parse error sent to an
// originator. It is always local: it is never forwarded to a counterparty.
type ErrorFrame struct {
	Success   bool      `json:"success"`
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Timestamp int64     `json:"timestamp"`
}

func NewErrorFrame(code ErrorCode, message, details string, now int64) ErrorFrame {
	return ErrorFrame{Success: false, Code: code, Message: message, Details: details, Timestamp: now}
}

// PeerDisconnected notifies the surviving peer of the other side's teardown.
type PeerDisconnected struct {
	Success   bool      `json:"success"`
	Type      EventType `json:"type"`
	PeerID    string    `json:"peerId"`
	Role      string    `json:"role"`
	Timestamp int64     `json:"timestamp"`
}

func NewPeerDisconnected(peerID, role string, now int64) PeerDisconnected {
	return PeerDisconnected{Success: true, Type: TypePeerDisconnected, PeerID: peerID, Role: role, Timestamp: now}
}

// RecipientReadyResponse echoes a successful pairing back to the sender.
type RecipientReadyResponse struct {
	Success     bool      `json:"success"`
	Type        EventType `json:"type"`
	SenderID    string    `json:"senderId"`
	RecipientID string    `json:"recipientId"`
	Timestamp   int64     `json:"timestamp"`
}

type CancelRecipientReadyResponse struct {
	Success     bool      `json:"success"`
	Type        EventType `json:"type"`
	SenderID    string    `json:"senderId"`
	RecipientID string    `json:"recipientId"`
	Timestamp   int64     `json:"timestamp"`
}

type CancelSenderReadyResponse struct {
	Success     bool      `json:"success"`
	Type        EventType `json:"type"`
	SenderID    string    `json:"senderId"`
	RecipientID string    `json:"recipientId"`
	Timestamp   int64     `json:"timestamp"`
}

type FileChunkResponse struct {
	Success                bool      `json:"success"`
	Type                   EventType `json:"type"`
	SenderID               string    `json:"senderId"`
	FileName               string    `json:"fileName"`
	TotalSize              uint64    `json:"totalSize"`
	TotalChunks            uint32    `json:"totalChunks"`
	UploadedSize           uint64    `json:"uploadedSize"`
	ChunkIndex             uint32    `json:"chunkIndex"`
	ChunkDataSize          uint32    `json:"chunkDataSize"`
	SenderTransferProgress uint8     `json:"senderTransferProgress"`
	Timestamp              int64     `json:"timestamp"`
}

type FileTransferAckResponse struct {
	Success                  bool      `json:"success"`
	Type                     EventType `json:"type"`
	RecipientID              string    `json:"recipientId"`
	SenderID                 string    `json:"senderId"`
	Status                   string    `json:"status"`
	FileName                 string    `json:"fileName"`
	TotalChunks              uint32    `json:"totalChunks"`
	UploadedSize             uint64    `json:"uploadedSize"`
	ChunkIndex               uint32    `json:"chunkIndex"`
	ChunkDataSize            uint32    `json:"chunkDataSize"`
	RecipientTransferProgress uint8    `json:"recipientTransferProgress"`
	Timestamp                int64     `json:"timestamp"`
}

type FileEndResponse struct {
	Success        bool      `json:"success"`
	Type           EventType `json:"type"`
	SenderID       string    `json:"senderId"`
	FileName       string    `json:"fileName"`
	TotalSize      uint64    `json:"totalSize"`
	TotalChunks    uint32    `json:"totalChunks"`
	UploadedSize   uint64    `json:"uploadedSize"`
	LastChunkIndex uint32    `json:"lastChunkIndex"`
	Timestamp      int64     `json:"timestamp"`
}

type CancelSenderTransferResponse struct {
	Success     bool      `json:"success"`
	Type        EventType `json:"type"`
	SenderID    string    `json:"senderId"`
	RecipientID string    `json:"recipientId"`
	Timestamp   int64     `json:"timestamp"`
}

type CancelRecipientTransferResponse struct {
	Success     bool      `json:"success"`
	Type        EventType `json:"type"`
	SenderID    string    `json:"senderId"`
	RecipientID string    `json:"recipientId"`
	Timestamp   int64     `json:"timestamp"`
}

type SenderAckResponse struct {
	Success     bool      `json:"success"`
	Type        EventType `json:"type"`
	RequestType string    `json:"requestType"`
	RecipientID string    `json:"recipientId"`
	SenderID    string    `json:"senderId"`
	Status      string    `json:"status"`
	Message     string    `json:"message,omitempty"`
	Timestamp   int64     `json:"timestamp"`
}

type RestartTransferResponse struct {
	Success     bool      `json:"success"`
	Type        EventType `json:"type"`
	SenderID    string    `json:"senderId"`
	RecipientID string    `json:"recipientId"`
	Timestamp   int64     `json:"timestamp"`
}

// Marshal encodes any outbound DTO, substituting the documented fallback
// payload on the (should-never-happen) failure case rather than dropping
// the frame silently.
func Marshal(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		return []byte(fallbackErrorJSON)
	}
	return b
}
