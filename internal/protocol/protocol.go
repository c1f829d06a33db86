// Package protocol defines the relay's wire format: the tagged-union JSON
// events a peer may send, the responses and error frames the relay sends
// back, and the codec between them.
package protocol

import (
	"encoding/json"
	"fmt"
)

// ErrorCode enumerates the wire-visible error tags a peer can receive in an
// error frame. Values are camelCase to match the JSON wire format exactly.
type ErrorCode string

const (
	ErrInvalidPayload           ErrorCode = "invalidPayload"
	ErrSenderAlreadyConnected   ErrorCode = "senderAlreadyConnected"
	ErrSenderDisconnected       ErrorCode = "senderDisconnected"
	ErrRecipientDisconnected    ErrorCode = "recipientDisconnected"
	ErrActiveConnectionNotFound ErrorCode = "activeConnectionNotFound"
	ErrRecipientMismatch        ErrorCode = "recipientMismatch"
	ErrUnsupportedWsMessageType ErrorCode = "unsupportedWsMessageType"
	ErrUnsupportedWsMessageText ErrorCode = "unsupportedWsMessageTextType"
)

// EventType is the "type" discriminator of an inbound text frame.
type EventType string

const (
	TypeRegister                EventType = "register"
	TypeFileMeta                EventType = "fileMeta"
	TypeRecipientReady          EventType = "recipientReady"
	TypeCancelRecipientReady    EventType = "cancelRecipientReady"
	TypeCancelSenderReady       EventType = "cancelSenderReady"
	TypeFileChunk               EventType = "fileChunk"
	TypeFileTransferAck         EventType = "fileTransferAck"
	TypeFileEnd                 EventType = "fileEnd"
	TypeCancelSenderTransfer    EventType = "cancelSenderTransfer"
	TypeCancelRecipientTransfer EventType = "cancelRecipientTransfer"
	TypeSenderAck               EventType = "senderAck"
	TypeRestartTransfer         EventType = "restartTransfer"
	TypeUserClose               EventType = "userClose"
	TypeTerminate               EventType = "terminate"
	TypePeerDisconnected        EventType = "peerDisconnected"
	typeUnknown                 EventType = "unknown"
)

// Event is the sum type of every inbound protocol message. Concrete variants
// below each implement it; Type reports the wire discriminator so routing
// can dispatch on a single switch.
type Event interface {
	Type() EventType
}

type envelope struct {
	Type EventType `json:"type"`
}

// FileMeta announces the file a sender is about to transfer.
type FileMeta struct {
	SenderID *string `json:"senderId,omitempty"`
	Name     string  `json:"name"`
	Size     uint64  `json:"size"`
	MimeType string  `json:"mimeType"`
}

func (FileMeta) Type() EventType { return TypeFileMeta }

// RecipientReady is a recipient's claim on a sender.
type RecipientReady struct {
	SenderID    string  `json:"senderId"`
	RecipientID *string `json:"recipientId,omitempty"`
}

func (RecipientReady) Type() EventType { return TypeRecipientReady }

// CancelRecipientReady dissolves a pairing from the recipient's side.
type CancelRecipientReady struct {
	SenderID    string  `json:"senderId"`
	RecipientID *string `json:"recipientId,omitempty"`
}

func (CancelRecipientReady) Type() EventType { return TypeCancelRecipientReady }

// CancelSenderReady dissolves a pairing from the sender's side.
type CancelSenderReady struct {
	SenderID *string `json:"senderId,omitempty"`
}

func (CancelSenderReady) Type() EventType { return TypeCancelSenderReady }

// FileChunk reports sender-side upload progress; the chunk payload itself
// travels as a separate binary frame.
type FileChunk struct {
	SenderID                *string `json:"senderId,omitempty"`
	FileName                string  `json:"fileName"`
	TotalSize                uint64  `json:"totalSize"`
	TotalChunks               uint32  `json:"totalChunks"`
	UploadedSize              uint64  `json:"uploadedSize"`
	ChunkIndex                uint32  `json:"chunkIndex"`
	ChunkDataSize             uint32  `json:"chunkDataSize"`
	SenderTransferProgress    uint8   `json:"senderTransferProgress"`
}

func (FileChunk) Type() EventType { return TypeFileChunk }

// FileTransferAck is the recipient's acknowledgement of a chunk.
type FileTransferAck struct {
	RecipientID               *string `json:"recipientId,omitempty"`
	SenderID                  string  `json:"senderId"`
	Status                    string  `json:"status"`
	FileName                  string  `json:"fileName"`
	TotalChunks                uint32  `json:"totalChunks"`
	UploadedSize               uint64  `json:"uploadedSize"`
	ChunkIndex                 uint32  `json:"chunkIndex"`
	ChunkDataSize               uint32  `json:"chunkDataSize"`
	RecipientTransferProgress   uint8   `json:"recipientTransferProgress"`
}

func (FileTransferAck) Type() EventType { return TypeFileTransferAck }

// FileEnd marks the sender's completion of a transfer.
type FileEnd struct {
	SenderID       *string `json:"senderId,omitempty"`
	FileName       string  `json:"fileName"`
	TotalSize      uint64  `json:"totalSize"`
	TotalChunks    uint32  `json:"totalChunks"`
	UploadedSize   uint64  `json:"uploadedSize"`
	LastChunkIndex uint32  `json:"lastChunkIndex"`
}

func (FileEnd) Type() EventType { return TypeFileEnd }

// CancelSenderTransfer is the sender aborting an in-flight transfer.
type CancelSenderTransfer struct {
	SenderID *string `json:"senderId,omitempty"`
}

func (CancelSenderTransfer) Type() EventType { return TypeCancelSenderTransfer }

// CancelRecipientTransfer is the recipient asking the sender to abort; it
// does not by itself dissolve the pairing (see routing.go).
type CancelRecipientTransfer struct {
	SenderID    string  `json:"senderId"`
	RecipientID *string `json:"recipientId,omitempty"`
}

func (CancelRecipientTransfer) Type() EventType { return TypeCancelRecipientTransfer }

// SenderAck is the sender's reply to a recipient request (e.g. a restart).
type SenderAck struct {
	RequestType string  `json:"requestType"`
	SenderID    *string `json:"senderId,omitempty"`
	RecipientID string  `json:"recipientId"`
	Status      string  `json:"status"`
	Message     *string `json:"message,omitempty"`
}

func (SenderAck) Type() EventType { return TypeSenderAck }

// RestartTransfer asks the recipient to restart the current transfer.
type RestartTransfer struct{}

func (RestartTransfer) Type() EventType { return TypeRestartTransfer }

// UserClose is a client-initiated close with a human-readable reason.
type UserClose struct {
	UserID *string `json:"userId,omitempty"`
	Role   string  `json:"role"`
	Reason *string `json:"reason,omitempty"`
}

func (UserClose) Type() EventType { return TypeUserClose }

// Terminate asks the reader loop to stop immediately.
type Terminate struct{}

func (Terminate) Type() EventType { return TypeTerminate }

// Unknown wraps any tag the relay doesn't recognise.
type Unknown struct {
	Tag EventType
}

func (u Unknown) Type() EventType { return typeUnknown }

// Decode parses a single inbound text frame into its typed Event. A JSON
// syntax error or an unrecognised shape for a known tag is returned as err;
// an unrecognised tag is not an error, it decodes to Unknown.
func Decode(data []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decoding envelope: %w", err)
	}
	switch env.Type {
	case TypeFileMeta:
		var v FileMeta
		return decodeInto(data, &v)
	case TypeRecipientReady:
		var v RecipientReady
		return decodeInto(data, &v)
	case TypeCancelRecipientReady:
		var v CancelRecipientReady
		return decodeInto(data, &v)
	case TypeCancelSenderReady:
		var v CancelSenderReady
		return decodeInto(data, &v)
	case TypeFileChunk:
		var v FileChunk
		return decodeInto(data, &v)
	case TypeFileTransferAck:
		var v FileTransferAck
		return decodeInto(data, &v)
	case TypeFileEnd:
		var v FileEnd
		return decodeInto(data, &v)
	case TypeCancelSenderTransfer:
		var v CancelSenderTransfer
		return decodeInto(data, &v)
	case TypeCancelRecipientTransfer:
		var v CancelRecipientTransfer
		return decodeInto(data, &v)
	case TypeSenderAck:
		var v SenderAck
		return decodeInto(data, &v)
	case TypeRestartTransfer:
		return RestartTransfer{}, nil
	case TypeUserClose:
		var v UserClose
		return decodeInto(data, &v)
	case TypeTerminate:
		return Terminate{}, nil
	default:
		return Unknown{Tag: env.Type}, nil
	}
}

func decodeInto[T Event](data []byte, v *T) (Event, error) {
	if err := json.Unmarshal(data, v); err != nil {
		return nil, fmt.Errorf("decoding %T: %w", *v, err)
	}
	return *v, nil
}
