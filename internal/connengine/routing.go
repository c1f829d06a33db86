package connengine

import (
	"context"

	"github.com/dannyzb/filerelay/internal/metrics"
	"github.com/dannyzb/filerelay/internal/protocol"
	"github.com/dannyzb/filerelay/internal/queue"
	"github.com/dannyzb/filerelay/internal/relaystate"
)

// dispatch executes the routing state machine for one decoded inbound
// event, per the table in SPEC_FULL.md §4.4. Every branch resolves ids with
// self-defaulting, looks up the relevant pairing or counterparty queue,
// applies the event's effect, and on any lookup miss enqueues the
// appropriate error to the originator without mutating state.
func (c *Conn) dispatch(ctx context.Context, ev protocol.Event) {
	switch e := ev.(type) {
	case protocol.FileMeta:
		c.handleFileMeta(e)
	case protocol.RecipientReady:
		c.handleRecipientReady(ctx, e)
	case protocol.CancelRecipientReady:
		c.handleCancelRecipientReady(ctx, e)
	case protocol.CancelSenderReady:
		c.handleCancelSenderReady(ctx, e)
	case protocol.FileChunk:
		c.handleFileChunk(ctx, e)
	case protocol.FileTransferAck:
		c.handleFileTransferAck(ctx, e)
	case protocol.FileEnd:
		c.handleFileEnd(ctx, e)
	case protocol.CancelSenderTransfer:
		c.handleCancelSenderTransfer(ctx, e)
	case protocol.CancelRecipientTransfer:
		c.handleCancelRecipientTransfer(ctx, e)
	case protocol.SenderAck:
		c.handleSenderAck(ctx, e)
	case protocol.RestartTransfer:
		c.handleRestartTransfer(ctx)
	case protocol.UserClose:
		c.handleUserClose(ctx, e)
	case protocol.Terminate:
		c.RequestStop()
	case protocol.Unknown:
		c.sendLocalError(ctx, protocol.ErrUnsupportedWsMessageText, "unrecognised event type", string(e.Tag))
	}
}

func (c *Conn) handleFileMeta(e protocol.FileMeta) {
	sender := c.self(e.SenderID)
	c.State.PutMetadata(sender, relaystate.FileMetadata{
		Name:     e.Name,
		Size:     e.Size,
		MimeType: e.MimeType,
	})
}

func (c *Conn) handleRecipientReady(ctx context.Context, e protocol.RecipientReady) {
	recipient := c.self(e.RecipientID)
	sender := e.SenderID

	if _, paired := c.State.RecipientOf(sender); paired {
		c.sendLocalError(ctx, protocol.ErrSenderAlreadyConnected,
			"sender already has an active pairing", "")
		return
	}
	if !c.State.Connected(sender) {
		c.sendLocalError(ctx, protocol.ErrSenderDisconnected, "sender is not connected", "")
		return
	}

	c.State.Pair(sender, recipient)
	metrics.ActivePairings.Inc()
	resp := protocol.RecipientReadyResponse{
		Success: true, Type: protocol.TypeRecipientReady,
		SenderID: sender, RecipientID: recipient, Timestamp: c.nowUnix(),
	}
	c.enqueueTo(ctx, sender, queue.Frame{Kind: queue.Text, Data: protocol.Marshal(resp)})
}

func (c *Conn) handleCancelRecipientReady(ctx context.Context, e protocol.CancelRecipientReady) {
	recipient := c.self(e.RecipientID)
	sender := e.SenderID

	paired, ok := c.State.RecipientOf(sender)
	if !ok {
		c.sendLocalError(ctx, protocol.ErrActiveConnectionNotFound, "no active pairing for sender", "")
		return
	}
	if paired != recipient {
		c.sendLocalError(ctx, protocol.ErrRecipientMismatch, "recipient does not match active pairing", "")
		return
	}
	if !c.State.Connected(sender) {
		c.sendLocalError(ctx, protocol.ErrSenderDisconnected, "sender is not connected", "")
		return
	}

	c.State.Unpair(sender)
	metrics.ActivePairings.Dec()
	resp := protocol.CancelRecipientReadyResponse{
		Success: true, Type: protocol.TypeCancelRecipientReady,
		SenderID: sender, RecipientID: recipient, Timestamp: c.nowUnix(),
	}
	c.enqueueTo(ctx, sender, queue.Frame{Kind: queue.Text, Data: protocol.Marshal(resp)})
}

func (c *Conn) handleCancelSenderReady(ctx context.Context, e protocol.CancelSenderReady) {
	sender := c.self(e.SenderID)

	recipient, ok := c.State.RecipientOf(sender)
	if !ok {
		c.sendLocalError(ctx, protocol.ErrActiveConnectionNotFound, "no active pairing for sender", "")
		return
	}
	if !c.State.Connected(recipient) {
		c.sendLocalError(ctx, protocol.ErrRecipientDisconnected, "recipient is not connected", "")
		return
	}

	c.State.Unpair(sender)
	metrics.ActivePairings.Dec()
	resp := protocol.CancelSenderReadyResponse{
		Success: true, Type: protocol.TypeCancelSenderReady,
		SenderID: sender, RecipientID: recipient, Timestamp: c.nowUnix(),
	}
	c.enqueueTo(ctx, recipient, queue.Frame{Kind: queue.Text, Data: protocol.Marshal(resp)})
}

func (c *Conn) handleFileChunk(ctx context.Context, e protocol.FileChunk) {
	sender := c.self(e.SenderID)

	recipient, ok := c.State.RecipientOf(sender)
	if !ok {
		c.sendLocalError(ctx, protocol.ErrActiveConnectionNotFound, "no active pairing for sender", "")
		return
	}
	resp := protocol.FileChunkResponse{
		Success: true, Type: protocol.TypeFileChunk,
		SenderID: sender, FileName: e.FileName, TotalSize: e.TotalSize,
		TotalChunks: e.TotalChunks, UploadedSize: e.UploadedSize,
		ChunkIndex: e.ChunkIndex, ChunkDataSize: e.ChunkDataSize,
		SenderTransferProgress: e.SenderTransferProgress, Timestamp: c.nowUnix(),
	}
	if !c.enqueueTo(ctx, recipient, queue.Frame{Kind: queue.Text, Data: protocol.Marshal(resp)}) {
		c.sendLocalError(ctx, protocol.ErrRecipientDisconnected, "recipient is not connected", "")
	}
}

func (c *Conn) handleFileTransferAck(ctx context.Context, e protocol.FileTransferAck) {
	recipient := c.self(e.RecipientID)
	resp := protocol.FileTransferAckResponse{
		Success: true, Type: protocol.TypeFileTransferAck,
		RecipientID: recipient, SenderID: e.SenderID, Status: e.Status,
		FileName: e.FileName, TotalChunks: e.TotalChunks, UploadedSize: e.UploadedSize,
		ChunkIndex: e.ChunkIndex, ChunkDataSize: e.ChunkDataSize,
		RecipientTransferProgress: e.RecipientTransferProgress, Timestamp: c.nowUnix(),
	}
	if !c.enqueueTo(ctx, e.SenderID, queue.Frame{Kind: queue.Text, Data: protocol.Marshal(resp)}) {
		c.sendLocalError(ctx, protocol.ErrSenderDisconnected, "sender is not connected", "")
	}
}

func (c *Conn) handleFileEnd(ctx context.Context, e protocol.FileEnd) {
	sender := c.self(e.SenderID)

	recipient, ok := c.State.RecipientOf(sender)
	if !ok {
		c.sendLocalError(ctx, protocol.ErrActiveConnectionNotFound, "no active pairing for sender", "")
		return
	}
	resp := protocol.FileEndResponse{
		Success: true, Type: protocol.TypeFileEnd,
		SenderID: sender, FileName: e.FileName, TotalSize: e.TotalSize,
		TotalChunks: e.TotalChunks, UploadedSize: e.UploadedSize,
		LastChunkIndex: e.LastChunkIndex, Timestamp: c.nowUnix(),
	}
	if !c.enqueueTo(ctx, recipient, queue.Frame{Kind: queue.Text, Data: protocol.Marshal(resp)}) {
		c.sendLocalError(ctx, protocol.ErrRecipientDisconnected, "recipient is not connected", "")
	}
}

func (c *Conn) handleCancelSenderTransfer(ctx context.Context, e protocol.CancelSenderTransfer) {
	sender := c.self(e.SenderID)

	recipient, ok := c.State.RecipientOf(sender)
	if !ok {
		c.sendLocalError(ctx, protocol.ErrActiveConnectionNotFound, "no active pairing for sender", "")
		return
	}
	resp := protocol.CancelSenderTransferResponse{
		Success: true, Type: protocol.TypeCancelSenderTransfer,
		SenderID: sender, RecipientID: recipient, Timestamp: c.nowUnix(),
	}
	if !c.enqueueTo(ctx, recipient, queue.Frame{Kind: queue.Text, Data: protocol.Marshal(resp)}) {
		c.sendLocalError(ctx, protocol.ErrRecipientDisconnected, "recipient is not connected", "")
	}
}

func (c *Conn) handleCancelRecipientTransfer(ctx context.Context, e protocol.CancelRecipientTransfer) {
	recipient := c.self(e.RecipientID)
	sender := e.SenderID

	paired, ok := c.State.RecipientOf(sender)
	if !ok {
		c.sendLocalError(ctx, protocol.ErrActiveConnectionNotFound, "no active pairing for sender", "")
		return
	}
	if paired != recipient {
		c.sendLocalError(ctx, protocol.ErrRecipientMismatch, "recipient does not match active pairing", "")
		return
	}
	// Soft signal only: the pairing survives. Dissolving it is left to a
	// subsequent cancelSenderReady / cancelRecipientReady, see SPEC_FULL.md §4.4.
	resp := protocol.CancelRecipientTransferResponse{
		Success: true, Type: protocol.TypeCancelRecipientTransfer,
		SenderID: sender, RecipientID: recipient, Timestamp: c.nowUnix(),
	}
	if !c.enqueueTo(ctx, sender, queue.Frame{Kind: queue.Text, Data: protocol.Marshal(resp)}) {
		c.sendLocalError(ctx, protocol.ErrSenderDisconnected, "sender is not connected", "")
	}
}

func (c *Conn) handleSenderAck(ctx context.Context, e protocol.SenderAck) {
	sender := c.self(e.SenderID)
	message := ""
	if e.Message != nil {
		message = *e.Message
	}
	resp := protocol.SenderAckResponse{
		Success: true, Type: protocol.TypeSenderAck,
		RequestType: e.RequestType, RecipientID: e.RecipientID, SenderID: sender,
		Status: e.Status, Message: message, Timestamp: c.nowUnix(),
	}
	if !c.enqueueTo(ctx, e.RecipientID, queue.Frame{Kind: queue.Text, Data: protocol.Marshal(resp)}) {
		c.sendLocalError(ctx, protocol.ErrRecipientDisconnected, "recipient is not connected", "")
	}
}

func (c *Conn) handleRestartTransfer(ctx context.Context) {
	sender := c.PeerID

	recipient, ok := c.State.RecipientOf(sender)
	if !ok {
		c.sendLocalError(ctx, protocol.ErrActiveConnectionNotFound, "no active pairing for sender", "")
		return
	}
	resp := protocol.RestartTransferResponse{
		Success: true, Type: protocol.TypeRestartTransfer,
		SenderID: sender, RecipientID: recipient, Timestamp: c.nowUnix(),
	}
	if !c.enqueueTo(ctx, recipient, queue.Frame{Kind: queue.Text, Data: protocol.Marshal(resp)}) {
		c.sendLocalError(ctx, protocol.ErrRecipientDisconnected, "recipient is not connected", "")
	}
}

func (c *Conn) handleUserClose(ctx context.Context, e protocol.UserClose) {
	id := c.self(e.UserID)
	reason := "Closed with no reason."
	if e.Reason != nil {
		reason = *e.Reason
	}
	text := "User `" + id + "` with role " + e.Role + ". " + reason
	c.enqueueLocal(ctx, queue.Frame{
		Kind:       queue.Close,
		CloseCode:  1000,
		CloseCause: truncateReason(text),
	})
}

