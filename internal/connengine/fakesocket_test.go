package connengine

import (
	"errors"
	"time"
)

// fakeFrame is one canned ReadMessage result.
type fakeFrame struct {
	kind int
	data []byte
	err  error
}

// fakeSocket is a minimal Socket implementation driven entirely by a
// pre-loaded script of inbound frames, used to exercise RunReader without a
// real network connection.
type fakeSocket struct {
	in          chan fakeFrame
	written     chan writtenFrame
	pongHandler func(string) error
}

type writtenFrame struct {
	kind     int
	data     []byte
	control  bool
	deadline time.Time
}

func newFakeSocket() *fakeSocket {
	return &fakeSocket{
		in:      make(chan fakeFrame, 16),
		written: make(chan writtenFrame, 16),
	}
}

func (f *fakeSocket) push(kind int, data []byte) {
	f.in <- fakeFrame{kind: kind, data: data}
}

func (f *fakeSocket) pushErr(err error) {
	f.in <- fakeFrame{err: err}
}

func (f *fakeSocket) ReadMessage() (int, []byte, error) {
	frame, ok := <-f.in
	if !ok {
		return 0, nil, errors.New("fakeSocket: closed with no more scripted frames")
	}
	return frame.kind, frame.data, frame.err
}

func (f *fakeSocket) WriteMessage(messageType int, data []byte) error {
	f.written <- writtenFrame{kind: messageType, data: data}
	return nil
}

func (f *fakeSocket) WriteControl(messageType int, data []byte, deadline time.Time) error {
	f.written <- writtenFrame{kind: messageType, data: data, control: true, deadline: deadline}
	return nil
}

// SetPongHandler records h the way gorilla/websocket does, rather than
// invoking it: real Pong frames never reach ReadMessage, so tests that want
// to simulate one call the stored handler directly instead of f.push.
func (f *fakeSocket) SetPongHandler(h func(string) error) { f.pongHandler = h }

func (f *fakeSocket) Close() error { return nil }
