package mqtt

import "sync"

// Fake is an in-memory broker connecting both ends of the link. Frames
// sent with Transmit are handed synchronously to the handler subscribed
// for the peer, whose Reply becomes the answer to the next Receive.
type Fake struct {
	// TxStatus, if set, is returned by Transmit and nothing is delivered.
	TxStatus uint8

	mu       sync.Mutex
	Sent     [][]byte
	Replies  [][]byte
	handlers map[byte]Handler
	pending  map[byte][]byte
}

func NewFake() *Fake {
	return &Fake{
		handlers: make(map[byte]Handler),
		pending:  make(map[byte][]byte),
	}
}

func (f *Fake) Transmit(peer byte, buf []byte) uint8 {
	if f.TxStatus != 0 {
		return f.TxStatus
	}

	payload := append([]byte(nil), buf...)

	f.mu.Lock()
	f.Sent = append(f.Sent, payload)
	delete(f.pending, peer)
	h := f.handlers[peer]
	f.mu.Unlock()

	if h != nil {
		h(peer, payload)
	}
	return 0
}

func (f *Fake) Receive(peer byte, out []byte) uint8 {
	f.mu.Lock()
	defer f.mu.Unlock()

	reply, ok := f.pending[peer]
	if !ok {
		return StatusNoReply
	}
	delete(f.pending, peer)
	if len(reply) != len(out) {
		return StatusWrongSize
	}
	copy(out, reply)
	return 0
}

func (f *Fake) Subscribe(peer byte, h Handler) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[peer] = h
	return nil
}

func (f *Fake) Reply(peer byte, buf []byte) uint8 {
	f.mu.Lock()
	defer f.mu.Unlock()
	payload := append([]byte(nil), buf...)
	f.Replies = append(f.Replies, payload)
	f.pending[peer] = payload
	return 0
}
