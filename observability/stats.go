// Package observability collects cheap process-local counters for the
// monitor endpoint. None of it is on any correctness path.
package observability

import "sync/atomic"

type Stats struct {
	connectionsOpened atomic.Uint64
	connectionsClosed atomic.Uint64
	handshakesFailed  atomic.Uint64
	messagesRelayed   atomic.Uint64
	sendFailures      atomic.Uint64
}

func NewStats() *Stats { return &Stats{} }

func (s *Stats) ConnectionOpened() { s.connectionsOpened.Add(1) }
func (s *Stats) ConnectionClosed() { s.connectionsClosed.Add(1) }
func (s *Stats) HandshakeFailed()  { s.handshakesFailed.Add(1) }
func (s *Stats) MessageRelayed()   { s.messagesRelayed.Add(1) }
func (s *Stats) SendFailure()      { s.sendFailures.Add(1) }

type Snapshot struct {
	ConnectionsOpened uint64 `json:"connections_opened"`
	ConnectionsClosed uint64 `json:"connections_closed"`
	HandshakesFailed  uint64 `json:"handshakes_failed"`
	MessagesRelayed   uint64 `json:"messages_relayed"`
	SendFailures      uint64 `json:"send_failures"`
}

func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		ConnectionsOpened: s.connectionsOpened.Load(),
		ConnectionsClosed: s.connectionsClosed.Load(),
		HandshakesFailed:  s.handshakesFailed.Load(),
		MessagesRelayed:   s.messagesRelayed.Load(),
		SendFailures:      s.sendFailures.Load(),
	}
}
