package sync

import (
	"encoding/json"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// subscriber abstracts the two live-update transports (raw TCP lines and
// websocket frames) behind one write call.
type subscriber interface {
	send(payload []byte) error
	close()
}

type tcpSubscriber struct {
	conn net.Conn
}

func (s *tcpSubscriber) send(payload []byte) error {
	_ = s.conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
	_, err := s.conn.Write(payload)
	return err
}

func (s *tcpSubscriber) close() { _ = s.conn.Close() }

type wsSubscriber struct {
	conn *websocket.Conn
}

func (s *wsSubscriber) send(payload []byte) error {
	return s.conn.WriteMessage(websocket.TextMessage, payload)
}

func (s *wsSubscriber) close() { _ = s.conn.Close() }

// Hub fans metadata events out to every live subscriber. A subscriber whose
// write fails is dropped on the spot.
type Hub struct {
	mu   sync.Mutex
	subs map[subscriber]struct{}

	tcpCount int
	wsCount  int
}

type Stats struct {
	TCPClients int `json:"tcp_clients"`
	WSClients  int `json:"ws_clients"`
}

func NewHub() *Hub {
	return &Hub{subs: make(map[subscriber]struct{})}
}

func (h *Hub) AddTCP(conn net.Conn) *tcpSubscriber {
	sub := &tcpSubscriber{conn: conn}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.tcpCount++
	h.mu.Unlock()
	return sub
}

func (h *Hub) AddWS(conn *websocket.Conn) *wsSubscriber {
	sub := &wsSubscriber{conn: conn}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.wsCount++
	h.mu.Unlock()
	return sub
}

func (h *Hub) Remove(sub subscriber) {
	h.mu.Lock()
	h.detach(sub)
	h.mu.Unlock()
	sub.close()
}

// detach must run with h.mu held.
func (h *Hub) detach(sub subscriber) {
	if _, ok := h.subs[sub]; !ok {
		return
	}
	delete(h.subs, sub)
	switch sub.(type) {
	case *tcpSubscriber:
		h.tcpCount--
	case *wsSubscriber:
		h.wsCount--
	}
}

func (h *Hub) BroadcastJSON(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	b = append(b, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs {
		if err := sub.send(b); err != nil {
			h.detach(sub)
			sub.close()
		}
	}
}

func (h *Hub) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return Stats{TCPClients: h.tcpCount, WSClients: h.wsCount}
}
