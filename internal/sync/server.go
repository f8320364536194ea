package sync

import (
	"bufio"
	"log"
	"net"
)

// Server accepts raw TCP subscribers: each gets newline-delimited JSON
// events until its connection drops.
type Server struct {
	Addr string
	Hub  *Hub

	ln net.Listener
}

func NewServer(addr string, hub *Hub) *Server {
	return &Server{Addr: addr, Hub: hub}
}

func (s *Server) Run() error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	s.ln = ln
	log.Printf("[tcp-sync] listening on %s", s.Addr)

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Temporary() {
				continue
			}
			return err
		}

		sub := s.Hub.AddTCP(conn)
		log.Printf("[tcp-sync] subscriber connected: %s", conn.RemoteAddr())

		go func(c net.Conn) {
			defer func() {
				s.Hub.Remove(sub)
				log.Printf("[tcp-sync] subscriber disconnected: %s", c.RemoteAddr())
			}()

			// Consume and discard; subscribers are push-only.
			sc := bufio.NewScanner(c)
			for sc.Scan() {
			}
		}(conn)
	}
}

func (s *Server) Close() error {
	if s.ln == nil {
		return nil
	}
	return s.ln.Close()
}
