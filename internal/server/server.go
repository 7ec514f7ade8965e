// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package server exposes a session over HTTP and websockets.
//
// Clients connect to /ws and exchange EARTH_COMMAND envelopes:
//
//	{"type":"EARTH_COMMAND","command":"setProjection","params":["stereographic"]}
//
// Every applied command is broadcast to all connected clients; a render
// command is followed by the encoded PNG as a binary message. The same
// commands are accepted by POST /command/{command} with a JSON array of
// params as the body. GET /frame.png renders the current state and
// GET /status reports it.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gogpu/earth"
	"github.com/gogpu/earth/internal/parallel"
	"github.com/gogpu/earth/internal/session"
	"github.com/gogpu/earth/projection"
)

// CommandType is the envelope type of control messages.
const CommandType = "EARTH_COMMAND"

// Command names.
const (
	SetProjection  = "setProjection"
	SetOrientation = "setOrientation"
	SetOverlay     = "setOverlay"
	SetDate        = "setDate"
	Render         = "render"
)

// ErrUnknownCommand is returned for commands the server does not handle.
var ErrUnknownCommand = errors.New("server: unknown command")

// Message is a control envelope.
type Message struct {
	Type      string            `json:"type"`
	Command   string            `json:"command"`
	Params    []json.RawMessage `json:"params"`
	Timestamp string            `json:"timestamp,omitempty"`
}

// Result is the reply to a command.
type Result struct {
	Status          string         `json:"status"`
	Command         string         `json:"command"`
	ClientsNotified int            `json:"clients_notified"`
	Error           string         `json:"error,omitempty"`
	State           session.Status `json:"state"`

	err error
}

// Server serves one session to any number of clients.
type Server struct {
	session  *session.Session
	logger   *slog.Logger
	upgrader websocket.Upgrader

	clientsMu sync.RWMutex
	clients   map[*websocket.Conn]*sync.Mutex // per-connection write lock
	fanout    *parallel.Pool                  // broadcast writes

	renderMu sync.Mutex // serializes render plus encode
}

// New returns a server for s. A nil logger means earth.Logger().
func New(s *session.Session, logger *slog.Logger) *Server {
	if logger == nil {
		logger = earth.Logger()
	}
	return &Server{
		session: s,
		logger:  logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]*sync.Mutex),
		fanout:  parallel.NewPool(0),
	}
}

// Close disconnects every client and stops the broadcast workers. The
// session is left open.
func (s *Server) Close() {
	s.closeClients()
	s.fanout.Close()
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	mux.HandleFunc("POST /command/{command}", s.handleCommand)
	mux.HandleFunc("GET /frame.png", s.handleFrame)
	mux.HandleFunc("GET /status", s.handleStatus)
	return mux
}

// ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("control server listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.Close()
		return srv.Shutdown(shutdown)
	}
}

// Clients returns the number of connected websocket clients.
func (s *Server) Clients() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "err", err)
		return
	}
	defer func() {
		_ = conn.Close()
	}()

	connMu := &sync.Mutex{}
	s.clientsMu.Lock()
	s.clients[conn] = connMu
	n := len(s.clients)
	s.clientsMu.Unlock()
	s.logger.Info("client connected", "clients", n)
	defer func() {
		s.clientsMu.Lock()
		delete(s.clients, conn)
		n := len(s.clients)
		s.clientsMu.Unlock()
		s.logger.Info("client disconnected", "clients", n)
	}()

	s.send(conn, connMu, websocket.TextMessage, s.result("status", nil, 0))

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("websocket read", "err", err)
			}
			return
		}
		if msg.Type != CommandType {
			s.logger.Debug("ignoring message", "type", msg.Type)
			continue
		}
		res := s.dispatch(r.Context(), msg)
		if res.Error != "" {
			// Failed commands are answered to the sender only.
			s.send(conn, connMu, websocket.TextMessage, res)
		}
	}
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	msg := Message{Type: CommandType, Command: r.PathValue("command")}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&msg.Params); err != nil && !errors.Is(err, io.EOF) {
			writeJSON(w, http.StatusBadRequest, s.result(msg.Command, fmt.Errorf("server: params: %w", err), 0))
			return
		}
	}
	res := s.dispatch(r.Context(), msg)
	status := http.StatusOK
	switch {
	case errors.Is(res.err, ErrUnknownCommand):
		status = http.StatusNotFound
	case res.Error != "":
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, res)
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	png, err := s.renderPNG()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(png)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.result("status", nil, s.Clients()))
}

// dispatch applies msg to the session and broadcasts it when it succeeds.
func (s *Server) dispatch(ctx context.Context, msg Message) Result {
	err := s.apply(ctx, msg)
	if err != nil {
		s.logger.Warn("command failed", "command", msg.Command, "err", err)
		return s.result(msg.Command, err, 0)
	}
	msg.Timestamp = time.Now().UTC().Format(time.RFC3339)
	n := s.broadcast(websocket.TextMessage, msg)
	if msg.Command == Render {
		png, err := s.renderPNG()
		if err != nil {
			return s.result(msg.Command, err, n)
		}
		s.broadcast(websocket.BinaryMessage, png)
	}
	return s.result(msg.Command, nil, n)
}

func (s *Server) apply(ctx context.Context, msg Message) error {
	switch msg.Command {
	case SetProjection:
		name, err := stringParam(msg.Params, 0)
		if err != nil {
			return err
		}
		f, err := projection.ParseFamily(name)
		if err != nil {
			return err
		}
		return s.session.SetProjection(f)
	case SetOrientation:
		o, err := stringParam(msg.Params, 0)
		if err != nil {
			return err
		}
		return s.session.SetOrientation(o)
	case SetOverlay:
		key, err := optionalString(msg.Params, 0)
		if err != nil {
			return err
		}
		scale, err := optionalString(msg.Params, 1)
		if err != nil {
			return err
		}
		return s.session.SetOverlay(ctx, key, scale)
	case SetDate:
		d, err := optionalString(msg.Params, 0)
		if err != nil {
			return err
		}
		var t time.Time
		if d != "" {
			if t, err = time.Parse(time.RFC3339, d); err != nil {
				return fmt.Errorf("server: date: %w", err)
			}
		}
		return s.session.SetTerminator(t)
	case Render:
		return nil
	default:
		return fmt.Errorf("%w %q", ErrUnknownCommand, msg.Command)
	}
}

func (s *Server) renderPNG() ([]byte, error) {
	s.renderMu.Lock()
	defer s.renderMu.Unlock()
	frame, err := s.session.Render()
	if frame == nil {
		return nil, err
	}
	if err != nil {
		s.logger.Warn("serving previous frame", "err", err)
	}
	var buf bytes.Buffer
	if err := frame.WritePNG(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// broadcast writes v to every client concurrently and drops the ones that
// fail. It returns the number of clients reached.
func (s *Server) broadcast(kind int, v any) int {
	var (
		failedMu sync.Mutex
		failed   []*websocket.Conn
	)
	s.clientsMu.RLock()
	work := make([]func(), 0, len(s.clients))
	for conn, mu := range s.clients {
		work = append(work, func() {
			if !s.send(conn, mu, kind, v) {
				failedMu.Lock()
				failed = append(failed, conn)
				failedMu.Unlock()
			}
		})
	}
	s.fanout.Run(work)
	n := len(s.clients) - len(failed)
	s.clientsMu.RUnlock()

	if len(failed) > 0 {
		s.clientsMu.Lock()
		for _, conn := range failed {
			delete(s.clients, conn)
			_ = conn.Close()
		}
		s.clientsMu.Unlock()
	}
	return n
}

// send writes one message under the connection's write lock. Binary
// messages carry raw bytes, text messages JSON.
func (s *Server) send(conn *websocket.Conn, mu *sync.Mutex, kind int, v any) bool {
	mu.Lock()
	defer mu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	var err error
	if b, ok := v.([]byte); ok && kind == websocket.BinaryMessage {
		err = conn.WriteMessage(kind, b)
	} else {
		err = conn.WriteJSON(v)
	}
	if err != nil {
		s.logger.Debug("websocket write", "err", err)
		return false
	}
	return true
}

func (s *Server) closeClients() {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	for conn, mu := range s.clients {
		mu.Lock()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutdown"), time.Now().Add(time.Second))
		mu.Unlock()
		_ = conn.Close()
		delete(s.clients, conn)
	}
}

func (s *Server) result(command string, err error, notified int) Result {
	res := Result{Status: "ok", Command: command, ClientsNotified: notified, State: s.session.Status()}
	if err != nil {
		res.Status = "error"
		res.Error = err.Error()
		res.err = err
	}
	return res
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
