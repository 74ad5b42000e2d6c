// Package server hosts the TLS-secured, length-framed request/response
// protocol for clients that bypass the web API: one framed JSON request
// per connection, one framed JSON response, then close.
package server

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/deguesju25paag-cyber/TradePro/internal/auth"
	"github.com/deguesju25paag-cyber/TradePro/internal/domain"
	"github.com/deguesju25paag-cyber/TradePro/internal/market"
	"github.com/deguesju25paag-cyber/TradePro/internal/storage"
)

const (
	handshakeTimeout = 5 * time.Second
	requestTimeout   = 30 * time.Second
)

// Fetcher is the optional cold-cache fallback: one synchronous poll
// attempted before serving get_markets from an empty cache.
type Fetcher func(ctx context.Context) error

// Server accepts raw connections, upgrades each to TLS and answers a
// single framed request. Handler slots are bounded; connections beyond
// the bound queue for a slot rather than being rejected.
type Server struct {
	addr  string
	cert  tls.Certificate
	store storage.Store
	cache *market.Cache
	fetch Fetcher

	slots    chan struct{}
	listener net.Listener
	mu       sync.Mutex
	conns    map[net.Conn]struct{}
	wg       sync.WaitGroup
}

// New creates a server. maxHandlers <= 0 defaults to NumCPU*4.
func New(addr string, cert tls.Certificate, store storage.Store, cache *market.Cache, fetch Fetcher, maxHandlers int) *Server {
	if maxHandlers <= 0 {
		maxHandlers = runtime.NumCPU() * 4
	}
	return &Server{
		addr:  addr,
		cert:  cert,
		store: store,
		cache: cache,
		fetch: fetch,
		slots: make(chan struct{}, maxHandlers),
		conns: make(map[net.Conn]struct{}),
	}
}

// Start binds the listener and launches the accept loop.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.listener = ln
	slog.Info("Secure socket server listening", "addr", ln.Addr().String())

	s.wg.Add(1)
	go s.acceptLoop(ctx)
	return nil
}

// Addr returns the bound address (useful with ":0" listeners).
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop closes the listener, force-closes tracked connections and waits
// for in-flight handlers.
func (s *Server) Stop() {
	if s.listener != nil {
		s.listener.Close()
	}

	s.mu.Lock()
	for c := range s.conns {
		c.Close()
	}
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *Server) acceptLoop(ctx context.Context) {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			slog.Warn("Accept failed", "err", err)
			continue
		}

		s.track(conn)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.untrack(conn)
			defer conn.Close()

			// Admission: queue for a handler slot, the one explicit
			// backpressure point of the system.
			select {
			case s.slots <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-s.slots }()

			s.handle(ctx, conn)
		}()
	}
}

func (s *Server) track(c net.Conn) {
	s.mu.Lock()
	s.conns[c] = struct{}{}
	s.mu.Unlock()
}

func (s *Server) untrack(c net.Conn) {
	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()
}

// handle runs one connection through its whole lifecycle: TLS
// handshake, one framed request, one framed response. Transport
// failures close the connection silently; everything after a parsed
// frame yields exactly one response write attempt.
func (s *Server) handle(ctx context.Context, raw net.Conn) {
	tlsConn := tls.Server(raw, &tls.Config{
		Certificates: []tls.Certificate{s.cert},
		MinVersion:   tls.VersionTLS12,
	})
	defer tlsConn.Close()

	tlsConn.SetDeadline(time.Now().Add(handshakeTimeout))
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		slog.Warn("TLS handshake failed", "remote", raw.RemoteAddr(), "err", err)
		return
	}
	tlsConn.SetDeadline(time.Now().Add(requestTimeout))

	body, err := ReadFrame(tlsConn)
	if err != nil {
		slog.Warn("Frame read failed", "remote", raw.RemoteAddr(), "err", err)
		return
	}

	reply := s.dispatch(ctx, body)

	out, err := json.Marshal(reply)
	if err != nil {
		slog.Error("Response marshal failed", "err", err)
		return
	}
	if err := WriteFrame(tlsConn, out); err != nil {
		slog.Warn("Response write failed", "remote", raw.RemoteAddr(), "err", err)
	}
}

// dispatch parses the request body and routes it by action. The return
// value is always a marshalable reply; errors surface as structured
// payloads with a stable code, never as raw error text disclosure.
func (s *Server) dispatch(ctx context.Context, body []byte) any {
	var req request
	if err := json.Unmarshal(body, &req); err != nil {
		return errorResponse{Error: errInvalidRequest, Message: "Malformed request body"}
	}

	switch strings.ToLower(req.Action) {
	case actionLogin:
		return s.handleLogin(ctx, req)
	case actionRegister:
		return s.handleRegister(ctx, req)
	case actionGetMarkets:
		return s.handleGetMarkets(ctx)
	default:
		return errorResponse{Error: errUnknownAction, Message: "Unknown action"}
	}
}

func (s *Server) handleLogin(ctx context.Context, req request) any {
	if req.Username == "" || req.Password == "" {
		return errorResponse{Error: errInvalidRequest, Message: "Username and password required"}
	}

	cred, found, err := s.store.FindUserByName(ctx, req.Username)
	if err != nil {
		slog.Error("Login store lookup failed", "err", err)
		return errorResponse{Error: errDB, Message: "Storage unavailable"}
	}

	// Unknown user and wrong password are indistinguishable on purpose.
	if !found || !auth.Verify(req.Password, cred.PasswordHash) {
		return errorResponse{Error: errInvalidCredentials, Message: "Usuario o contraseña incorrectos"}
	}

	return loginResponse{Username: cred.Username, Balance: cred.Balance, UserID: cred.ID}
}

func (s *Server) handleRegister(ctx context.Context, req request) any {
	if req.Username == "" || req.Password == "" {
		return errorResponse{Error: errInvalidRequest, Message: "Username and password required"}
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		slog.Error("Password hash failed", "err", err)
		return errorResponse{Error: errDB, Message: "Registration failed"}
	}

	_, err = s.store.CreateUser(ctx, domain.Credential{
		Username:     req.Username,
		PasswordHash: hash,
		Balance:      domain.StartingBalance,
	})
	if errors.Is(err, storage.ErrUserExists) {
		return errorResponse{Error: errUserExists, Message: "Usuario ya existe"}
	}
	if err != nil {
		slog.Error("Register store insert failed", "err", err)
		return errorResponse{Error: errDB, Message: "Storage unavailable"}
	}

	return registerResponse{Message: "Registrado"}
}

func (s *Server) handleGetMarkets(ctx context.Context) any {
	// Cold cache: try one synchronous fetch before answering. A failed
	// or throttled fetch still answers with whatever the cache holds.
	if !s.cache.HasData() && s.fetch != nil {
		if err := s.fetch(ctx); err != nil {
			slog.Debug("Cold-cache fetch skipped", "err", err)
		}
	}

	snap := s.cache.Snapshot()
	if snap == nil {
		snap = []domain.MarketQuote{}
	}
	return snap
}
