package hostbridge

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/StardewEchoes/echoes/internal/configs"
	"github.com/StardewEchoes/echoes/internal/dialogue"
	"github.com/StardewEchoes/echoes/internal/echolog"
	"github.com/StardewEchoes/echoes/internal/engine"
	"github.com/StardewEchoes/echoes/internal/events"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

const (
	writeWait    = 5 * time.Second
	shutdownWait = 5 * time.Second
)

// Server lets one out-of-process host at a time drive an engine over a
// websocket. Each connection gets a fresh engine; the connection's read
// loop is that engine's world thread.
type Server struct {
	ctx      context.Context
	cfg      configs.Config
	client   dialogue.Generator
	upgrader websocket.Upgrader
	router   chi.Router

	lock   sync.Mutex
	active string // connection id, empty when no host is attached

	stats atomic.Pointer[engine.Stats]
	served atomic.Int64
}

func NewServer(ctx context.Context, cfg configs.Config, client dialogue.Generator) *Server {
	s := &Server{
		ctx:    ctx,
		cfg:    cfg,
		client: client,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Get("/stats", s.handleStats)
	r.Get("/ws", s.handleWS)

	s.router = r
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe blocks until the server's context is done.
func (s *Server) ListenAndServe() error {
	srv := &http.Server{
		Addr:              string(s.cfg.Bridge.ListenAddr),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-s.ctx.Done()
		ctx, cancel := context.WithTimeout(context.Background(), shutdownWait)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			echolog.Warn("Bridge", "info", "shutdown", "error", err)
		}
	}()

	echolog.Info("Bridge", "info", "listening", "addr", srv.Addr)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "bridge listener")
	}
	return nil
}

type statsResponse struct {
	Connected   bool          `json:"connected"`
	Connection  string        `json:"connection,omitempty"`
	Connections int64         `json:"connections_served"`
	Engine      *engine.Stats `json:"engine,omitempty"`
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	s.lock.Lock()
	resp := statsResponse{
		Connected:   s.active != ``,
		Connection:  s.active,
		Connections: s.served.Load(),
		Engine:      s.stats.Load(),
	}
	s.lock.Unlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {

	connId := uuid.NewString()

	s.lock.Lock()
	if s.active != `` {
		s.lock.Unlock()
		http.Error(w, "a host is already connected", http.StatusConflict)
		return
	}
	s.active = connId
	s.lock.Unlock()

	defer func() {
		s.lock.Lock()
		s.active = ``
		s.lock.Unlock()
	}()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		echolog.Warn("Bridge", "connection", connId, "info", "upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	s.served.Add(1)
	echolog.Info("Bridge", "connection", connId, "info", "host connected", "remote", r.RemoteAddr)

	if err := s.serve(connId, conn); err != nil {
		echolog.Warn("Bridge", "connection", connId, "info", "host session ended", "error", err)
		return
	}
	echolog.Info("Bridge", "connection", connId, "info", "host disconnected")
}

func (s *Server) serve(connId string, conn *websocket.Conn) error {

	out := make(chan Frame, int(s.cfg.Bridge.SendBuffer))
	var overflowed atomic.Bool

	// send is only called from this goroutine, through the engine.
	send := func(f Frame) {
		select {
		case out <- f:
		default:
			if overflowed.CompareAndSwap(false, true) {
				echolog.Error("Bridge", "connection", connId, "info", "host is not reading, dropping connection", "buffer", cap(out))
				conn.Close()
			}
		}
	}

	var writer sync.WaitGroup
	writer.Add(1)
	go func() {
		defer writer.Done()
		for f := range out {
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(f); err != nil {
				echolog.Debug("Bridge", "connection", connId, "info", "write failed", "error", err)
				conn.Close()
				// keep draining so send never blocks
			}
		}
	}()

	mirror := newMirror(send)

	eng, err := engine.New(s.ctx, s.cfg, engine.Deps{
		Host:   mirror.host(),
		Client: s.client,
	})
	if err != nil {
		close(out)
		writer.Wait()
		return errors.Wrap(err, "starting engine")
	}

	defer func() {
		eng.Close()
		close(out)
		writer.Wait()
		s.stats.Store(nil)
	}()

	for {
		var f Frame
		if err := conn.ReadJSON(&f); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) || overflowed.Load() {
				return nil
			}
			return errors.Wrap(err, "reading frame")
		}
		s.handleFrame(connId, eng, mirror, f)
	}
}

func (s *Server) handleFrame(connId string, eng *engine.Engine, m *mirror, f Frame) {

	if f.Type == FrameSnapshot {
		var snap Snapshot
		if err := unmarshal(f, &snap); err != nil {
			s.reject(connId, m, err)
			return
		}
		m.apply(snap)
		return
	}

	evt, err := decodeEvent(f)
	if err != nil {
		s.reject(connId, m, err)
		return
	}

	eng.Handle(evt)

	if _, ok := evt.(events.NewTick); ok {
		st := eng.Stats()
		s.stats.Store(&st)
	}
}

func (s *Server) reject(connId string, m *mirror, err error) {
	echolog.Warn("Bridge", "connection", connId, "info", "bad frame", "error", err)
	m.emit(FrameError, errorData{Message: err.Error()})
}
