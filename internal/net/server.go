package net

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"ticklob/internal/engine"
	"ticklob/internal/utils"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"
)

const (
	maxRecvSize        = 4 * 1024
	defaultNWorkers    = 10
	defaultConnTimeout = time.Second
)

var (
	ErrImproperConversion = errors.New("improper type conversion")
	ErrClientDoesNotExist = errors.New("client does not exist")
)

// clientSession tracks one connected TCP client. id is a uuid assigned at
// accept time, used to correlate log lines and reports with a connection
// (SPEC_FULL.md §10.5) — it has no relation to any order uid.
type clientSession struct {
	id   string
	conn net.Conn
}

// clientMessage links a parsed wire message to the client that sent it.
type clientMessage struct {
	clientAddress string
	message       Message
}

// Server is the single-writer embedding layer described in SPEC_FULL.md
// §2/§5: a TCP gateway in front of an engine.Engine registry. Exactly one
// goroutine (sessionHandler) ever calls into a Book; everything else
// (accepting connections in Run's loop, reading bytes off the wire on
// worker pool goroutines) never touches engine state directly.
type Server struct {
	address string
	port    int
	engine  *engine.Engine

	pool   utils.WorkerPool
	cancel context.CancelFunc

	sessionsLock sync.Mutex
	sessions     map[string]*clientSession

	inbox chan clientMessage
}

// Option configures a Server at construction time.
type Option func(*poolConfig)

type poolConfig struct {
	registry prometheus.Registerer
}

// WithMetricsRegistry has the Server's worker pool report its in-flight
// worker count as a gauge registered against reg.
func WithMetricsRegistry(reg prometheus.Registerer) Option {
	return func(c *poolConfig) { c.registry = reg }
}

// New constructs a Server in front of eng, listening on address:port.
func New(address string, port int, eng *engine.Engine, opts ...Option) *Server {
	cfg := poolConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	var poolOpts []utils.Option
	if cfg.registry != nil {
		poolOpts = append(poolOpts, utils.WithActiveGauge(cfg.registry))
	}

	return &Server{
		address:  address,
		port:     port,
		engine:   eng,
		pool:     utils.NewWorkerPool(defaultNWorkers, poolOpts...),
		sessions: make(map[string]*clientSession),
		inbox:    make(chan clientMessage, 1),
	}
}

func (s *Server) Shutdown() {
	log.Info().Msg("server shutting down")
	if s.cancel != nil {
		s.cancel()
	}
}

// Run accepts connections and drives the gateway until ctx is canceled.
func (s *Server) Run(ctx context.Context) {
	defer s.Shutdown()

	ctx, s.cancel = context.WithCancel(ctx)
	t, ctx := tomb.WithContext(ctx)

	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", fmt.Sprintf("%s:%d", s.address, s.port))
	if err != nil {
		log.Error().Err(err).Msg("unable to start listener")
		return
	}
	defer func() {
		if err := listener.Close(); err != nil {
			log.Error().Err(err).Msg("unable to close listener")
		}
	}()

	t.Go(func() error {
		s.pool.Setup(t, s.handleConnection)
		return nil
	})

	t.Go(func() error {
		return s.sessionHandler(t)
	})

	log.Info().Str("address", listener.Addr().String()).Msg("server listening")

	for {
		select {
		case <-ctx.Done():
			return
		default:
			conn, err := listener.Accept()
			if err != nil {
				log.Error().Err(err).Msg("error accepting client")
				continue
			}

			session := s.addSession(conn)
			log.Info().
				Str("address", conn.LocalAddr().String()).
				Str("sessionID", session.id).
				Msg("new client connected")

			s.pool.AddTask(conn)
		}
	}
}

// ReportExecution sends a fill report to one client.
func (s *Server) ReportExecution(clientAddress string, report Report) error {
	return s.send(clientAddress, report.Serialize())
}

// ReportError sends an error report to one client.
func (s *Server) ReportError(clientAddress string, err error) error {
	report := NewErrorReport(err)
	return s.send(clientAddress, report.Serialize())
}

func (s *Server) send(clientAddress string, wire []byte) error {
	s.sessionsLock.Lock()
	session, ok := s.sessions[clientAddress]
	s.sessionsLock.Unlock()
	if !ok {
		return ErrClientDoesNotExist
	}

	if _, err := session.conn.Write(wire); err != nil {
		s.dropSession(clientAddress)
		return fmt.Errorf("unable to send report: %w", err)
	}
	return nil
}

// sessionHandler is the single goroutine that ever mutates a Book — the
// core's single-writer requirement (spec.md §5) lives here, not in the
// core itself.
func (s *Server) sessionHandler(t *tomb.Tomb) error {
	for {
		select {
		case <-t.Dying():
			return nil
		case msg := <-s.inbox:
			if err := s.handleMessage(msg); err != nil {
				log.Error().
					Err(err).
					Str("clientAddress", msg.clientAddress).
					Msg("error handling message")
				if rerr := s.ReportError(msg.clientAddress, err); rerr != nil {
					log.Error().Err(rerr).Msg("unable to report error to client")
				}
			}
		}
	}
}

func (s *Server) handleMessage(msg clientMessage) error {
	switch msg.message.GetType() {
	case NewOrder:
		order, ok := msg.message.(NewOrderMessage)
		if !ok {
			return ErrImproperConversion
		}
		return s.handleNewOrder(msg.clientAddress, order)

	case CancelOrder:
		cancel, ok := msg.message.(CancelOrderMessage)
		if !ok {
			return ErrImproperConversion
		}
		book := s.engine.Book(cancel.Symbol)
		return book.Cancel(cancel.UID)

	case LogBook:
		logReq, ok := msg.message.(LogBookMessage)
		if !ok {
			return ErrImproperConversion
		}
		if book, exists := s.engine.Lookup(logReq.Symbol); exists {
			log.Info().Str("symbol", logReq.Symbol).
				Int("askLevels", len(book.Asks())).
				Int("bidLevels", len(book.Bids())).
				Msg("book snapshot")
		}
		return nil

	default:
		return ErrInvalidMessageType
	}
}

func (s *Server) handleNewOrder(clientAddress string, order NewOrderMessage) error {
	book := s.engine.Book(order.Symbol)

	var err error
	switch order.OrderType {
	case 0: // common.LimitOrder
		err = book.Limit(order.Side, order.UID, order.Quantity, order.Price)
	default: // common.MarketOrder
		err = book.Market(order.Side, order.UID, order.Quantity)
	}
	if err != nil {
		return err
	}

	report := NewExecutionReport(order.Side, order.Quantity, order.Price)
	return s.ReportExecution(clientAddress, report)
}

// handleConnection is a short-lived worker task: read one message off
// conn, hand it to sessionHandler, then re-enqueue conn for its next
// message. It never calls into an engine.Book directly.
func (s *Server) handleConnection(t *tomb.Tomb, task any) error {
	conn, ok := task.(net.Conn)
	if !ok {
		return ErrImproperConversion
	}

	if err := conn.SetDeadline(time.Now().Add(defaultConnTimeout)); err != nil {
		log.Debug().Err(err).Msg("failed setting connection deadline")
	}

	select {
	case <-t.Dying():
		return nil
	default:
	}

	buffer := make([]byte, maxRecvSize)
	n, err := conn.Read(buffer)
	if err != nil {
		s.dropSession(conn.LocalAddr().String())
		if err := conn.Close(); err != nil {
			log.Debug().Err(err).Msg("error closing connection")
		}
		return nil
	}

	message, err := ParseMessage(buffer[:n])
	if err != nil {
		log.Error().Err(err).Str("address", conn.LocalAddr().String()).Msg("error parsing message")
		s.dropSession(conn.LocalAddr().String())
		if err := conn.Close(); err != nil {
			log.Debug().Err(err).Msg("error closing connection")
		}
		return nil
	}

	s.inbox <- clientMessage{
		message:       message,
		clientAddress: conn.LocalAddr().String(),
	}
	s.pool.AddTask(conn)
	return nil
}

func (s *Server) addSession(conn net.Conn) *clientSession {
	s.sessionsLock.Lock()
	defer s.sessionsLock.Unlock()

	session := &clientSession{id: uuid.New().String(), conn: conn}
	s.sessions[conn.LocalAddr().String()] = session
	return session
}

func (s *Server) dropSession(address string) {
	s.sessionsLock.Lock()
	defer s.sessionsLock.Unlock()
	delete(s.sessions, address)
}
