package api

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/navalclash/battleship-server/db/sqlc"
	mb "github.com/navalclash/battleship-server/models/battleship"
	mc "github.com/navalclash/battleship-server/models/connection"
)

const (
	StageProd = "prod"
	StageDev  = "dev"
)

const (
	defaultPort             = "12345"
	defaultPlacementTimeout = time.Second * 60
	defaultMaxMatches       = 1
)

var allowedOrigins = map[string]bool{
	"https://www.allowed_url.com": true,
}

var upgrader = websocket.Upgrader{
	// good average time since this is not a high-latency operation such as video streaming
	HandshakeTimeout: time.Second * 5,

	// probably more that enough but this is a good average size
	ReadBufferSize:  2048,
	WriteBufferSize: 2048,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Server owns the listeners and the managers. The raw TCP
// listener is the canonical entry; an optional HTTP listener
// upgrades browser clients to websocket and feeds them into the
// same processor.
type Server struct {
	port             string
	wsPort           string
	stage            string
	db               *sql.DB
	placementTimeout time.Duration
	maxMatches       int

	SessionManager *mc.SessionManager
	MatchManager   *mb.MatchManager
	Processor      *RequestProcessor

	ln net.Listener
}

type Option func(*Server) error

func NewServer(optFuncs ...Option) *Server {
	server := Server{
		port:             defaultPort,
		stage:            StageDev,
		placementTimeout: defaultPlacementTimeout,
		maxMatches:       defaultMaxMatches,
	}
	for _, opt := range optFuncs {
		if err := opt(&server); err != nil {
			panic(err)
		}
	}

	if server.stage == StageProd {
		upgrader.CheckOrigin = func(r *http.Request) bool {
			return allowedOrigins[r.Header.Get("Origin")]
		}
	}

	server.SessionManager = mc.NewSessionManager()
	server.MatchManager = mb.NewMatchManager(server.maxMatches)

	var analytics *sqlc.AnalyticsManager
	if server.db != nil {
		analytics = sqlc.NewDbManager(sqlc.New(server.db)).Analytics
	}
	server.Processor = NewRequestProcessor(server.SessionManager, server.MatchManager, analytics, server.placementTimeout)

	return &server
}

func WithPort(port string) Option {
	return func(s *Server) error {
		s.port = port
		return nil
	}
}

func WithWsPort(wsPort string) Option {
	return func(s *Server) error {
		s.wsPort = wsPort
		return nil
	}
}

func WithStage(stage string) Option {
	return func(s *Server) error {
		if stage != StageProd && stage != StageDev {
			return fmt.Errorf("invalid type of development stage: %s", stage)
		}
		s.stage = stage
		return nil
	}
}

func WithDb(db *sql.DB) Option {
	return func(s *Server) error {
		s.db = db
		return nil
	}
}

func WithPlacementTimeout(d time.Duration) Option {
	return func(s *Server) error {
		if d <= 0 {
			return fmt.Errorf("placement timeout must be positive: %s", d)
		}
		s.placementTimeout = d
		return nil
	}
}

func WithMaxMatches(n int) Option {
	return func(s *Server) error {
		if n < 1 {
			return fmt.Errorf("need room for at least one match, got: %d", n)
		}
		s.maxMatches = n
		return nil
	}
}

// Listen binds the TCP listener without serving yet, so tests can
// bind port 0 and read the chosen address back.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", "0.0.0.0:"+s.port)
	if err != nil {
		return err
	}
	s.ln = ln
	return nil
}

func (s *Server) Addr() string {
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// Serve accepts clients until the listener closes. Each accepted
// connection gets its own goroutine.
func (s *Server) Serve() error {
	if s.wsPort != "" {
		go s.serveWs()
	}

	log.Printf("listening on %s", s.Addr())
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			log.Printf("failed to accept connection: %v", err)
			continue
		}

		log.Printf("connection from %s has been established", conn.RemoteAddr())
		go s.Processor.HandleTransport(mc.NewTCPTransport(conn))
	}
}

func (s *Server) Run() error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve()
}

func (s *Server) Close() error {
	if s.ln == nil {
		return nil
	}
	return s.ln.Close()
}

func (s *Server) serveWs() {
	mux := http.NewServeMux()
	mux.HandleFunc("/battleship", s.handleWs)

	log.Printf("websocket endpoint listening on :%s", s.wsPort)
	if err := http.ListenAndServe("0.0.0.0:"+s.wsPort, mux); err != nil {
		log.Println(err)
	}
}

func (s *Server) handleWs(w http.ResponseWriter, r *http.Request) {
	// use Upgrade method to make a websocket connection
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println(err)
		http.Error(w, "could not open websocket connection", http.StatusBadRequest)
		return
	}

	log.Println("a new connection established\tRemote Addr:", conn.RemoteAddr().String())
	go s.Processor.HandleTransport(mc.NewWebsocketTransport(conn))
}
