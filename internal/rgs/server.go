// Package rgs is a reference outcome authority. It answers the same two
// endpoints the game client calls in remote mode and resolves each bet from
// the local tier tables with a per-bet HMAC draw, so every result can be
// replayed from the server seed and the bet's nonce.
package rgs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log"
	"math"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MJE43/freefall-wager/internal/authority"
	"github.com/MJE43/freefall-wager/internal/engine"
	"github.com/MJE43/freefall-wager/internal/outcome"
)

// Error types written in the "type" field of error bodies.
const (
	ErrTypeValidation = "validation_error"
	ErrTypeInternal   = "internal_error"
)

// Config configures a Server.
type Config struct {
	// ServerSeed keys the HMAC draw. A random seed is generated if empty.
	ServerSeed string
	// Tables defaults to outcome.DefaultTables.
	Tables map[outcome.Mode]outcome.Table
	// MaxBet rejects larger stakes when positive.
	MaxBet float64
	// AllowedOrigins for CORS. Defaults to "*".
	AllowedOrigins []string
	Logger         *log.Logger
}

// Server resolves bets for remote clients.
type Server struct {
	tables     map[outcome.Mode]outcome.Table
	serverSeed string
	maxBet     float64
	origins    []string
	logger     *log.Logger
	startTime  time.Time

	httpServer *http.Server
	addr       string

	mu    sync.Mutex
	nonce uint64
}

// NewServer creates a reference authority.
func NewServer(cfg Config) *Server {
	if cfg.Tables == nil {
		cfg.Tables = outcome.DefaultTables()
	}
	if cfg.ServerSeed == "" {
		cfg.ServerSeed = uuid.NewString()
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(os.Stdout, "[RGS] ", log.LstdFlags)
	}
	return &Server{
		tables:     cfg.Tables,
		serverSeed: cfg.ServerSeed,
		maxBet:     cfg.MaxBet,
		origins:    cfg.AllowedOrigins,
		logger:     cfg.Logger,
		startTime:  time.Now(),
	}
}

// Routes sets up the HTTP routes with middleware.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: s.logger, NoColor: true}))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         60 * 15,
	}))

	r.Get("/health", s.handleHealth)
	r.Post("/bet", s.handleBet)
	r.Get("/tables", s.handleTables)
	r.Get("/seed/hash", s.handleSeedHash)

	return r
}

// HealthResponse is the /health body.
type HealthResponse struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
	Bets   uint64 `json:"bets"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	bets := s.nonce
	s.mu.Unlock()

	s.writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Uptime: time.Since(s.startTime).Round(time.Second).String(),
		Bets:   bets,
	})
}

// BetReply is the /bet body. Nonce and the server seed hash let a client
// replay the draw once the seed is revealed.
type BetReply struct {
	TargetPayout float64 `json:"targetPayout"`
	Tier         string  `json:"tier"`
	Multiplier   float64 `json:"multiplier"`
	BetID        string  `json:"betId"`
	Nonce        uint64  `json:"nonce"`
}

func (s *Server) handleBet(w http.ResponseWriter, r *http.Request) {
	var req authority.BetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, ErrTypeValidation, "invalid JSON body")
		return
	}
	if req.BetAmount <= 0 || math.IsNaN(req.BetAmount) || math.IsInf(req.BetAmount, 0) {
		s.writeError(w, r, http.StatusBadRequest, ErrTypeValidation, "betAmount must be positive")
		return
	}
	if s.maxBet > 0 && req.BetAmount > s.maxBet {
		s.writeError(w, r, http.StatusBadRequest, ErrTypeValidation, "betAmount exceeds maximum")
		return
	}
	mode, err := outcome.ParseMode(req.Mode)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, ErrTypeValidation, err.Error())
		return
	}
	table, ok := s.tables[mode]
	if !ok {
		s.writeError(w, r, http.StatusBadRequest, ErrTypeValidation, "mode not offered: "+string(mode))
		return
	}

	betID := uuid.NewString()
	nonce := s.nextNonce()
	draw := engine.NewByteGenerator(s.serverSeed, betID, nonce, 0).Float64()

	tier, err := outcome.Draw(table, draw)
	if err != nil {
		s.logger.Printf("bet %s: %v, resolving as %s", betID, err, tier.Name)
	}
	payout := decimal.NewFromFloat(req.BetAmount).Mul(decimal.NewFromFloat(tier.Multiplier)).Round(8)

	s.logger.Printf("bet %s mode=%s amount=%.2f tier=%s payout=%s", betID, mode, req.BetAmount, tier.Name, payout)
	s.writeJSON(w, http.StatusOK, BetReply{
		TargetPayout: payout.InexactFloat64(),
		Tier:         tier.Name,
		Multiplier:   tier.Multiplier,
		BetID:        betID,
		Nonce:        nonce,
	})
}

// TableInfo describes one mode's table.
type TableInfo struct {
	Mode  outcome.Mode  `json:"mode"`
	Tiers outcome.Table `json:"tiers"`
	RTP   float64       `json:"rtp"`
}

func (s *Server) handleTables(w http.ResponseWriter, r *http.Request) {
	out := make([]TableInfo, 0, len(s.tables))
	for _, mode := range outcome.Modes {
		if t, ok := s.tables[mode]; ok {
			out = append(out, TableInfo{Mode: mode, Tiers: t, RTP: t.RTP()})
		}
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSeedHash(w http.ResponseWriter, r *http.Request) {
	sum := sha256.Sum256([]byte(s.serverSeed))
	s.writeJSON(w, http.StatusOK, map[string]string{"hash": hex.EncodeToString(sum[:])})
}

func (s *Server) nextNonce() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nonce++
	return s.nonce
}

// writeJSON writes a JSON response with proper headers
func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Printf("encode response: %v", err)
	}
}

// ErrorResponse is the body of every non-200 reply.
type ErrorResponse struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, errType, message string) {
	s.writeJSON(w, status, ErrorResponse{
		Type:      errType,
		Message:   message,
		RequestID: middleware.GetReqID(r.Context()),
	})
}
