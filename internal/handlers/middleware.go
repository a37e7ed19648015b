package handlers

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"tinyboard/internal/api"
	"tinyboard/internal/game"
	"tinyboard/internal/rules"
	"tinyboard/pkg/utils"
)

// Request parameter bounds.
const (
	MinElo     = 800
	MaxElo     = 3000
	DefaultElo = 1320

	MinThink         = 0.05
	MaxThink         = 5.0
	DefaultThink     = 0.1
	DefaultHintThink = 0.5

	MinDepth     = 1
	MaxDepth     = 30
	DefaultDepth = 15

	MinMultiPV     = 1
	MaxMultiPV     = 10
	DefaultMultiPV = 3

	DefaultHistoryLimit = 10
	MaxHistoryLimit     = 100
)

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes an {"error": msg} body.
func WriteError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, api.ErrorResponse{Error: msg})
}

// appendPromotionIfPawn adds a queen promotion to a 4-character pawn move onto the last rank
func appendPromotionIfPawn(s *game.Session, code string) string {
	if len(code) != 4 {
		return code
	}
	if code[3] != '1' && code[3] != '8' {
		return code
	}
	pos, err := rules.ParsePosition(s.FEN())
	if err != nil {
		return code
	}
	p, ok := pos.PieceAt(rules.Square(code[:2]))
	if !ok || p.Kind != rules.Pawn {
		return code
	}
	if rules.Square(code[2:]).Rank() != p.Color.FarRank() {
		return code
	}
	return code + "q"
}

func queryInt(raw string, def int) int {
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func queryFloat(raw string, def float64) float64 {
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return def
	}
	return v
}

func orInt(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func orFloat(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}

func clampInt(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

func clampFloat(v, lo, hi float64) float64 {
	return max(lo, min(v, hi))
}

type ctxKey int

const requestIDKey ctxKey = 1

// RequestID tags each request with an 8-character id, reusing a well-formed incoming one.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := r.Header.Get("X-Request-ID")
		if len(rid) != 8 {
			rid = utils.RandomHex(4)
		}
		w.Header().Set("X-Request-ID", rid)
		ctx := context.WithValue(r.Context(), requestIDKey, rid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID returns the id stored by RequestID.
func GetRequestID(ctx context.Context) string {
	if s, ok := ctx.Value(requestIDKey).(string); ok {
		return s
	}
	return ""
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// AccessLog logs one line per completed request.
func AccessLog(log zerolog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		reqLog := log.With().
			Str("rid", GetRequestID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("ip", ClientIP(r)).
			Logger()

		reqLog.Debug().Msg("request started")
		next.ServeHTTP(rec, r)

		ev := reqLog.Info()
		if rec.status >= http.StatusInternalServerError {
			ev = reqLog.Warn()
		}
		ev.Int("status", rec.status).Dur("dur", time.Since(start)).Msg("request completed")
	})
}

// ClientIP extracts the client IP from the request
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
