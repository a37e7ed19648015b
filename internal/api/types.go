// Package api defines the JSON contract between the board client and the game authority.
package api

// GameState is the authoritative state of one game session.
type GameState struct {
	GameID      string   `json:"game_id,omitempty"`
	FEN         string   `json:"fen"`
	GameOver    bool     `json:"game_over"`
	Result      string   `json:"result,omitempty"`
	Termination string   `json:"termination,omitempty"`
	Turn        string   `json:"turn"`
	LegalMoves  []string `json:"legal_moves"`
	LastMove    string   `json:"last_move,omitempty"`
	MoveHistory []string `json:"move_history"`
	PGN         string   `json:"pgn,omitempty"`
	EngineMove  string   `json:"engine_move,omitempty"` // SAN of the opponent reply
}

// MoveRequest submits a human move code.
type MoveRequest struct {
	GameID string `json:"game_id"`
	Move   string `json:"new-move"`
}

// EngineMoveRequest asks the authority for the opponent's reply.
type EngineMoveRequest struct {
	GameID string  `json:"game_id"`
	Elo    int     `json:"elo"`
	Time   float64 `json:"time"` // seconds
}

// AnalyzeRequest evaluates an arbitrary position.
type AnalyzeRequest struct {
	FEN   string `json:"fen"`
	Depth int    `json:"depth"`
}

// BestMove is one candidate line.
type BestMove struct {
	Move       string   `json:"move"`
	SAN        string   `json:"san"`
	Rank       int      `json:"rank"`
	Evaluation *float64 `json:"evaluation,omitempty"` // pawns, side to move
	MateIn     *int     `json:"mate_in,omitempty"`
	Line       string   `json:"line,omitempty"`
}

// Analysis is the evaluation summary for a position.
type Analysis struct {
	BestMoves    []BestMove `json:"best_moves"`
	PositionType string     `json:"position_type"`
	Turn         string     `json:"turn"`
	Evaluation   float64    `json:"evaluation"`
}

// GameSummary is one finished game in the history listing.
type GameSummary struct {
	ID          string  `json:"id"`
	StartTime   string  `json:"start_time"`
	EndTime     string  `json:"end_time,omitempty"`
	Result      string  `json:"result"`
	WhitePlayer string  `json:"white_player"`
	BlackPlayer string  `json:"black_player"`
	EngineElo   int     `json:"engine_elo"`
	EngineTime  float64 `json:"engine_time_limit"`
	TotalMoves  int     `json:"total_moves"`
	OpeningName string  `json:"opening_name,omitempty"`
	PGN         string  `json:"pgn,omitempty"`
}

// GameHistory is a page of finished games.
type GameHistory struct {
	Games  []GameSummary `json:"games"`
	Total  int64         `json:"total"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

// MoveRecord is a stored move with its evaluation.
type MoveRecord struct {
	MoveNumber   int      `json:"move_number"`
	MoveNotation string   `json:"move_notation"`
	UCI          string   `json:"uci"`
	Color        string   `json:"color"`
	FENAfter     string   `json:"fen_after"`
	Evaluation   *float64 `json:"evaluation,omitempty"`
	BestMove     string   `json:"best_move,omitempty"`
	Timestamp    string   `json:"timestamp"`
}

// GameDetails is a stored game with all of its moves.
type GameDetails struct {
	Game  GameSummary  `json:"game"`
	Moves []MoveRecord `json:"moves"`
}

// Stats aggregates stored game counts.
type Stats struct {
	Started   int64 `json:"started"`
	Completed int64 `json:"completed"`
	Active    int64 `json:"active"`
}

// Health reports service readiness.
type Health struct {
	Status          string `json:"status"`
	EngineAvailable bool   `json:"engine_available"`
	Database        bool   `json:"database"`
	Version         string `json:"version,omitempty"`
	Stats           *Stats `json:"stats,omitempty"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
}
