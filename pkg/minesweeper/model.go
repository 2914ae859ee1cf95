package minesweeper

// Credentials authenticate every request with HTTP Basic auth.
type Credentials struct {
	User     string `json:"user"`
	Password string `json:"password"`
}

// Settings are the board dimensions and mine count of a game.
type Settings struct {
	Columns int `json:"columns"`
	Mines   int `json:"mines"`
	Rows    int `json:"rows"`
}

// Cells returns the number of squares a board with these settings holds.
func (s Settings) Cells() int { return s.Columns * s.Rows }

// Square is one board cell as reported by the server.
type Square struct {
	Column       int    `json:"column"`
	Row          int    `json:"row"`
	DisplayValue string `json:"displayValue"`
	Flag         bool   `json:"flag"`
	Revealed     bool   `json:"revealed"`
}

// Game is a full board snapshot. Squares keep the server's order.
type Game struct {
	ID       int      `json:"id"`
	Settings Settings `json:"settings"`
	Squares  []Square `json:"squares"`
	Status   string   `json:"status"`
}

// SquareAt looks up the square at column/row using the server's coordinates.
func (g Game) SquareAt(column, row int) (Square, bool) {
	for _, sq := range g.Squares {
		if sq.Column == column && sq.Row == row {
			return sq, true
		}
	}
	return Square{}, false
}

// UserAccount is the registration payload for CreateUser.
type UserAccount struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Password  string `json:"password"`
}

// Action is the pause/resume verb passed through to the server.
type Action string

const (
	ActionPause  Action = "pause"
	ActionResume Action = "resume"
)
