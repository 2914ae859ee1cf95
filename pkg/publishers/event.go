package publishers

import (
	"strconv"
	"time"

	"github.com/samvad-hq/minesweeper-client/pkg/minesweeper"
)

// Operation names carried by events.
const (
	OpCreateGame  = "create_game"
	OpPauseResume = "pause_resume"
	OpSetFlag     = "set_flag"
	OpReveal      = "reveal"
	OpCreateUser  = "create_user"
)

// Event represents the payload published downstream after a game operation.
type Event struct {
	Operation  string           `json:"operation"`
	GameID     int              `json:"game_id"`
	Status     string           `json:"status"`
	User       string           `json:"user,omitempty"`
	Game       minesweeper.Game `json:"game"`
	OccurredAt time.Time        `json:"occurred_at"`
}

// NewEvent constructs an Event for the given operation and snapshot.
func NewEvent(operation, user string, game minesweeper.Game) Event {
	return Event{
		Operation:  operation,
		GameID:     game.ID,
		Status:     game.Status,
		User:       user,
		Game:       game,
		OccurredAt: time.Now().UTC(),
	}
}

// Attributes returns the routing attributes attached to queue and topic messages.
func (e Event) Attributes() map[string]string {
	return map[string]string{
		"operation": e.Operation,
		"game_id":   strconv.Itoa(e.GameID),
	}
}
