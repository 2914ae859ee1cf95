package minesweeper

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var errNullBody = errors.New("response body is null")

// validator is implemented by wire types that check required fields after decoding.
type validator interface {
	validate() error
}

// decodeBody unmarshals a 2xx body into out. Unknown fields are ignored.
func decodeBody(body []byte, out any) error {
	trimmed := bytes.TrimSpace(body)
	if bytes.Equal(trimmed, []byte("null")) {
		return errNullBody
	}
	if err := json.Unmarshal(trimmed, out); err != nil {
		return err
	}
	if v, ok := out.(validator); ok {
		return v.validate()
	}
	return nil
}

// gameWire mirrors Game with pointers so absent or null fields can be told apart
// from zero values.
type gameWire struct {
	ID       *int      `json:"id"`
	Settings *Settings `json:"settings"`
	Squares  *[]Square `json:"squares"`
	Status   *string   `json:"status"`
}

func (w *gameWire) validate() error {
	var missing []string
	if w.ID == nil {
		missing = append(missing, "id")
	}
	if w.Settings == nil {
		missing = append(missing, "settings")
	}
	if w.Squares == nil {
		missing = append(missing, "squares")
	}
	if w.Status == nil {
		missing = append(missing, "status")
	}
	if len(missing) > 0 {
		return fmt.Errorf("game missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

// game converts a validated wire value.
func (w *gameWire) game() *Game {
	return &Game{
		ID:       *w.ID,
		Settings: *w.Settings,
		Squares:  *w.Squares,
		Status:   *w.Status,
	}
}

type gameList []gameWire

func (l *gameList) validate() error {
	for i := range *l {
		if err := (*l)[i].validate(); err != nil {
			return fmt.Errorf("games[%d]: %w", i, err)
		}
	}
	return nil
}

// games returns the decoded list in server order, never nil.
func (l gameList) games() []Game {
	out := make([]Game, 0, len(l))
	for i := range l {
		out = append(out, *l[i].game())
	}
	return out
}
