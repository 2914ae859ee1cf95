// Package minesweeper provides a client for the remote Minesweeper game API.
//
// The service owns all board logic. The client only creates accounts and games,
// reads game snapshots and forwards moves (reveal, flag, pause/resume).
//
// # Authentication
//
// Every request carries an `Authorization: Basic base64(user:password)` header built
// from the credentials current at call time:
//
//	client := minesweeper.NewClient(minesweeper.ClientConfig{
//	    Credentials: minesweeper.Credentials{User: "alice", Password: "secret"},
//	})
//	game, err := client.CreateGame(ctx, minesweeper.Settings{Columns: 8, Rows: 8, Mines: 10})
//
// # Error Handling
//
// Every operation returns either a value or a *APIError, never both:
//
//	game, err := client.GetGame(ctx, 42)
//	switch {
//	case errors.Is(err, minesweeper.ErrItemNotFound):
//	    // game expired
//	case errors.Is(err, minesweeper.ErrNetwork):
//	    // retry later
//	}
package minesweeper
