package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/samvad-hq/minesweeper-client/internal/app"
	"github.com/samvad-hq/minesweeper-client/internal/config"
	"github.com/samvad-hq/minesweeper-client/internal/logger"
	"github.com/samvad-hq/minesweeper-client/internal/render"
	"github.com/samvad-hq/minesweeper-client/pkg/minesweeper"
	"github.com/urfave/cli/v2"
)

// sessionFactory opens a session for one command invocation.
type sessionFactory func(c *cli.Context) (*app.Session, error)

func newApp(out io.Writer) *cli.App {
	return newAppWithSession(out, openSession)
}

func newAppWithSession(out io.Writer, open sessionFactory) *cli.App {
	return &cli.App{
		Name:      "minesweeper",
		Usage:     "play on the remote Minesweeper API",
		Writer:    out,
		ErrWriter: out,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "user", Usage: "API user (overrides API_USER)"},
			&cli.StringFlag{Name: "password", Usage: "API password (overrides API_PASSWORD)"},
			&cli.StringFlag{Name: "base-url", Usage: "API endpoint (overrides API_BASE_URL)"},
			&cli.BoolFlag{Name: "json", Usage: "print raw JSON instead of boards"},
		},
		Commands: []*cli.Command{
			{
				Name:  "games",
				Usage: "list games",
				Action: withSession(open, func(c *cli.Context, s *app.Session) error {
					games, err := s.ListGames(c.Context)
					if err != nil {
						return err
					}
					return printGames(c, games)
				}),
			},
			{
				Name:      "game",
				Usage:     "show one game",
				ArgsUsage: "<id>",
				Action: withSession(open, func(c *cli.Context, s *app.Session) error {
					id, err := gameID(c)
					if err != nil {
						return err
					}
					game, err := s.GetGame(c.Context, id)
					return printGame(c, game, err)
				}),
			},
			{
				Name:  "new",
				Usage: "create a game",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "columns", Value: 8},
					&cli.IntFlag{Name: "rows", Value: 8},
					&cli.IntFlag{Name: "mines", Value: 10},
				},
				Action: withSession(open, func(c *cli.Context, s *app.Session) error {
					game, err := s.CreateGame(c.Context, minesweeper.Settings{
						Columns: c.Int("columns"),
						Mines:   c.Int("mines"),
						Rows:    c.Int("rows"),
					})
					return printGame(c, game, err)
				}),
			},
			actionCommand(open, "pause", minesweeper.ActionPause),
			actionCommand(open, "resume", minesweeper.ActionResume),
			{
				Name:      "flag",
				Usage:     "flag a square",
				ArgsUsage: "[--type T] --column N --row N <id>",
				Flags: append([]cli.Flag{
					&cli.StringFlag{Name: "type", Value: "flag", Usage: "flag type understood by the server"},
				}, cellFlags()...),
				Action: withSession(open, func(c *cli.Context, s *app.Session) error {
					id, err := gameID(c)
					if err != nil {
						return err
					}
					game, err := s.SetFlag(c.Context, id, c.Int("column"), c.Int("row"), c.String("type"))
					return printGame(c, game, err)
				}),
			},
			{
				Name:      "reveal",
				Usage:     "reveal a square",
				ArgsUsage: "--column N --row N <id>",
				Flags:     cellFlags(),
				Action: withSession(open, func(c *cli.Context, s *app.Session) error {
					id, err := gameID(c)
					if err != nil {
						return err
					}
					game, err := s.Reveal(c.Context, id, c.Int("column"), c.Int("row"))
					return printGame(c, game, err)
				}),
			},
			{
				Name:  "signup",
				Usage: "create an account",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "first-name", Required: true},
					&cli.StringFlag{Name: "last-name", Required: true},
					&cli.StringFlag{Name: "account-password", Required: true},
				},
				Action: withSession(open, func(c *cli.Context, s *app.Session) error {
					game, err := s.CreateUser(c.Context, minesweeper.UserAccount{
						Email:     c.String("email"),
						FirstName: c.String("first-name"),
						LastName:  c.String("last-name"),
						Password:  c.String("account-password"),
					})
					if err != nil {
						return err
					}
					return writeJSON(c, game)
				}),
			},
			{
				Name:      "cached",
				Usage:     "show cached snapshots without contacting the server",
				ArgsUsage: "[<id>]",
				Action: withSession(open, func(c *cli.Context, s *app.Session) error {
					if c.Args().Len() == 0 {
						games, err := s.CachedGames()
						if err != nil {
							return err
						}
						return printGames(c, games)
					}
					id, err := gameID(c)
					if err != nil {
						return err
					}
					game, found, err := s.CachedGame(id)
					if err != nil {
						return err
					}
					if !found {
						return fmt.Errorf("game %d is not cached", id)
					}
					return printGame(c, &game, nil)
				}),
			},
		},
	}
}

func cellFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{Name: "column", Aliases: []string{"c"}, Required: true},
		&cli.IntFlag{Name: "row", Aliases: []string{"r"}, Required: true},
	}
}

func actionCommand(open sessionFactory, name string, action minesweeper.Action) *cli.Command {
	return &cli.Command{
		Name:      name,
		Usage:     name + " a game",
		ArgsUsage: "<id>",
		Action: withSession(open, func(c *cli.Context, s *app.Session) error {
			id, err := gameID(c)
			if err != nil {
				return err
			}
			game, err := s.PauseResume(c.Context, id, action)
			return printGame(c, game, err)
		}),
	}
}

func withSession(open sessionFactory, fn func(c *cli.Context, s *app.Session) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		s, err := open(c)
		if err != nil {
			return err
		}
		defer s.Close()
		return fn(c, s)
	}
}

// openSession loads config, applies flag overrides and builds the session.
func openSession(c *cli.Context) (*app.Session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if v := c.String("user"); v != "" {
		cfg.APIUser = v
	}
	if v := c.String("password"); v != "" {
		cfg.APIPassword = v
	}
	if v := c.String("base-url"); v != "" {
		cfg.APIBaseURL = v
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	s, err := app.NewSession(c.Context, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("init session: %w", err)
	}
	return s, nil
}

func gameID(c *cli.Context) (int, error) {
	raw := c.Args().First()
	if raw == "" {
		return 0, fmt.Errorf("missing game id")
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid game id %q", raw)
	}
	return id, nil
}

func printGame(c *cli.Context, game *minesweeper.Game, err error) error {
	if err != nil {
		return err
	}
	if c.Bool("json") {
		return writeJSON(c, game)
	}
	_, err = io.WriteString(c.App.Writer, render.Board(*game))
	return err
}

func printGames(c *cli.Context, games []minesweeper.Game) error {
	if c.Bool("json") {
		return writeJSON(c, games)
	}
	if len(games) == 0 {
		_, err := fmt.Fprintln(c.App.Writer, "no games")
		return err
	}
	for _, g := range games {
		if _, err := fmt.Fprintf(c.App.Writer, "%d\t%s\t%dx%d\tmines=%d\n",
			g.ID, g.Status, g.Settings.Columns, g.Settings.Rows, g.Settings.Mines); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(c *cli.Context, v any) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
