// Command autoplay plays a Marble Maze session through the REST API. It
// creates a manually clocked session (or resumes one), then repeatedly asks
// the server for a hint, rolls the marble and steps the clock until the
// marble rests, until every board is cleared.
package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"
)

const sessionFile = ".session"

// attach resumes sessionID when given, else the saved session, else creates a new one
func attach(client *Client, sessionID, catalog, savePath string, logger zerolog.Logger) error {
	if sessionID == "" && savePath != "" {
		if data, err := os.ReadFile(savePath); err == nil {
			sessionID = string(bytes.TrimSpace(data))
		}
	}

	if sessionID != "" {
		session, err := client.Resume(sessionID)
		if err == nil {
			logger.Info().Str("session", session.ID).Str("catalog", session.CatalogName).Msg("session resumed")
			return nil
		}
		logger.Warn().Err(err).Str("session", sessionID).Msg("failed to resume session, creating a new one")
	}

	session, err := client.CreateSession(catalog)
	if err != nil {
		return err
	}
	logger.Info().Str("session", session.ID).Str("catalog", session.CatalogName).Msg("session created")

	if savePath != "" {
		if err := os.WriteFile(savePath, []byte(session.ID), 0644); err != nil {
			logger.Warn().Err(err).Msg("failed to save session ID")
		}
	}
	return nil
}

func run(ctx context.Context, cmd *cli.Command) error {
	level := zerolog.InfoLevel
	if cmd.Bool("verbose") {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).With().Timestamp().Logger()

	client := NewClient(cmd.String("url"))
	logger.Info().Str("url", cmd.String("url")).Msg("connecting to game server")

	savePath := sessionFile
	if cmd.Bool("no-save") {
		savePath = ""
	}
	if err := attach(client, cmd.String("continue"), cmd.String("catalog"), savePath, logger); err != nil {
		return err
	}

	player := NewPlayer(client, cmd.Int("max-moves"), cmd.Duration("delay"), logger)
	maxAttempts := cmd.Int("max-attempts")
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		logger.Info().Int("attempt", attempt).Int("max", maxAttempts).Msg("starting attempt")
		result, err := player.Play()
		if err != nil {
			return fmt.Errorf("attempt %d: %w", attempt, err)
		}

		logger.Info().
			Int("attempt", attempt).
			Int("moves", result.Moves).
			Int("hinted", result.Hinted).
			Int("falls", result.Falls).
			Uint64("ticks", result.Ticks).
			Msg("attempt finished")

		if result.Victory {
			logger.Info().Str("session", client.SessionID()).Msg("VICTORY")
			return nil
		}
	}

	return fmt.Errorf("failed to win after %d attempts (session %s)", maxAttempts, client.SessionID())
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "autoplay",
		Usage: "play a marble maze session through the REST API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "http://localhost:8080", Usage: "Game server URL", Sources: cli.EnvVars("MARBLE_MAZE_URL")},
			&cli.StringFlag{Name: "catalog", Usage: "Catalog to play (default: server default)"},
			&cli.StringFlag{Name: "continue", Usage: "Resume playing an existing session by ID"},
			&cli.BoolFlag{Name: "no-save", Usage: "Do not read or write the .session file"},
			&cli.IntFlag{Name: "max-moves", Value: 500, Usage: "Maximum moves per attempt"},
			&cli.IntFlag{Name: "max-attempts", Value: 3, Usage: "Maximum attempts before giving up"},
			&cli.DurationFlag{Name: "delay", Usage: "Delay between moves"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "Verbose output"},
		},
		Action: run,
	}
}

func main() {
	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
