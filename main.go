// Command marble-maze runs the Marble Maze game.
//
// It supports three modes:
//  1. "server" (default) – runs the HTTP server exposing REST API, WebSocket, and an /mcp HTTP endpoint,
//     with the server clock ticking every non-manual session
//  2. "stdio-mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//  3. "play" – plays one catalog in the terminal
//
// Flags (or the matching environment variables, also read from .env) control
// host/port, catalog directory, clock rate, tile size, logging, and optional
// ngrok tunneling for easy external access during development.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/marble-maze/api"
	"github.com/wricardo/marble-maze/game/clock"
	"github.com/wricardo/marble-maze/game/config"
	"github.com/wricardo/marble-maze/game/engine"
	"github.com/wricardo/marble-maze/game/service"
	"github.com/wricardo/marble-maze/game/session"
	"github.com/wricardo/marble-maze/transport/mcp"
	"github.com/wricardo/marble-maze/transport/terminal"
	"github.com/wricardo/marble-maze/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Marble Maze Server"
)

const (
	sessionCleanupInterval = time.Hour
	sessionMaxAge          = 24 * time.Hour
)

// options is the resolved process configuration
type options struct {
	host         string
	port         int
	configDir    string
	settings     engine.Settings
	ngrokEnabled bool
	ngrokAuth    string
	ngrokDomain  string
}

func (o options) addr() string {
	return fmt.Sprintf("%s:%d", o.host, o.port)
}

func newCommand() *cli.Command {
	defaults := engine.DefaultSettings()

	return &cli.Command{
		Name:    "marble-maze",
		Usage:   "grid marble maze game server",
		Version: Version,
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "port", Value: 8080, Usage: "HTTP server port", Sources: cli.EnvVars("PORT")},
			&cli.StringFlag{Name: "host", Value: "localhost", Usage: "HTTP server host", Sources: cli.EnvVars("HOST")},
			&cli.StringFlag{Name: "config-dir", Value: "configs", Usage: "Directory containing catalog files", Sources: cli.EnvVars("CONFIG_DIR")},
			&cli.IntFlag{Name: "tick-rate", Value: defaults.TickRate, Usage: "Clock ticks per second", Sources: cli.EnvVars("TICK_RATE")},
			&cli.FloatFlag{Name: "tile-size", Value: defaults.Geometry.TileWidth, Usage: "Tile edge in rendering units", Sources: cli.EnvVars("TILE_SIZE")},
			&cli.DurationFlag{Name: "transition-delay", Value: defaults.TransitionDelay, Usage: "Pause between a star and the next board", Sources: cli.EnvVars("TRANSITION_DELAY")},
			&cli.StringFlag{Name: "log-level", Value: "info", Usage: "Log level (debug, info, warn, error)", Sources: cli.EnvVars("LOG_LEVEL")},
			&cli.BoolFlag{Name: "debug", Usage: "Enable debug logging with console output", Sources: cli.EnvVars("DEBUG")},
			&cli.BoolFlag{Name: "ngrok", Usage: "Enable ngrok tunnel", Sources: cli.EnvVars("NGROK_ENABLED")},
			&cli.StringFlag{Name: "ngrok-auth", Usage: "Ngrok auth token", Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN")},
			&cli.StringFlag{Name: "ngrok-domain", Usage: "Custom ngrok domain (optional)", Sources: cli.EnvVars("NGROK_DOMAIN")},
		},
		Action: runServerCommand,
		Commands: []*cli.Command{
			{
				Name:    "server",
				Aliases: []string{"http"},
				Usage:   "Run HTTP server with API, WebSocket, and MCP endpoint",
				Action:  runServerCommand,
			},
			{
				Name:    "stdio-mcp",
				Aliases: []string{"mcp-stdio", "mcp"},
				Usage:   "Run MCP stdio server with internal HTTP server",
				Action:  runStdioCommand,
			},
			{
				Name:      "play",
				Usage:     "Play a catalog in the terminal",
				ArgsUsage: "[catalog]",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "log-file", Usage: "Write logs to this file while playing"},
				},
				Action: runPlayCommand,
			},
		},
	}
}

// main loads .env, then hands over to the command line
func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: error loading .env file: %v\n", err)
	}

	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		log.Fatal().Err(err).Msg("exit")
	}
}

// optionsFrom resolves flags into options
func optionsFrom(cmd *cli.Command) (options, error) {
	size := cmd.Float("tile-size")
	opts := options{
		host:      cmd.String("host"),
		port:      cmd.Int("port"),
		configDir: cmd.String("config-dir"),
		settings: engine.Settings{
			Geometry:        engine.Geometry{TileWidth: size, TileHeight: size},
			TickRate:        cmd.Int("tick-rate"),
			TransitionDelay: cmd.Duration("transition-delay"),
		},
		ngrokEnabled: cmd.Bool("ngrok"),
		ngrokAuth:    cmd.String("ngrok-auth"),
		ngrokDomain:  cmd.String("ngrok-domain"),
	}

	if opts.port <= 0 || opts.port > 65535 {
		return opts, fmt.Errorf("invalid port %d", opts.port)
	}
	if err := opts.settings.Validate(); err != nil {
		return opts, err
	}
	return opts, nil
}

// setupLogging configures the global zerolog logger
func setupLogging(level string, debug bool, out io.Writer) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	if debug {
		lvl = zerolog.DebugLevel
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
}

func runServerCommand(ctx context.Context, cmd *cli.Command) error {
	setupLogging(cmd.String("log-level"), cmd.Bool("debug"), os.Stderr)
	opts, err := optionsFrom(cmd)
	if err != nil {
		return err
	}

	log.Info().Str("version", Version).Str("mode", "server").Msg("starting " + AppName)

	gameService, sessions, err := initializeServices(opts.configDir, opts.settings, log.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return runHTTPServer(ctx, opts, gameService, sessions)
}

func runStdioCommand(ctx context.Context, cmd *cli.Command) error {
	// stdout carries the MCP protocol; logs go to stderr
	setupLogging(cmd.String("log-level"), false, os.Stderr)
	opts, err := optionsFrom(cmd)
	if err != nil {
		return err
	}

	gameService, sessions, err := initializeServices(opts.configDir, opts.settings, log.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	return runStdioMCPWithInternalServer(ctx, opts, gameService, sessions)
}

func runPlayCommand(ctx context.Context, cmd *cli.Command) error {
	var out io.Writer = io.Discard
	if path := cmd.String("log-file"); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer f.Close()
		out = f
	}
	setupLogging(cmd.String("log-level"), false, out)

	opts, err := optionsFrom(cmd)
	if err != nil {
		return err
	}

	name, catalog, err := playCatalog(opts.configDir, cmd.Args().First())
	if err != nil {
		return err
	}

	sess, err := service.NewSession("local", name, catalog, opts.settings, true)
	if err != nil {
		return err
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return terminal.NewGame(screen, sess, log.Logger).Run(ctx)
}

// playCatalog resolves the play argument: a catalog file path, a catalog
// name in configDir, or the default catalog when empty
func playCatalog(configDir, arg string) (string, *engine.CatalogConfig, error) {
	if info, err := os.Stat(arg); arg != "" && err == nil && !info.IsDir() {
		catalog, err := engine.LoadCatalogConfig(arg)
		if err != nil {
			return "", nil, err
		}
		return strings.TrimSuffix(filepath.Base(arg), filepath.Ext(arg)), catalog, nil
	}

	configs, err := config.NewManager(configDir, log.Logger)
	if err != nil {
		return "", nil, err
	}
	if arg == "" {
		return configs.DefaultName(), configs.GetDefault(), nil
	}
	catalog, err := configs.LoadCatalog(arg)
	if err != nil {
		return "", nil, err
	}
	return arg, catalog, nil
}

// mcpHandler serves single MCP JSON-RPC messages over HTTP POST
func mcpHandler(mcpClient *mcp.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	}
}

// newHandler wires the hub, API server and /mcp endpoint, and starts the
// hub and the game clock. Both stop when ctx is cancelled.
func newHandler(ctx context.Context, baseURL string, gameService service.GameService, sessions *session.Manager, settings engine.Settings) http.Handler {
	hub := websocket.NewHub(gameService, log.Logger)
	go hub.Run(ctx)

	gameClock := clock.New(gameService, hub, settings.TickInterval(), log.Logger)
	go gameClock.Run(ctx)
	go clock.CleanupRoutine(ctx, sessions, sessionCleanupInterval, sessionMaxAge, log.Logger)

	apiServer := api.NewServer(gameService, hub, log.Logger)
	apiServer.Router().Handle("/mcp", mcpHandler(mcp.NewClient(baseURL)))
	return apiServer
}

// runHTTPServer starts the HTTP server with REST API, WebSocket hub, and an /mcp proxy endpoint.
// If ngrok is enabled, it also provisions a public tunnel.
func runHTTPServer(ctx context.Context, opts options, gameService service.GameService, sessions *session.Manager) error {
	addr := opts.addr()
	handler := newHandler(ctx, "http://"+addr, gameService, sessions, opts.settings)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup
	serveErr := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		log.Info().
			Str("addr", addr).
			Str("api", fmt.Sprintf("http://%s/api", addr)).
			Str("ws", fmt.Sprintf("ws://%s/ws?session=<session_id>", addr)).
			Str("mcp", fmt.Sprintf("http://%s/mcp", addr)).
			Int("tick_rate", opts.settings.TickRate).
			Msg("HTTP server listening")

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	if opts.ngrokEnabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrokTunnel(ctx, opts, handler)
		}()
	}

	var err error
	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case err = <-serveErr:
		log.Error().Err(err).Msg("HTTP server failed")
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
		log.Error().Err(shutdownErr).Msg("HTTP server shutdown error")
	}

	wg.Wait()
	log.Info().Msg("server stopped")
	return err
}

// runNgrokTunnel serves handler through an ngrok tunnel until ctx is cancelled
func runNgrokTunnel(ctx context.Context, opts options, handler http.Handler) {
	if opts.ngrokAuth == "" {
		log.Warn().Msg("ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN)")
		return
	}

	var tunnel ngrokConfig.Tunnel
	if opts.ngrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(opts.ngrokDomain))
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(opts.ngrokAuth))
	if err != nil {
		log.Error().Err(err).Msg("failed to start ngrok tunnel")
		return
	}
	go func() {
		<-ctx.Done()
		tun.Close()
	}()

	url := tun.URL()
	log.Info().
		Str("url", url).
		Str("api", url+"/api").
		Str("ws", url+"/ws?session=<session_id>").
		Str("mcp", url+"/mcp").
		Msg("ngrok tunnel established")

	if err := http.Serve(tun, handler); err != nil && err != http.ErrServerClosed && ctx.Err() == nil {
		log.Error().Err(err).Msg("ngrok server error")
	}
	log.Info().Msg("ngrok tunnel closed")
}

// initializeServices wires the session and catalog managers and the game service
func initializeServices(configDir string, settings engine.Settings, logger zerolog.Logger) (service.GameService, *session.Manager, error) {
	configManager, err := config.NewManager(configDir, logger)
	if err != nil {
		return nil, nil, err
	}

	sessionManager := session.NewManager(logger)
	gameService := service.NewGameService(sessionManager, configManager, settings)

	log.Info().
		Str("config_dir", configDir).
		Str("default_catalog", configManager.DefaultName()).
		Dur("tick", settings.TickInterval()).
		Msg("services initialized")
	return gameService, sessionManager, nil
}

// externalAPIAvailable reports whether an API server already answers at baseURL
func externalAPIAvailable(baseURL string) bool {
	testClient := &http.Client{Timeout: 2 * time.Second}
	resp, err := testClient.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// runStdioMCPWithInternalServer runs the MCP server over stdio.
// It reuses an external API at the configured address when one answers; otherwise it
// starts an internal HTTP API bound to a random loopback port and targets that.
func runStdioMCPWithInternalServer(ctx context.Context, opts options, gameService service.GameService, sessions *session.Manager) error {
	baseURL := "http://" + opts.addr()

	if externalAPIAvailable(baseURL) {
		log.Info().Str("url", baseURL).Msg("external API server found, using it for MCP")
	} else {
		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}
		baseURL = "http://" + listener.Addr().String()

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		httpServer := &http.Server{Handler: newHandler(ctx, baseURL, gameService, sessions, opts.settings)}
		go func() {
			if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
				log.Error().Err(err).Msg("internal HTTP server error")
			}
		}()
		defer httpServer.Close()

		log.Info().Str("url", baseURL).Msg("internal HTTP server started for MCP stdio")
	}

	if err := server.ServeStdio(mcp.NewClient(baseURL).GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}
