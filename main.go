// Command puzzlebox starts the Puzzle Box server.
//
// It supports three commands:
//  1. "serve" (default) – runs the HTTP server exposing the REST API, WebSocket updates and an /mcp HTTP endpoint
//  2. "mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is reachable
//  3. "validate" – checks preset files and exits non-zero when one is invalid
//
// Flags control host/port, preset directory, results database, logging and
// optional ngrok tunneling for external access during development. Every
// flag can also be set from the environment or a .env file.
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
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/puzzlebox/api"
	"github.com/wricardo/puzzlebox/game/config"
	"github.com/wricardo/puzzlebox/game/results"
	"github.com/wricardo/puzzlebox/game/service"
	"github.com/wricardo/puzzlebox/game/session"
	"github.com/wricardo/puzzlebox/transport/mcp"
	"github.com/wricardo/puzzlebox/transport/websocket"
	"github.com/wricardo/puzzlebox/validate"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Puzzle Box Server"
)

const (
	sessionMaxAge   = 24 * time.Hour
	cleanupInterval = time.Hour
)

// settings is the resolved server configuration
type settings struct {
	Host      string
	Port      int
	ConfigDir string
	ResultsDB string
}

func (s settings) addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Warn().Err(err).Msg("error loading .env file")
		}
	} else {
		log.Debug().Msg("loaded environment variables from .env file")
	}

	if err := newApp(os.Stdout).Run(context.Background(), os.Args); err != nil {
		log.Fatal().Err(err).Msg(AppName)
	}
}

func newApp(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:    "puzzlebox",
		Usage:   "2048 and memory pair-match puzzles over REST, WebSocket and MCP",
		Version: Version,
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "port", Value: 8080, Usage: "HTTP server port", Sources: cli.EnvVars("PORT")},
			&cli.StringFlag{Name: "host", Value: "localhost", Usage: "HTTP server host", Sources: cli.EnvVars("HOST")},
			&cli.StringFlag{Name: "config-dir", Value: "configs", Usage: "directory containing game presets", Sources: cli.EnvVars("CONFIG_DIR")},
			&cli.StringFlag{Name: "results-db", Usage: "SQLite file for finished rounds (in memory when empty)", Sources: cli.EnvVars("RESULTS_DB")},
			&cli.StringFlag{Name: "log-level", Value: "info", Usage: "trace, debug, info, warn or error", Sources: cli.EnvVars("LOG_LEVEL")},
			&cli.BoolFlag{Name: "debug", Usage: "debug logging with a console writer"},
			&cli.BoolFlag{Name: "ngrok", Usage: "enable ngrok tunnel", Sources: cli.EnvVars("NGROK_ENABLED")},
			&cli.StringFlag{Name: "ngrok-auth", Usage: "ngrok auth token", Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN")},
			&cli.StringFlag{Name: "ngrok-domain", Usage: "custom ngrok domain", Sources: cli.EnvVars("NGROK_DOMAIN")},
		},
		Action: serveAction,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP server with REST API, WebSocket and MCP endpoint (default)",
				Action: serveAction,
			},
			{
				Name:    "mcp",
				Aliases: []string{"stdio-mcp", "mcp-stdio"},
				Usage:   "run an MCP stdio server backed by the HTTP API",
				Action:  mcpAction,
			},
			{
				Name:      "validate",
				Usage:     "validate preset files",
				ArgsUsage: "[file or directory...]",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					setupLogging(cmd.String("log-level"), cmd.Bool("debug"))
					return runValidate(out, cmd.String("config-dir"), cmd.Args().Slice())
				},
			},
		},
	}
}

// setupLogging configures the global zerolog logger
func setupLogging(level string, debug bool) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	if debug {
		lvl = zerolog.DebugLevel
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})
	}
	zerolog.SetGlobalLevel(lvl)
}

func settingsFrom(cmd *cli.Command) settings {
	return settings{
		Host:      cmd.String("host"),
		Port:      int(cmd.Int("port")),
		ConfigDir: cmd.String("config-dir"),
		ResultsDB: cmd.String("results-db"),
	}
}

func serveAction(ctx context.Context, cmd *cli.Command) error {
	setupLogging(cmd.String("log-level"), cmd.Bool("debug"))
	cfg := settingsFrom(cmd)
	log.Info().Str("version", Version).Str("mode", "serve").Msg("starting " + AppName)

	svcs, err := initializeServices(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer svcs.Close()

	var tunnel *ngrokSettings
	if cmd.Bool("ngrok") {
		tunnel = &ngrokSettings{AuthToken: cmd.String("ngrok-auth"), Domain: cmd.String("ngrok-domain")}
	}
	return runHTTPServer(ctx, cfg, svcs, tunnel)
}

func mcpAction(ctx context.Context, cmd *cli.Command) error {
	setupLogging(cmd.String("log-level"), cmd.Bool("debug"))
	cfg := settingsFrom(cmd)
	log.Info().Str("version", Version).Str("mode", "mcp").Msg("starting " + AppName)

	svcs, err := initializeServices(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	defer svcs.Close()

	return runStdioMCP(ctx, cfg, svcs)
}

// services is everything the transports share
type services struct {
	Game     service.GameService
	Sessions *session.Manager
	Hub      *websocket.Hub
	Results  results.Store

	cancel context.CancelFunc
}

// initializeServices wires the config and session managers, the results
// store, the WebSocket hub and the game service. It also starts the hub and
// a background routine that prunes stale sessions.
func initializeServices(ctx context.Context, cfg settings) (*services, error) {
	configManager, err := config.NewManager(cfg.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	var store results.Store
	if cfg.ResultsDB != "" {
		store, err = results.NewSQLiteStore(ctx, cfg.ResultsDB)
		if err != nil {
			return nil, fmt.Errorf("failed to open results database: %w", err)
		}
		log.Info().Str("path", cfg.ResultsDB).Msg("recording results to SQLite")
	} else {
		store = results.NewMemoryStore()
	}

	hub := websocket.NewHub()
	go hub.Run()

	sessionManager := session.NewManager()
	gameService := service.NewGameService(sessionManager, configManager,
		service.WithResults(store),
		service.WithNotifier(hub),
	)

	cleanupCtx, cancel := context.WithCancel(context.Background())
	go sessionCleanupRoutine(cleanupCtx, sessionManager, cleanupInterval)

	return &services{
		Game:     gameService,
		Sessions: sessionManager,
		Hub:      hub,
		Results:  store,
		cancel:   cancel,
	}, nil
}

// Close stops background work and releases the results store
func (s *services) Close() {
	s.cancel()
	s.Hub.Stop()
	if err := s.Results.Close(context.Background()); err != nil {
		log.Error().Err(err).Msg("failed to close results store")
	}
}

// sessionCleanupRoutine periodically removes sessions that have not been
// accessed within sessionMaxAge
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			manager.CleanupExpiredSessions(sessionMaxAge)
		}
	}
}

// newHandler mounts the MCP endpoint next to the REST API. The MCP client
// calls back into the API at baseURL.
func newHandler(svcs *services, baseURL string) http.Handler {
	apiServer := api.NewServer(svcs.Game, svcs.Hub)
	apiServer.Mount("/mcp", mcpHandler(mcp.NewClient(baseURL).GetMCPServer()))
	return apiServer
}

func mcpHandler(mcpServer *server.MCPServer) http.HandlerFunc {
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

		response := mcpServer.HandleMessage(r.Context(), body)
		if response == nil {
			// notifications have no response
			w.WriteHeader(http.StatusAccepted)
			return
		}

		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(responseData)
	}
}

type ngrokSettings struct {
	AuthToken string
	Domain    string
}

// runHTTPServer serves until SIGINT or SIGTERM. When tunnel is set the same
// handler is also served through an ngrok endpoint.
func runHTTPServer(ctx context.Context, cfg settings, svcs *services, tunnel *ngrokSettings) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := cfg.addr()
	handler := newHandler(svcs, "http://"+addr)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup
	errCh := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		log.Info().
			Str("addr", addr).
			Str("api", "http://"+addr+"/api").
			Str("websocket", "ws://"+addr+"/ws?session=<session_id>").
			Str("mcp", "http://"+addr+"/mcp").
			Msg("HTTP server listening")

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	if tunnel != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			serveNgrok(ctx, *tunnel, handler)
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case runErr = <-errCh:
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	wg.Wait()
	log.Info().Msg("server stopped")
	return runErr
}

func serveNgrok(ctx context.Context, tunnel ngrokSettings, handler http.Handler) {
	if tunnel.AuthToken == "" {
		log.Warn().Msg("ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN or NGROK_AUTH_TOKEN)")
		return
	}

	log.Info().Msg("starting ngrok tunnel")

	var endpoint ngrokConfig.Tunnel
	if tunnel.Domain != "" {
		endpoint = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(tunnel.Domain))
		log.Info().Str("domain", tunnel.Domain).Msg("using custom ngrok domain")
	} else {
		endpoint = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, endpoint, ngrok.WithAuthtoken(tunnel.AuthToken))
	if err != nil {
		log.Error().Err(err).Msg("failed to start ngrok tunnel")
		return
	}

	// Serve returns once the tunnel is closed
	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close ngrok tunnel")
		}
	}()

	url := tun.URL()
	log.Info().
		Str("url", url).
		Str("api", url+"/api").
		Str("mcp", url+"/mcp").
		Msg("ngrok tunnel established")

	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		log.Error().Err(err).Msg("ngrok server error")
	}
	log.Info().Msg("ngrok tunnel closed")
}

// apiAvailable reports whether a Puzzle Box API answers at baseURL
func apiAvailable(ctx context.Context, baseURL string) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/health", nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// startInternalServer serves the API on a random loopback port and returns
// its base URL
func startInternalServer(svcs *services) (string, *http.Server, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", nil, fmt.Errorf("failed to get available port: %w", err)
	}
	baseURL := "http://" + listener.Addr().String()

	httpServer := &http.Server{Handler: api.NewServer(svcs.Game, svcs.Hub)}
	go func() {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("internal HTTP server error")
		}
	}()
	return baseURL, httpServer, nil
}

// runStdioMCP runs an MCP stdio server. It reuses an API already listening
// on the configured address, and otherwise starts an internal one.
func runStdioMCP(ctx context.Context, cfg settings, svcs *services) error {
	baseURL := "http://" + cfg.addr()
	log.Info().Str("url", baseURL).Msg("checking for external API server")

	if apiAvailable(ctx, baseURL) {
		log.Info().Str("url", baseURL).Msg("MCP stdio server ready (using external HTTP server)")
	} else {
		internalURL, httpServer, err := startInternalServer(svcs)
		if err != nil {
			return err
		}
		defer httpServer.Close()
		baseURL = internalURL
		log.Info().Str("url", baseURL).Msg("MCP stdio server ready (using internal HTTP server)")
	}

	return server.ServeStdio(mcp.NewClient(baseURL).GetMCPServer())
}

// runValidate validates the given files and directories, or dir when none
// are given
func runValidate(out io.Writer, dir string, paths []string) error {
	if len(paths) == 0 {
		paths = []string{dir}
	}

	var all []validate.Result
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("cannot validate %s: %w", path, err)
		}
		if !info.IsDir() {
			all = append(all, validate.File(path))
			continue
		}
		found, err := validate.Dir(path)
		if err != nil {
			return err
		}
		all = append(all, found...)
	}

	if !validate.Report(out, all) {
		return errors.New("some configurations are invalid")
	}
	return nil
}
