// Command warehouse starts the warehouse robot simulator server.
//
// It supports two modes:
//  1. "server" (default) – runs the HTTP server exposing REST API, WebSocket, and an /mcp HTTP endpoint
//  2. "stdio-mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//
// Flags control host/port, config directory, debug logging, version output,
// and optional ngrok tunneling for easy external access during development.
package main

import (
	"context"
	"encoding/json"
	"flag"
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
	"github.com/sirupsen/logrus"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/mcp-training/warehouse/api"
	"github.com/wricardo/mcp-training/warehouse/game/config"
	"github.com/wricardo/mcp-training/warehouse/game/service"
	"github.com/wricardo/mcp-training/warehouse/game/session"
	"github.com/wricardo/mcp-training/warehouse/transport/mcp"
	"github.com/wricardo/mcp-training/warehouse/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Warehouse Robot Simulator"
)

const (
	sessionMaxAge   = 24 * time.Hour
	cleanupInterval = time.Hour
)

// Configuration flags control how the server starts and which services are enabled.
var (
	port         = flag.Int("port", 8080, "HTTP server port")
	host         = flag.String("host", "localhost", "HTTP server host")
	configDir    = flag.String("config-dir", getConfigDirDefault(), "Directory containing puzzle configurations")
	debug        = flag.Bool("debug", false, "Enable debug logging")
	jsonLogs     = flag.Bool("json-logs", false, "Emit logs as JSON")
	version      = flag.Bool("version", false, "Show version information")
	ngrokEnabled = flag.Bool("ngrok", false, "Enable ngrok tunnel")
	ngrokAuth    = flag.String("ngrok-auth", "", "Ngrok auth token (or use NGROK_AUTHTOKEN env var)")
	ngrokDomain  = flag.String("ngrok-domain", "", "Custom ngrok domain (optional)")
)

// getConfigDirDefault returns the default configuration directory.
// It first honors the CONFIG_DIR environment variable, then falls back to "configs".
func getConfigDirDefault() string {
	if configDir := os.Getenv("CONFIG_DIR"); configDir != "" {
		return configDir
	}
	return "configs"
}

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS] [MODE]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "%s v%s\n\n", AppName, Version)
		fmt.Fprintf(os.Stderr, "Available modes:\n")
		fmt.Fprintf(os.Stderr, "  server, http     Run HTTP server with API, WebSocket, and MCP endpoint (default)\n")
		fmt.Fprintf(os.Stderr, "  stdio-mcp        Run MCP stdio server with internal HTTP server\n")
		fmt.Fprintf(os.Stderr, "  mcp-stdio        Alias for stdio-mcp\n")
		fmt.Fprintf(os.Stderr, "  mcp              Alias for stdio-mcp\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                    # Run HTTP server on default port 8080\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -port 9090         # Run HTTP server on port 9090\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s stdio-mcp          # Run MCP stdio server\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s mcp -port 9090     # Run MCP stdio server with internal HTTP on port 9090\n", os.Args[0])
	}
}

// newLogger builds the process logger. Logs go to stderr so stdio MCP keeps stdout clean.
func newLogger(debug, asJSON bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	if debug {
		logger.SetLevel(logrus.DebugLevel)
		logger.SetReportCaller(true)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}
	if asJSON {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}

// main parses flags, initializes services, and starts the selected mode.
func main() {
	// Load .env before flag defaults are read
	envErr := godotenv.Load()

	flag.Parse()

	// Show version if requested
	if *version {
		fmt.Printf("%s v%s\n", AppName, Version)
		os.Exit(0)
	}

	logger := newLogger(*debug, *jsonLogs)
	if envErr == nil {
		logger.Info("Loaded environment variables from .env file")
	} else if !os.IsNotExist(envErr) {
		logger.WithError(envErr).Warn("Error loading .env file")
	}

	// Determine mode from command
	args := flag.Args()
	mode := "server" // default
	if len(args) > 0 {
		mode = args[0]
	}

	logger.WithField("mode", mode).Infof("Starting %s v%s", AppName, Version)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Initialize services
	gameService, err := initializeServices(ctx, *configDir, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize services")
	}

	switch mode {
	case "stdio-mcp", "mcp-stdio", "mcp":
		runStdioMCPWithInternalServer(ctx, gameService, logger)

	case "server", "http":
		runHTTPServer(ctx, gameService, logger)

	default:
		logger.Fatalf("Unknown mode: %s. Use 'server' (default) or 'stdio-mcp'", mode)
	}
}

// newHandler mounts the REST API and the /mcp proxy endpoint on one mux.
func newHandler(apiServer http.Handler, mcpClient *mcp.Client) http.Handler {
	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)

	mainRouter.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
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
	})

	return mainRouter
}

// runHTTPServer starts the HTTP server with REST API, WebSocket hub, and an /mcp proxy endpoint.
// If ngrok is enabled (via flag or environment), it also provisions a public tunnel.
func runHTTPServer(ctx context.Context, gameService service.GameService, logger *logrus.Logger) {
	hub := websocket.NewHubWithLogger(logger)
	go hub.Run(ctx)

	apiServer := api.NewServerWithLogger(gameService, hub, logger)

	addr := fmt.Sprintf("%s:%d", *host, *port)
	mcpClient := mcp.NewClient(fmt.Sprintf("http://%s", addr))
	handler := newHandler(apiServer, mcpClient)

	httpServer := &http.Server{
		Addr:        addr,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// Scripted runs of large puzzles can take a while
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()

		logger.WithFields(logrus.Fields{
			"addr":      addr,
			"api":       fmt.Sprintf("http://%s/api", addr),
			"websocket": fmt.Sprintf("ws://%s/ws?session=<session_id>", addr),
			"mcp":       fmt.Sprintf("http://%s/mcp", addr),
		}).Info("HTTP server listening")

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("HTTP server failed")
		}
	}()

	if ngrokRequested(*ngrokEnabled, os.Getenv("NGROK_ENABLED")) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrokTunnel(ctx, handler, logger)
		}()
	}

	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("HTTP server shutdown error")
	}

	wg.Wait()
	logger.Info("Server stopped")
}

// ngrokRequested reports whether the tunnel is enabled by flag or environment.
func ngrokRequested(flagValue bool, envValue string) bool {
	return flagValue || envValue == "true" || envValue == "1"
}

// resolveNgrokToken prefers the flag, then NGROK_AUTHTOKEN, then NGROK_AUTH_TOKEN.
func resolveNgrokToken(flagValue string, getenv func(string) string) string {
	if flagValue != "" {
		return flagValue
	}
	if token := getenv("NGROK_AUTHTOKEN"); token != "" {
		return token
	}
	return getenv("NGROK_AUTH_TOKEN")
}

func runNgrokTunnel(ctx context.Context, handler http.Handler, logger *logrus.Logger) {
	authToken := resolveNgrokToken(*ngrokAuth, os.Getenv)
	if authToken == "" {
		logger.Warn("Ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN env var)")
		return
	}

	logger.Info("Starting ngrok tunnel...")

	domain := *ngrokDomain
	if domain == "" {
		domain = os.Getenv("NGROK_DOMAIN")
	}

	var tunnel ngrokConfig.Tunnel
	if domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(domain))
		logger.WithField("domain", domain).Info("Using custom ngrok domain")
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(authToken))
	if err != nil {
		logger.WithError(err).Error("Failed to start ngrok tunnel")
		return
	}
	defer func() {
		if err := tun.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close ngrok tunnel")
		}
	}()

	ngrokURL := tun.URL()
	logger.WithFields(logrus.Fields{
		"url":       ngrokURL,
		"api":       ngrokURL + "/api",
		"websocket": ngrokURL + "/ws?session=<session_id>",
		"mcp":       ngrokURL + "/mcp",
	}).Info("Ngrok tunnel established")

	go func() {
		<-ctx.Done()
		tun.Close()
	}()

	if err := http.Serve(tun, handler); err != nil && err != http.ErrServerClosed {
		logger.WithError(err).Debug("Ngrok server stopped")
	}
	logger.Info("Ngrok tunnel closed")
}

// initializeServices wires session/config managers and the game service.
// It also starts a background cleanup routine that stops with ctx.
func initializeServices(ctx context.Context, dir string, logger *logrus.Logger) (service.GameService, error) {
	configManager, err := config.NewManagerWithLogger(dir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	sessionManager := session.NewManagerWithLogger(logger)
	gameService := service.NewGameServiceWithLogger(sessionManager, configManager, logger)

	go sessionCleanupRoutine(ctx, sessionManager, cleanupInterval, sessionMaxAge, logger)

	return gameService, nil
}

// sessionCleanupRoutine periodically removes sessions that have not been accessed
// within maxAge.
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, interval, maxAge time.Duration, logger logrus.FieldLogger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := manager.CleanupExpiredSessions(maxAge); removed > 0 {
				logger.WithField("removed", removed).Info("Cleaned up expired sessions")
			}
		}
	}
}

// runStdioMCPWithInternalServer runs an MCP stdio server.
// It tries to reuse an external API at http://localhost:8080; if unavailable, it
// starts a minimal internal HTTP API bound to a random loopback port and targets that.
func runStdioMCPWithInternalServer(ctx context.Context, gameService service.GameService, logger *logrus.Logger) {
	externalURL := "http://localhost:8080"
	baseURL := externalURL

	logger.WithField("url", externalURL).Info("Checking for external API server")

	if !apiReachable(externalURL) {
		logger.Info("No external API server found, starting internal HTTP server")

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			logger.WithError(err).Fatal("Failed to get available port")
		}
		baseURL = fmt.Sprintf("http://%s", listener.Addr().String())

		hub := websocket.NewHubWithLogger(logger)
		go hub.Run(ctx)

		httpServer := &http.Server{Handler: api.NewServerWithLogger(gameService, hub, logger)}
		go func() {
			if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
				logger.WithError(err).Error("Internal HTTP server error")
			}
		}()
		go func() {
			<-ctx.Done()
			httpServer.Close()
		}()
	}

	mcpClient := mcp.NewClient(baseURL)
	logger.WithField("api", baseURL).Info("MCP stdio server ready")

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		logger.WithError(err).Fatal("MCP stdio server error")
	}
}

// apiReachable probes the health endpoint of an existing server.
func apiReachable(baseURL string) bool {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(baseURL + "/healthz")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode < 500
}
