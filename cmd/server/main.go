package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kiliankoe/pinpoint/internal/api"
	"github.com/kiliankoe/pinpoint/internal/config"
	"github.com/kiliankoe/pinpoint/internal/game"
	"github.com/kiliankoe/pinpoint/internal/logging"
	"github.com/kiliankoe/pinpoint/internal/ws"
	staticserver "github.com/kiliankoe/pinpoint/static"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const version = "v0.3.0-dev"

const reapInterval = time.Minute

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newCmd() *cobra.Command {
	var port, envFile string

	cmd := &cobra.Command{
		Use:   "pinpoint",
		Short: "Pinpoint - ask yes/no questions, then guess the secret country or city.",
		Long: `Pinpoint - ask yes/no questions, then guess the secret country or city.

Environment Variables:
  PORT                Port to listen on (default: 8080)
  PUBLIC_URL          External base URL for share links and QR codes
  DEFAULT_PROVIDER    AI provider: "openai", "ollama" or "gemini" (default: openai)
  DEFAULT_MODEL       AI model to use (default: gpt-4o)
  OPENAI_API_KEY      OpenAI API key (required for OpenAI provider)
  OPENAI_BASE_URL     Custom OpenAI API base URL (optional)
  OLLAMA_HOST         Ollama host URL (default: http://localhost:11434)
  GEMINI_API_KEY      Gemini API key (required for Gemini provider)
  ORACLE_TIMEOUT      Time allowed per answer before "Maybe" (default: 15s)
  SESSION_TTL         Idle time before a game is discarded (default: 1h)
  GUESS_JUDGE         "match" or "random" (default: match)
  LOCATIONS_FILE      YAML file with country and city pools (optional)
  EXPORT_ENABLED      Export finished games to file (default: false)
  EXPORT_FILE         Path to export finished games (default: ./pinpoint-results.txt)
  LOG_LEVEL           trace, debug, info, warn or error (default: info)
  LOG_FILE            Also write JSON logs to this rotated file (optional)`,
		Args:          cobra.NoArgs,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var files []string
			if envFile != "" {
				files = append(files, envFile)
			}
			cfg, err := config.FromEnv(files...)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			return run(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&port, "port", "p", "", "port to listen on (overrides PORT env var)")
	fs.StringVar(&envFile, "env-file", "", "load environment from this file instead of .env")

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("Pinpoint {{.Version}}\n")

	return cmd
}

func run(ctx context.Context, cfg config.Config) error {
	closeLog, err := logging.Setup(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return err
	}
	defer closeLog()

	pools := game.DefaultPools
	if cfg.LocationsFile != "" {
		if pools, err = game.LoadPools(cfg.LocationsFile); err != nil {
			return err
		}
		log.Info().Str("file", cfg.LocationsFile).Msg("loaded location pools")
	}

	providers, closeProviders, err := newProviders(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeProviders()
	provider, err := providers.Get(cfg.DefaultProvider)
	if err != nil {
		return err
	}

	judge, err := newJudge(cfg.GuessJudge)
	if err != nil {
		return err
	}

	rm, err := game.NewRoomManager(game.Options{
		Pools:    pools,
		Oracle:   game.NewOracle(provider, cfg.DefaultModel, cfg.OracleTimeout),
		Judge:    judge,
		TTL:      cfg.SessionTTL,
		OnFinish: exporter(cfg),
	})
	if err != nil {
		return err
	}

	r := newRouter()
	page := staticserver.Handler()
	api.New(rm, cfg.PublicURL, page).Register(r)
	sock := ws.New(rm)
	io := sock.Mount(r)
	defer io.Close()

	// Serve frontend for all other routes
	r.NoRoute(gin.WrapH(page))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("port", cfg.Port).Str("provider", cfg.DefaultProvider).Str("model", cfg.DefaultModel).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return rm.RunReaper(gctx, reapInterval)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// newRouter sets up gin with recovery and a zerolog access log that skips
// Socket.IO polling noise.
func newRouter() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/socket.io") {
			return
		}
		log.Info().Str("method", c.Request.Method).Str("path", path).Int("status", c.Writer.Status()).Dur("dur", time.Since(start)).Msg("http")
	})
	return r
}
