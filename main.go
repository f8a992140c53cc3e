package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/discolens/discolens-bridge/internal/admin"
	"github.com/discolens/discolens-bridge/internal/cache"
	"github.com/discolens/discolens-bridge/internal/config"
	"github.com/discolens/discolens-bridge/internal/observe"
	"github.com/discolens/discolens-bridge/internal/proxy"
	"github.com/discolens/discolens-bridge/internal/server"
	"github.com/discolens/discolens-bridge/internal/token"
	"github.com/discolens/discolens-bridge/internal/upstream"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/justinas/alice"
)

// Cache lifetimes per route. AI-generated text is effectively immutable
// for a given input, so it lives much longer than metadata lookups.
const (
	summaryTTL  = 180 * 24 * time.Hour
	linkTTL     = 30 * 24 * time.Hour
	metadataTTL = 30 * 24 * time.Hour
	spotifyTTL  = 45 * 24 * time.Hour
)

func configureServerRoutes(cfg config.Config, store cache.Store) (http.Handler, error) {
	// wrap a mux such that HTTP telemetry is configured by default
	muxWithoutTelemetry := http.NewServeMux()
	mux := observe.NewMux(muxWithoutTelemetry)

	// configure middleware: every read route answers any origin; the fact
	// route enforces its own allow-list instead.
	requestLimitBytes := int64(20 << 10) // 20 KB
	requestLimiter := maxRequestSize(requestLimitBytes)

	wildcardCors := cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	})
	adminCors := cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	})

	readRouteMiddleware := alice.New(requestLimiter, wildcardCors)
	factRouteMiddleware := alice.New(requestLimiter, originAllowList(cfg.Cors.FactAllowedOrigins))
	adminRouteMiddleware := alice.New(requestLimiter, adminCors)
	standardRouteMiddleware := alice.New(requestLimiter)

	// upstream adapters share the (instrumented) default client
	openAI := upstream.NewOpenAI(cfg.OpenAI, nil)
	perplexity := upstream.NewPerplexity(cfg.Pplx, nil)
	lastfm := upstream.NewLastfm(cfg.Lastfm, nil)
	discogs := upstream.NewDiscogs(cfg.Discogs, nil)
	songLink := upstream.NewSongLink("", nil)
	spotify := upstream.NewSpotify(cfg.Spotify, nil)

	tokens := token.NewManager(store, cfg.Spotify, nil)
	adminStore := admin.NewStore(store)

	albumProxy := proxy.New(store, "album:",
		func(p proxy.Params) string { return proxy.Key(p["artist"], p["album"]) },
		func(ctx context.Context, p proxy.Params) (string, error) {
			return openAI.Complete(ctx, "",
				fmt.Sprintf("Write a short, engaging summary of the album %q by %s.", p["album"], p["artist"]))
		},
		proxy.WithTTL(summaryTTL),
	)

	artistProxy := proxy.New(store, "artist:",
		func(p proxy.Params) string { return proxy.Key(p["artist"]) },
		func(ctx context.Context, p proxy.Params) (string, error) {
			return perplexity.Complete(ctx, "",
				fmt.Sprintf("Write one concise paragraph introducing the musical artist %s.", p["artist"]))
		},
		proxy.WithTTL(summaryTTL),
	)

	// genre summaries carry no TTL: the store's own semantics apply
	genreProxy := proxy.New(store, "genre:",
		func(p proxy.Params) string { return proxy.Key(p["genre"]) },
		func(ctx context.Context, p proxy.Params) (string, error) {
			return openAI.Complete(ctx, "",
				fmt.Sprintf("Describe the %s music genre in two or three sentences.", p["genre"]))
		},
	)

	linksProxy := proxy.New(store, "songlink:",
		func(p proxy.Params) string { return proxy.Key(p["url"]) },
		func(ctx context.Context, p proxy.Params) (string, error) {
			return songLink.Resolve(ctx, p["url"])
		},
		proxy.WithTTL(linkTTL),
	)

	spotifyProxy := proxy.New(store, "spotify:",
		func(p proxy.Params) string { return proxy.Key(p["type"], p["id"]) },
		func(ctx context.Context, p proxy.Params) (string, error) {
			bearer, err := tokens.Token(ctx)
			if err != nil {
				return "", err
			}
			return spotify.Entity(ctx, bearer, p["type"], p["id"])
		},
		proxy.WithTTL(spotifyTTL),
	)

	lastfmArtistProxy := proxy.New(store, "lastfm:artist:",
		func(p proxy.Params) string { return proxy.Key(p["artist"]) },
		func(ctx context.Context, p proxy.Params) (string, error) {
			return lastfm.ArtistInfo(ctx, p["artist"])
		},
		proxy.WithTTL(metadataTTL),
	)

	discogsProxy := proxy.New(store, "discogs:",
		func(p proxy.Params) string { return proxy.Key(p["artist"], p["album"]) },
		func(ctx context.Context, p proxy.Params) (string, error) {
			return discogs.SearchRelease(ctx, p["artist"], p["album"])
		},
		proxy.WithTTL(metadataTTL),
	)

	// the fact pool has no TTL, so its size is bounded by eviction instead
	factProxy := proxy.New(store, "fact:",
		func(p proxy.Params) string { return proxy.Key(p["name"]) },
		func(ctx context.Context, p proxy.Params) (string, error) {
			system := ""
			if active, err := adminStore.ActivePersonality(ctx); err == nil {
				system = active.Prompt
			}
			return openAI.Complete(ctx, system,
				fmt.Sprintf("Share one surprising fact about the musical artist %s.", p["name"]))
		},
		proxy.WithMaxEntries(cfg.Cache.FactMaxEntries),
	)

	mux.Handle("GET /album", readRouteMiddleware.Then(handleTextProxy(albumProxy, "artist", "album")))
	mux.Handle("GET /artist", readRouteMiddleware.Then(handleTextProxy(artistProxy, "artist")))
	mux.Handle("GET /genre", readRouteMiddleware.Then(handleTextProxy(genreProxy, "genre")))
	mux.Handle("GET /links", readRouteMiddleware.Then(handleRawProxy(linksProxy, "url")))
	mux.Handle("GET /spotify", readRouteMiddleware.Then(handleSpotifyDetail(spotifyProxy)))
	mux.Handle("GET /lastfm/artist", readRouteMiddleware.Then(handleRawProxy(lastfmArtistProxy, "artist")))
	mux.Handle("GET /discogs", readRouteMiddleware.Then(handleRawProxy(discogsProxy, "artist", "album")))
	mux.Handle("GET /fact", factRouteMiddleware.Then(handleTextProxy(factProxy, "name")))

	mux.Handle("GET /api/personalities", adminRouteMiddleware.Then(handleListPersonalities(adminStore)))
	mux.Handle("POST /api/personalities", adminRouteMiddleware.Then(handleSavePersonality(adminStore)))
	mux.Handle("PUT /api/personalities", adminRouteMiddleware.Then(handleSavePersonality(adminStore)))
	mux.Handle("DELETE /api/personalities/{id}", adminRouteMiddleware.Then(handleDeletePersonality(adminStore)))
	mux.Handle("GET /api/active-personality", adminRouteMiddleware.Then(handleGetActivePersonality(adminStore)))
	mux.Handle("PUT /api/active-personality", adminRouteMiddleware.Then(handleSetActivePersonality(adminStore)))
	mux.Handle("GET /api/game-data", adminRouteMiddleware.Then(handleGetGameData(adminStore)))
	mux.Handle("PUT /api/game-data", adminRouteMiddleware.Then(handleSetGameData(adminStore)))

	// healthchecks are not included in telemetry
	muxWithoutTelemetry.Handle("GET /healthcheck", standardRouteMiddleware.Then(handleHealthCheck()))

	return mux, nil
}

func main() {
	configureLogging()

	logBuildInfo()

	err := launchServer()
	if err != nil {
		log.Fatal().Err(err).Msg("server failed to start")
	}
}

func launchServer() error {
	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("configuration load failed: %w", err)
	}

	shutdown := &server.ShutdownHooks{}

	// configure telemetry, including wrapping the default HTTP client
	shutdownTelemetry, err := observe.Configure(ctx, cfg.Observe)
	if err != nil {
		return fmt.Errorf("telemetry bootstrap failed: %w", err)
	}
	shutdown.AddContext("telemetry", shutdownTelemetry)

	http.DefaultTransport = observe.HTTPTransport(
		configureHTTPTransport(cfg.Server),
		cfg.Observe,
	)
	http.DefaultClient = &http.Client{
		Transport: http.DefaultTransport,
	}

	store, err := cache.NewFromConfig(cfg.Cache)
	if err != nil {
		return fmt.Errorf("store configuration failed: %w", err)
	}
	shutdown.AddClose("store", store)

	handler, err := configureServerRoutes(cfg, store)
	if err != nil {
		return fmt.Errorf("server routing configuration failed: %w", err)
	}

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           handler,
		MaxHeaderBytes:    20 << 10,         // 20 KB
		ReadHeaderTimeout: 20 * time.Second, // Prevent Slowloris attacks
	}

	err = serveHTTP(ctx, cfg.Server, httpServer, shutdown)
	if err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

// serveHTTP runs the server until a termination signal arrives, then
// shuts down gracefully within the configured timeout and executes the
// registered shutdown hooks.
func serveHTTP(ctx context.Context, cfg config.ServerConfig, httpServer *http.Server, shutdown *server.ShutdownHooks) error {
	signalCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", httpServer.Addr).Msg("server starting")
		serveErr <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		return err
	case <-signalCtx.Done():
		log.Info().Msg("termination requested, shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.ShutdownTimeoutSeconds)*time.Second)
	defer cancel()

	err := httpServer.Shutdown(shutdownCtx)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Warn().Err(err).Msg("graceful shutdown incomplete")
	}

	shutdown.Execute(shutdownCtx)

	return nil
}

func configureLogging() {
	// Set global level to the minimum: allows the Open Telemetry logging to
	// be configured separately. However, it means that any logger that sets
	// its level will log as this effectively disables the global level.
	zerolog.SetGlobalLevel(zerolog.Level(-128))

	// default level is Info
	log.Logger = log.Level(zerolog.InfoLevel)

	if os.Getenv("ENV") == "development" {
		log.Logger = log.
			Output(zerolog.ConsoleWriter{Out: os.Stdout}).
			Level(zerolog.DebugLevel)
	}

	zerolog.DefaultContextLogger = &log.Logger
}

func logBuildInfo() {
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	ev := log.Info()
	for _, v := range buildInfo.Settings {
		if strings.HasPrefix(v.Key, "vcs.") ||
			strings.HasPrefix(v.Key, "GO") ||
			v.Key == "CGO_ENABLED" {
			ev = ev.Str(v.Key, v.Value)
		}
	}

	ev.Msg("build information")
}

func configureHTTPTransport(cfg config.ServerConfig) *http.Transport {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	transport.MaxIdleConns = cfg.OutgoingHTTPMaxIdleConns
	transport.MaxConnsPerHost = cfg.OutgoingHTTPMaxConnsPerHost

	return transport
}
