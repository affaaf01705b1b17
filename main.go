package main

import (
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/berryhill/draftfly-wp/internal/api"
	"github.com/berryhill/draftfly-wp/internal/auth"
	"github.com/berryhill/draftfly-wp/internal/config"
	"github.com/berryhill/draftfly-wp/internal/contentstore"
	"github.com/berryhill/draftfly-wp/internal/db"
	"github.com/berryhill/draftfly-wp/internal/ingest"
	"github.com/berryhill/draftfly-wp/internal/keystore"
	"github.com/berryhill/draftfly-wp/internal/logger"
	"github.com/berryhill/draftfly-wp/internal/logview"
	"github.com/berryhill/draftfly-wp/internal/media"
	"github.com/berryhill/draftfly-wp/internal/render"
)

func main() {
	// .env is optional; secrets may come from the real environment.
	_ = godotenv.Load()

	configPath := os.Getenv("DRAFTFLY_CONFIG")
	if configPath == "" {
		configPath = "config.yaml"
	}
	if err := config.LoadConfig(configPath); err != nil {
		bootLog := logger.New("info", "")
		bootLog.Fatal().Err(err).Str("path", configPath).Msg("Error loading config")
	}
	cfg := config.AppConfig

	l := logger.New(cfg.Logging.Level, cfg.Logging.File)
	config.SetLogger(l)
	db.SetLogger(l)
	keystore.SetLogger(l)
	render.SetLogger(l)
	contentstore.SetLogger(l)
	media.SetLogger(l)
	ingest.SetLogger(l)
	api.SetLogger(l)

	sqlite := db.NewSQLite(cfg.Database.Path)
	if err := sqlite.InitDB(); err != nil {
		l.Fatal().Err(err).Msg("Error initializing database")
	}
	defer sqlite.Close()

	keys := keystore.New(sqlite)

	wp := contentstore.NewWordPress(
		cfg.WordPress.BaseURL,
		cfg.WordPress.Username,
		os.Getenv("DRAFTFLY_WP_APP_PASSWORD"),
		time.Duration(cfg.WordPress.TimeoutSeconds)*time.Second,
	)

	images := media.NewSideloader(wp,
		time.Duration(cfg.Media.FetchTimeoutSeconds)*time.Second,
		cfg.Media.MaxFetchBytes,
	)
	if cfg.Media.Archive.Enabled {
		archive, err := media.NewArchive(
			os.Getenv("DRAFTFLY_S3_ACCESS_KEY_ID"),
			os.Getenv("DRAFTFLY_S3_SECRET_ACCESS_KEY"),
			cfg.Media.Archive.Endpoint,
			cfg.Media.Archive.Bucket,
		)
		if err != nil {
			l.Fatal().Err(err).Msg("Error initializing media archive")
		}
		images = images.WithArchive(archive)
	}

	posts := ingest.New(wp, render.New(cfg.Markdown.Renderer, cfg.Markdown.SyntaxTheme), images)

	handler := api.New(
		cfg.Server.RoutePrefix,
		auth.NewAPIKeyProvider(keys),
		auth.NewAdminTokenProvider(os.Getenv("DRAFTFLY_ADMIN_TOKEN")),
		posts,
		keys,
		logview.New(cfg.Logging.File),
	)

	addr := cfg.Server.Host + ":" + cfg.Server.Port
	l.Info().Str("addr", addr).Str("prefix", cfg.Server.RoutePrefix).Msg("Starting server")
	if err := http.ListenAndServe(addr, handler.Routes()); err != nil {
		l.Fatal().Err(err).Msg("Server stopped")
	}
}
