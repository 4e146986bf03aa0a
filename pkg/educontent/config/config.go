package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tendant/edu-content/pkg/educontent"
	"github.com/tendant/edu-content/pkg/educontent/api"
	"github.com/tendant/edu-content/pkg/educontent/auth"
	"github.com/tendant/edu-content/pkg/educontent/repo/memory"
	repopg "github.com/tendant/edu-content/pkg/educontent/repo/postgres"
	fsstorage "github.com/tendant/edu-content/pkg/educontent/storage/fs"
	memorystorage "github.com/tendant/edu-content/pkg/educontent/storage/memory"
	s3storage "github.com/tendant/edu-content/pkg/educontent/storage/s3"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top of library defaults.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() ServerConfig {
	return ServerConfig{
		Port:               "8080",
		Environment:        "development",
		LogLevel:           "info",
		DatabaseType:       "memory",
		StorageType:        "memory",
		FilesURLPrefix:     "/files",
		S3:                 s3storage.Config{Region: "us-east-1", SSEAlgorithm: "AES256"},
		MaxUploadBytes:     educontent.DefaultMaxUploadBytes,
		MaxBatch:           educontent.DefaultMaxBatch,
		AllowedMediaTypes:  slices.Clone(educontent.DefaultAllowedMediaTypes),
		TokenTTL:           auth.DefaultTokenTTL,
		EnableEventLogging: true,
		RequestTimeout:     60 * time.Second,
	}
}

// ServerConfig represents server configuration for the content service
type ServerConfig struct {
	Port        string
	Environment string // development, production, testing
	LogLevel    string // debug, info, warn, error
	LogFormat   string // json or text; empty picks by environment

	// Database configuration
	DatabaseURL   string
	DatabaseType  string // "memory", "postgres"
	DBSchema      string // optional Postgres search_path
	RunMigrations bool

	// Storage configuration
	StorageType    string // "memory", "fs", "s3"
	FSBaseDir      string
	FilesURLPrefix string // route the fs backend is served under
	S3             s3storage.Config

	// Upload policy
	MaxUploadBytes    int64
	MaxBatch          int
	AllowedMediaTypes []string

	// Identity
	JWTSecret   string
	TokenTTL    time.Duration
	AdminEmails []string

	// Server options
	HideForbidden      bool
	AllowedOrigins     []string
	EnableEventLogging bool
	RequestTimeout     time.Duration
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	if c.DatabaseType != "memory" && c.DatabaseType != "postgres" {
		return errors.New("database_type must be 'memory' or 'postgres'")
	}
	if c.DatabaseType == "postgres" && c.DatabaseURL == "" {
		return errors.New("database_url is required when using postgres")
	}

	switch c.StorageType {
	case "memory":
	case "fs":
		if c.FSBaseDir == "" {
			return errors.New("filesystem base directory is required when using fs storage")
		}
	case "s3":
		if c.S3.Bucket == "" {
			return errors.New("s3 bucket is required when using s3 storage")
		}
	default:
		return fmt.Errorf("unsupported storage type: %s", c.StorageType)
	}

	if c.MaxUploadBytes <= 0 {
		return errors.New("max upload size must be positive")
	}
	if c.MaxBatch <= 0 {
		return errors.New("max batch size must be positive")
	}
	if len(c.AllowedMediaTypes) == 0 {
		return errors.New("at least one allowed media type is required")
	}

	if len(c.JWTSecret) < 16 {
		return errors.New("jwt secret must be at least 16 characters")
	}
	if c.TokenTTL <= 0 {
		return errors.New("token ttl must be positive")
	}

	return nil
}

// Runtime holds the services built from a ServerConfig.
type Runtime struct {
	Content educontent.Service
	Auth    *auth.Service
	// Ready is nil when no external dependency needs checking.
	Ready       api.Pinger
	Files       http.Handler
	FilesPrefix string

	closers []func()
}

// Close releases connections held by the runtime.
func (rt *Runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
	rt.closers = nil
}

// RouterConfig returns the router wiring for the runtime.
func (c *ServerConfig) RouterConfig(rt *Runtime) api.RouterConfig {
	return api.RouterConfig{
		Content:        rt.Content,
		Auth:           rt.Auth,
		AllowedOrigins: c.AllowedOrigins,
		Ready:          rt.Ready,
		Files:          rt.Files,
		FilesPrefix:    rt.FilesPrefix,
		Timeout:        c.RequestTimeout,
		RequestLogging: true,
	}
}

// Build creates the content and identity services described by the
// configuration. Callers must Close the runtime.
func (c *ServerConfig) Build(ctx context.Context, logger *slog.Logger) (*Runtime, error) {
	if logger == nil {
		logger = slog.Default()
	}
	rt := &Runtime{}

	var repo educontent.Repository
	var users auth.UserStore
	switch c.DatabaseType {
	case "memory":
		repo = memory.New()
		users = auth.NewMemoryStore()
	case "postgres":
		if c.RunMigrations {
			if err := repopg.Migrate(withSearchPath(c.DatabaseURL, c.DBSchema), logger); err != nil {
				return nil, err
			}
		}
		pool, err := c.openPool(ctx)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, pool.Close)
		rt.Ready = pool
		repo = repopg.NewWithPool(pool)
		users = auth.NewPostgresStore(pool)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", c.DatabaseType)
	}

	store, err := c.buildBlobStore()
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("failed to build storage backend %s: %w", c.StorageType, err)
	}
	if fsStore, ok := store.(*fsstorage.Backend); ok && c.FilesURLPrefix != "" {
		rt.Files = http.FileServer(http.Dir(fsStore.BaseDir()))
		rt.FilesPrefix = c.FilesURLPrefix
	}

	options := []educontent.Option{
		educontent.WithRepository(repo),
		educontent.WithBlobStore(store),
		educontent.WithLogger(logger),
		educontent.WithUploadPolicy(educontent.UploadPolicy{
			MaxBytes:     c.MaxUploadBytes,
			AllowedTypes: slices.Clone(c.AllowedMediaTypes),
		}),
		educontent.WithBatchLimit(c.MaxBatch),
		educontent.WithHideForbidden(c.HideForbidden),
	}
	if c.EnableEventLogging {
		options = append(options, educontent.WithEventSink(educontent.NewLoggingEventSink(logger)))
	}

	rt.Content, err = educontent.New(options...)
	if err != nil {
		rt.Close()
		return nil, err
	}

	rt.Auth, err = auth.NewService(users, c.JWTSecret,
		auth.WithTokenTTL(c.TokenTTL),
		auth.WithAdminEmails(c.AdminEmails...),
	)
	if err != nil {
		rt.Close()
		return nil, err
	}

	return rt, nil
}

func (c *ServerConfig) openPool(ctx context.Context) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(c.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DATABASE_URL: %w", err)
	}
	if schema := c.DBSchema; schema != "" {
		cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
			_, err := conn.Exec(ctx, "SELECT set_config('search_path', $1, false)", schema)
			return err
		}
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	return pool, nil
}

// buildBlobStore creates the BlobStore selected by StorageType
func (c *ServerConfig) buildBlobStore() (educontent.BlobStore, error) {
	switch c.StorageType {
	case "memory":
		return memorystorage.New(), nil
	case "fs":
		return fsstorage.New(fsstorage.Config{
			BaseDir:   c.FSBaseDir,
			URLPrefix: c.FilesURLPrefix,
		})
	case "s3":
		return s3storage.New(c.S3)
	default:
		return nil, fmt.Errorf("unsupported storage backend type: %s", c.StorageType)
	}
}

// NewLogger returns the slog logger described by LogLevel and LogFormat.
// Production defaults to JSON output, everything else to text.
func (c *ServerConfig) NewLogger(w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	format := strings.ToLower(c.LogFormat)
	if format == "" && c.Environment == "production" {
		format = "json"
	}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// withSearchPath adds a search_path runtime parameter to a connection URL.
func withSearchPath(databaseURL, schema string) string {
	if schema == "" {
		return databaseURL
	}
	u, err := url.Parse(databaseURL)
	if err != nil {
		return databaseURL
	}
	q := u.Query()
	q.Set("search_path", schema)
	u.RawQuery = q.Encode()
	return u.String()
}
