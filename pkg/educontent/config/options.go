package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// WithPort sets the server port
func WithPort(port string) Option {
	return func(c *ServerConfig) error {
		if port == "" {
			return fmt.Errorf("port cannot be empty")
		}
		c.Port = port
		return nil
	}
}

// WithEnvironment sets the environment (development, production, testing)
func WithEnvironment(env string) Option {
	return func(c *ServerConfig) error {
		if env == "" {
			return fmt.Errorf("environment cannot be empty")
		}
		c.Environment = env
		return nil
	}
}

// WithLogging sets the log level and output format.
func WithLogging(level, format string) Option {
	return func(c *ServerConfig) error {
		format = strings.ToLower(format)
		if format != "" && format != "json" && format != "text" {
			return fmt.Errorf("log format must be 'json' or 'text', got: %s", format)
		}
		if level != "" {
			c.LogLevel = level
		}
		c.LogFormat = format
		return nil
	}
}

// WithDatabaseURL selects the database from a connection string. An empty
// string or "memory" selects the in-memory repository; postgres:// and
// postgresql:// URLs select Postgres.
func WithDatabaseURL(dbURL string) Option {
	return func(c *ServerConfig) error {
		switch {
		case dbURL == "" || dbURL == "memory":
			c.DatabaseType = "memory"
			c.DatabaseURL = ""
		case strings.HasPrefix(dbURL, "postgres://"), strings.HasPrefix(dbURL, "postgresql://"):
			c.DatabaseType = "postgres"
			c.DatabaseURL = dbURL
		default:
			return fmt.Errorf("unsupported DATABASE_URL format (use 'memory' or 'postgresql://...')")
		}
		return nil
	}
}

// WithDatabaseSchema sets the database schema (for Postgres)
func WithDatabaseSchema(schema string) Option {
	return func(c *ServerConfig) error {
		c.DBSchema = schema
		return nil
	}
}

// WithRunMigrations applies the embedded migrations on startup.
func WithRunMigrations(run bool) Option {
	return func(c *ServerConfig) error {
		c.RunMigrations = run
		return nil
	}
}

// WithStorageURL selects the blob store from a URL:
//
//	memory://                      in-memory storage
//	file:///path/to/data           filesystem storage
//	s3://bucket?region=us-east-1   S3 storage
func WithStorageURL(storageURL string) Option {
	return func(c *ServerConfig) error {
		if storageURL == "" || storageURL == "memory" || storageURL == "memory://" {
			c.StorageType = "memory"
			return nil
		}

		u, err := url.Parse(storageURL)
		if err != nil {
			return fmt.Errorf("invalid STORAGE_URL: %w", err)
		}
		switch u.Scheme {
		case "file":
			path := u.Host + u.Path
			if path == "" {
				return fmt.Errorf("filesystem path cannot be empty in STORAGE_URL")
			}
			c.StorageType = "fs"
			c.FSBaseDir = path
		case "s3":
			if u.Host == "" {
				return fmt.Errorf("bucket cannot be empty in STORAGE_URL")
			}
			c.StorageType = "s3"
			c.S3.Bucket = u.Host
			q := u.Query()
			if v := q.Get("region"); v != "" {
				c.S3.Region = v
			}
			if v := q.Get("endpoint"); v != "" {
				c.S3.Endpoint = v
			}
			if v := q.Get("path_style"); v != "" {
				b, err := strconv.ParseBool(v)
				if err != nil {
					return fmt.Errorf("invalid path_style in STORAGE_URL: %w", err)
				}
				c.S3.UsePathStyle = b
			}
		default:
			return fmt.Errorf("unsupported STORAGE_URL format (use 'memory://', 'file://...', or 's3://...')")
		}
		return nil
	}
}

// WithFilesystemStorage stores files under baseDir and serves them under
// urlPrefix.
func WithFilesystemStorage(baseDir, urlPrefix string) Option {
	return func(c *ServerConfig) error {
		if baseDir == "" {
			return fmt.Errorf("filesystem base directory cannot be empty")
		}
		c.StorageType = "fs"
		c.FSBaseDir = baseDir
		c.FilesURLPrefix = strings.TrimSuffix(urlPrefix, "/")
		return nil
	}
}

// S3Options holds the S3 settings that do not fit in a storage URL.
type S3Options struct {
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string
	UsePathStyle    bool
	PublicBaseURL   string
	EnableSSE       bool
	SSEAlgorithm    string
	SSEKMSKeyID     string
	CreateBucket    bool
}

// WithS3Options applies credentials and endpoint settings to the S3 backend.
// Empty values keep what the storage URL configured.
func WithS3Options(opts S3Options) Option {
	return func(c *ServerConfig) error {
		if opts.SSEAlgorithm != "" && opts.SSEAlgorithm != "AES256" && opts.SSEAlgorithm != "aws:kms" {
			return fmt.Errorf("sse algorithm must be 'AES256' or 'aws:kms', got: %s", opts.SSEAlgorithm)
		}
		c.S3.AccessKeyID = opts.AccessKeyID
		c.S3.SecretAccessKey = opts.SecretAccessKey
		if opts.Endpoint != "" {
			c.S3.Endpoint = opts.Endpoint
		}
		c.S3.UsePathStyle = c.S3.UsePathStyle || opts.UsePathStyle
		c.S3.PublicBaseURL = opts.PublicBaseURL
		c.S3.EnableSSE = opts.EnableSSE
		if opts.SSEAlgorithm != "" {
			c.S3.SSEAlgorithm = opts.SSEAlgorithm
		}
		c.S3.SSEKMSKeyID = opts.SSEKMSKeyID
		c.S3.CreateBucketIfNotExist = opts.CreateBucket
		return nil
	}
}

// WithUploadLimits sets the per-file size limit and the batch size.
func WithUploadLimits(maxBytes int64, maxBatch int) Option {
	return func(c *ServerConfig) error {
		if maxBytes <= 0 {
			return fmt.Errorf("max upload size must be positive, got: %d", maxBytes)
		}
		if maxBatch <= 0 {
			return fmt.Errorf("max batch size must be positive, got: %d", maxBatch)
		}
		c.MaxUploadBytes = maxBytes
		c.MaxBatch = maxBatch
		return nil
	}
}

// WithAllowedMediaTypes replaces the media type allow-list of validated
// uploads. An empty list keeps the defaults.
func WithAllowedMediaTypes(types ...string) Option {
	return func(c *ServerConfig) error {
		var cleaned []string
		for _, t := range types {
			if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
				cleaned = append(cleaned, t)
			}
		}
		if len(cleaned) > 0 {
			c.AllowedMediaTypes = cleaned
		}
		return nil
	}
}

// WithJWTSecret sets the token signing secret.
func WithJWTSecret(secret string) Option {
	return func(c *ServerConfig) error {
		c.JWTSecret = secret
		return nil
	}
}

// WithTokenTTL sets how long issued tokens stay valid.
func WithTokenTTL(ttl time.Duration) Option {
	return func(c *ServerConfig) error {
		if ttl <= 0 {
			return fmt.Errorf("token ttl must be positive, got: %s", ttl)
		}
		c.TokenTTL = ttl
		return nil
	}
}

// WithAdminEmails grants the admin role to accounts registered with these
// emails.
func WithAdminEmails(emails ...string) Option {
	return func(c *ServerConfig) error {
		c.AdminEmails = append(c.AdminEmails, emails...)
		return nil
	}
}

// WithHideForbidden answers 404 instead of 403 for records the caller may
// not see.
func WithHideForbidden(hide bool) Option {
	return func(c *ServerConfig) error {
		c.HideForbidden = hide
		return nil
	}
}

// WithAllowedOrigins sets the CORS origins. Empty allows any origin.
func WithAllowedOrigins(origins ...string) Option {
	return func(c *ServerConfig) error {
		c.AllowedOrigins = origins
		return nil
	}
}

// WithEventLogging enables or disables logging of content events.
func WithEventLogging(enabled bool) Option {
	return func(c *ServerConfig) error {
		c.EnableEventLogging = enabled
		return nil
	}
}

// WithRequestTimeout bounds request handling. Zero disables the timeout.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(c *ServerConfig) error {
		if timeout < 0 {
			return fmt.Errorf("request timeout cannot be negative")
		}
		c.RequestTimeout = timeout
		return nil
	}
}
