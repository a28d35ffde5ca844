package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	_ "github.com/joho/godotenv/autoload"
)

// Table backends understood by the server.
const (
	BackendSheets   = "sheets"
	BackendWorkbook = "workbook"
	BackendPostgres = "postgres"
)

type Config struct {
	Port      int    `env:"PORT,default=8080"`
	Env       string `env:"APP_ENV,default=development"`
	LogLevel  string `env:"LOG_LEVEL,default=info"`
	LogFormat string `env:"LOG_FORMAT,default=text"`

	JWTSecret    string        `env:"JWT_SECRET,required"`
	SessionTTL   time.Duration `env:"SESSION_TTL,default=168h"`
	CookieSecure bool          `env:"COOKIE_SECURE,default=false"`

	TableBackend      string `env:"TABLE_BACKEND,default=sheets"`
	SpreadsheetID     string `env:"GOOGLE_SPREADSHEET_ID"`
	GoogleClientEmail string `env:"GOOGLE_CLIENT_EMAIL"`
	GooglePrivateKey  string `env:"GOOGLE_PRIVATE_KEY"`
	CommentsSheet     string `env:"COMMENTS_SHEET,default=Comments"`
	UsersSheet        string `env:"USERS_SHEET,default=Users"`
	WorkbookPath      string `env:"WORKBOOK_PATH,default=data/backoffice.xlsx"`
	DatabaseURL       string `env:"DATABASE_URL"`

	RedisAddr string `env:"REDIS_ADDR"`

	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string `env:"GOOGLE_REDIRECT_URL,default=http://localhost:8080/api/auth/google/callback"`

	// ALLOWED_ORIGINS is semicolon separated.
	AllowedOrigins     []string `env:"ALLOWED_ORIGINS,default=http://localhost:3000"`
	EnableDebugRoutes  bool     `env:"ENABLE_DEBUG_ROUTES,default=false"`
	LoginRatePerMinute int      `env:"LOGIN_RATE_PER_MINUTE,default=10"`
	// TRUSTED_PROXIES lists the proxies (IPs or CIDRs, semicolon separated)
	// whose X-Forwarded-For is honoured. Empty trusts none.
	TrustedProxies     []string `env:"TRUSTED_PROXIES"`
}

// Load decodes the process environment (after .env autoload) into a Config.
func Load() (*Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings each table backend needs.
func (c *Config) Validate() error {
	c.TableBackend = strings.ToLower(strings.TrimSpace(c.TableBackend))
	switch c.TableBackend {
	case BackendSheets:
		if c.SpreadsheetID == "" {
			return fmt.Errorf("GOOGLE_SPREADSHEET_ID is required for the %q backend", c.TableBackend)
		}
		if c.GoogleClientEmail == "" || c.GooglePrivateKey == "" {
			return fmt.Errorf("GOOGLE_CLIENT_EMAIL and GOOGLE_PRIVATE_KEY are required for the %q backend", c.TableBackend)
		}
	case BackendWorkbook:
		if c.WorkbookPath == "" {
			return fmt.Errorf("WORKBOOK_PATH is required for the %q backend", c.TableBackend)
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the %q backend", c.TableBackend)
		}
	default:
		return fmt.Errorf("unknown TABLE_BACKEND %q", c.TableBackend)
	}
	if len(c.JWTSecret) < 16 {
		return fmt.Errorf("JWT_SECRET must be at least 16 bytes")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
