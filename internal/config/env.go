package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

// devJWTSecret signs tokens when JWT_SECRET is unset. Release mode refuses it.
const devJWTSecret = "ridedesk-dev-secret-change-me"

type Env struct {
	AppAddr string
	GinMode string

	DBDSN string

	JWTSecret    string
	TokenTTL     time.Duration
	CookieSecure bool

	CORSAllowedOrigins []string

	AMQPURL      string
	AMQPExchange string

	InvoiceLogoPath string
	SupportContact  string

	SeedAdminEmail    string
	SeedAdminPassword string

	// CompletedReopensEdit lets a completed ticket reopen pickup/drop editing.
	// When false a drop location, once set, stays locked.
	CompletedReopensEdit bool
}

func LoadEnv() Env {
	appAddr := strings.TrimSpace(os.Getenv("APP_ADDR"))
	if appAddr == "" {
		appAddr = ":8080"
	}

	ginMode := strings.TrimSpace(os.Getenv("GIN_MODE"))

	secret := strings.TrimSpace(os.Getenv("JWT_SECRET"))
	if secret == "" {
		log.Println("[CONFIG] warning: JWT_SECRET is not set, using the development secret")
		secret = devJWTSecret
	}

	ttl := 24 * time.Hour
	if v := strings.TrimSpace(os.Getenv("TOKEN_TTL")); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			ttl = d
		}
	}

	exchange := strings.TrimSpace(os.Getenv("AMQP_EXCHANGE"))
	if exchange == "" {
		exchange = "ridedesk_topic"
	}

	support := strings.TrimSpace(os.Getenv("SUPPORT_CONTACT"))
	if support == "" {
		support = "For support contact support@ridedesk.local or +91 80000 00000"
	}

	return Env{
		AppAddr:              appAddr,
		GinMode:              ginMode,
		DBDSN:                buildDSN(),
		JWTSecret:            secret,
		TokenTTL:             ttl,
		CookieSecure:         envBool("COOKIE_SECURE", false),
		CORSAllowedOrigins:   splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
		AMQPURL:              strings.TrimSpace(os.Getenv("AMQP_URL")),
		AMQPExchange:         exchange,
		InvoiceLogoPath:      strings.TrimSpace(os.Getenv("INVOICE_LOGO_PATH")),
		SupportContact:       support,
		SeedAdminEmail:       strings.TrimSpace(os.Getenv("SEED_ADMIN_EMAIL")),
		SeedAdminPassword:    os.Getenv("SEED_ADMIN_PASSWORD"),
		CompletedReopensEdit: envBool("COMPLETED_REOPENS_EDIT", false),
	}
}

// buildDSN returns DB_DSN or a DSN assembled from DB_* parts. Either way
// clientFoundRows is forced on so an UPDATE that matches a row but changes
// nothing still reports one affected row.
func buildDSN() string {
	if dsn := strings.TrimSpace(os.Getenv("DB_DSN")); dsn != "" {
		return withFoundRows(dsn)
	}
	return dsnFromParts(
		envOr("DB_USER", "root"),
		os.Getenv("DB_PASS"),
		envOr("DB_HOST", "127.0.0.1:3306"),
		envOr("DB_NAME", "ridedesk"),
	)
}

func dsnFromParts(user, pass, host, name string) string {
	return user + ":" + pass + "@tcp(" + host + ")/" + name +
		"?parseTime=true&loc=UTC&charset=utf8mb4&clientFoundRows=true&timeout=5s&readTimeout=30s&writeTimeout=30s"
}

// withFoundRows turns clientFoundRows on in a user supplied DSN. A DSN the
// driver cannot parse is returned as is so ConnectDB reports the error.
func withFoundRows(dsn string) string {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return dsn
	}
	cfg.ClientFoundRows = true
	return cfg.FormatDSN()
}

// Validate rejects settings that are only acceptable in development.
func (e Env) Validate() error {
	if e.GinMode == "release" && e.JWTSecret == devJWTSecret {
		return errors.New("JWT_SECRET must be set when GIN_MODE=release")
	}
	return nil
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func splitList(raw string) []string {
	out := []string{}
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
