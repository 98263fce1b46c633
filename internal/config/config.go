// Package config loads application configuration from environment variables
// into an immutable struct built once at startup. Components receive the
// struct by injection; business logic never reads ambient environment state.
package config

import (
	"log"
	"net/http"
	"os"
	"strconv"
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable.
type Config struct {
	Env  string // application environment ("dev", "test", "prod")
	Port string // HTTP port to listen on

	Neo4jHost string // neo4j host address
	Neo4jPort string // neo4j bolt port
	Neo4jUser string // neo4j username
	Neo4jPass string // neo4j password
	UsersDB   string // neo4j database holding users and sessions

	AuthRealm string // realm reported in WWW-Authenticate on 401s
	LoginURI  string // path of the login endpoint
	LogoutURI string // path of the logout endpoints
	UserURI   string // path prefix of the user collection

	SessionDays int // session lifetime in days
	CookieMaxMS int // cookie max-age in milliseconds
	BcryptCost  int // bcrypt cost for password hashing
}

// Load reads configuration from environment variables. Required variables
// are enforced by must(); a missing value exits with a fatal log message.
func Load() Config {
	return Config{
		Env:         must("APP_ENV"),
		Port:        must("APP_PORT"),
		Neo4jHost:   must("NEO4J_HOST"),
		Neo4jPort:   must("NEO4J_PORT"),
		Neo4jUser:   must("NEO4J_USER"),
		Neo4jPass:   os.Getenv("NEO4J_PWD"), // empty allowed for unauthenticated dev servers
		UsersDB:     must("USERS_DB"),
		AuthRealm:   must("AUTH_REALM"),
		LoginURI:    must("LOGIN_URI"),
		LogoutURI:   must("LOGOUT_URI"),
		UserURI:     must("USER_URI"),
		SessionDays: mustInt("SESSION_EXPIRATION_DAYS"),
		CookieMaxMS: mustInt("COOKIE_EXPIRATION_MS"),
		BcryptCost:  mustInt("BCRYPT_COST"),
	}
}

// Dev reports whether the service runs in development mode.
func (c Config) Dev() bool { return c.Env == "dev" }

// CookieSecure: the token cookie is Secure everywhere except dev, where
// plain http makes Secure cookies invisible to the browser.
func (c Config) CookieSecure() bool { return !c.Dev() }

// CookieSameSite: Lax in dev, None in deployments where the auth service is
// consumed cross-site (which requires Secure, hence the pairing above).
func (c Config) CookieSameSite() http.SameSite {
	if c.Dev() {
		return http.SameSiteLaxMode
	}
	return http.SameSiteNoneMode
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
