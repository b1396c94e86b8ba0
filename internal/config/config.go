package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers and secrets, ints for durations
// and costs.  Durations are expressed in the unit named by the field.
type Config struct {
	Env              string // application environment (e.g. "dev", "prod")
	Port             string // HTTP port to listen on
	DBUser           string // database username
	DBPass           string // database password (optional)
	DBHost           string // database host address
	DBPort           string // database port number
	DBName           string // database name
	JWTSecret        string // secret used to sign JWTs; missing secret is fatal at startup
	SessionTTLHours  int    // session token time-to-live in hours
	VerifyTTLMin     int    // identity-verification token time-to-live in minutes
	BcryptCost       int    // bcrypt cost for password hashing
	ClockSkewMin     int    // accepted window (minutes) around server time for started_at
	MaxSessionHours  int    // upper bound on a lab session's computed duration
	SweepIntervalMin int    // how often the abandonment sweeper runs, in minutes
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.  The signing secret
// is deliberately in the required set: without it no token can be issued
// or validated, so there is no point serving requests.
func Load() Config {
	return Config{
		Env:              must("APP_ENV"),
		Port:             must("APP_PORT"),
		DBUser:           must("DB_USER"),
		DBPass:           os.Getenv("DB_PASS"), // empty allowed
		DBHost:           must("DB_HOST"),
		DBPort:           must("DB_PORT"),
		DBName:           must("DB_NAME"),
		JWTSecret:        must("JWT_SECRET"),
		SessionTTLHours:  envInt("SESSION_TTL_HOURS", 24),
		VerifyTTLMin:     envInt("VERIFY_TTL_MIN", 10),
		BcryptCost:       envInt("BCRYPT_COST", 12),
		ClockSkewMin:     envInt("CLOCK_SKEW_MIN", 60),
		MaxSessionHours:  envInt("MAX_SESSION_HOURS", 8),
		SweepIntervalMin: envInt("SWEEP_INTERVAL_MIN", 10),
	}
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// envInt reads an optional integer environment variable.  Unset values fall
// back to the provided default; unparsable values are a configuration error
// and abort startup.
func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, v)
	}
	return n
}
