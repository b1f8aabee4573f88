/*
Package config reads service configuration from the environment.

SOURCES (later wins):
  1. Defaults below
  2. .env file in the working directory (godotenv, optional)
  3. Process environment
  4. cobra flags in cmd/server, for the few values they expose

KEYS:
  MANHOUR_HTTP_ADDR            :8080
  MANHOUR_DB_DRIVER            sqlite3 (mattn, cgo) | sqlite (modernc, pure Go)
  MANHOUR_DB_PATH              manhours.db, ":memory:" for a throwaway store
  MANHOUR_TIMEZONE             IANA zone of the plant, "Local" by default
  MANHOUR_DAY_BOUNDARY_HOUR    5
  MANHOUR_RANGE_ANCHOR_HOUR    6
  MANHOUR_RUN_INTERVAL_MINUTES 30
  MANHOUR_SCHEDULER_ENABLED    true
  MANHOUR_DEDUCT_BREAKS        true
  MANHOUR_WORKERS              4
  MANHOUR_NODE_ID              1 (snowflake node, 0-1023, unique per process)
  MANHOUR_CORS_ORIGINS         comma separated

Unparseable values fall back to the default rather than failing startup.
*/
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/warp/manhour-engine/generic"
)

type Config struct {
	HTTPAddr string

	// DB
	DBDriver string
	DBPath   string

	// Work-day calendar
	Timezone         string
	DayBoundaryHour  int
	RangeAnchorHour  int
	RunInterval      time.Duration
	SchedulerEnabled bool

	DeductBreaks bool
	Workers      int
	NodeID       int64

	CORSOrigins []string
}

// Load reads the optional .env files, then the environment.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromEnv(), nil
}

func FromEnv() Config {
	return Config{
		HTTPAddr: getenvDefault("MANHOUR_HTTP_ADDR", ":8080"),

		DBDriver: strings.ToLower(getenvDefault("MANHOUR_DB_DRIVER", "sqlite3")),
		DBPath:   getenvDefault("MANHOUR_DB_PATH", "manhours.db"),

		Timezone:         getenvDefault("MANHOUR_TIMEZONE", "Local"),
		DayBoundaryHour:  getenvHour("MANHOUR_DAY_BOUNDARY_HOUR", 5),
		RangeAnchorHour:  getenvHour("MANHOUR_RANGE_ANCHOR_HOUR", 6),
		RunInterval:      time.Duration(getenvPositive("MANHOUR_RUN_INTERVAL_MINUTES", 30)) * time.Minute,
		SchedulerEnabled: getenvBool("MANHOUR_SCHEDULER_ENABLED", true),

		DeductBreaks: getenvBool("MANHOUR_DEDUCT_BREAKS", true),
		Workers:      getenvInt("MANHOUR_WORKERS", 4),
		NodeID:       int64(getenvInt("MANHOUR_NODE_ID", 1)),

		CORSOrigins: splitCSV(getenvDefault("MANHOUR_CORS_ORIGINS", "http://localhost:5173,http://localhost:8080")),
	}
}

// Calendar builds the work-day calendar. An unknown zone is an error:
// guessing would silently shift every work-day boundary.
func (c Config) Calendar() (generic.Calendar, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return generic.Calendar{}, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	cal := generic.NewCalendar(loc)
	cal.DayBoundary = time.Duration(c.DayBoundaryHour) * time.Hour
	cal.RangeAnchor = time.Duration(c.RangeAnchorHour) * time.Hour
	return cal, nil
}

func getenvDefault(key, def string) string {
	v := os.Getenv(key)
	if strings.TrimSpace(v) == "" {
		return def
	}
	return strings.TrimSpace(v)
}

func getenvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}

// getenvPositive is getenvInt that also rejects zero.
func getenvPositive(key string, def int) int {
	n := getenvInt(key, def)
	if n == 0 {
		return def
	}
	return n
}

func getenvHour(key string, def int) int {
	n := getenvInt(key, def)
	if n > 23 {
		return def
	}
	return n
}

func getenvBool(key string, def bool) bool {
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

func splitCSV(v string) []string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
