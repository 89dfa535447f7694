package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// Config holds everything the service reads from its environment at startup.
type Config struct {
	Port        int
	DBUser      string
	DBPassword  string
	DBHost      string
	DBName      string
	LogMode     string
	GinLogging  bool
	CORSOrigins []string
}

// Load reads the configuration from the system's environment variables. PORT is mandatory,
// everything else falls back to a default.
//
// Usage example:
// > PORT=8080 DBHOST=localhost:3306 DBUSER=dirk DBPWD=bullo92 LOG_MODE=prod go run main.go
func Load() (Config, error) {
	port, err := strconv.Atoi(os.Getenv("PORT"))
	if err != nil {
		return Config{}, fmt.Errorf("could not parse PORT env variable: %w", err)
	}
	cfg := FromEnv()
	cfg.Port = port
	return cfg, nil
}

// FromEnv is like Load but leaves Port unset. Tools and tests that only need the database use it.
func FromEnv() Config {
	return Config{
		DBUser:      os.Getenv("DBUSER"),
		DBPassword:  os.Getenv("DBPWD"),
		DBHost:      getEnv("DBHOST", "localhost:3306"),
		DBName:      getEnv("DBNAME", "test"),
		LogMode:     getEnv("LOG_MODE", "dev"),
		GinLogging:  !strings.EqualFold(os.Getenv("GIN_LOGGING"), "off"),
		CORSOrigins: corsOrigins(getEnv("CORS_ORIGINS", "http://localhost:3000,http://127.0.0.1:3000")),
	}
}

// DSN returns the MySQL data source name for this configuration.
func (c Config) DSN() string {
	mc := mysql.NewConfig()
	mc.User = c.DBUser
	mc.Passwd = c.DBPassword
	mc.Net = "tcp"
	mc.Addr = c.DBHost
	mc.DBName = c.DBName
	mc.ParseTime = true
	return mc.FormatDSN()
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

// corsOrigins parses the comma separated origin list. A single "*" yields no origins, which the
// CORS middleware treats as allowing every origin.
func corsOrigins(s string) []string {
	if s == "*" {
		return nil
	}
	return splitList(s)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
