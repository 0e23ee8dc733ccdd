package config

import (
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DBUrl      string
	RedisAddr  string
	JWTSecret  string
	ListenAddr string
	AdminIDs   []string
}

func LoadConfig() Config {
	err := godotenv.Load()

	if err != nil {
		log.Println("No .env file found. Using environment variables.")
	}

	listen := os.Getenv("LISTEN_ADDR")
	if listen == "" {
		listen = ":8080"
	}

	return Config{
		DBUrl:      os.Getenv("DB_URL"),
		RedisAddr:  os.Getenv("REDIS_ADDR"),
		JWTSecret:  os.Getenv("JWT_SECRET"),
		ListenAddr: listen,
		AdminIDs:   splitIDs(os.Getenv("ADMIN_IDS")),
	}
}

// IsAdmin reports whether the player id is in the ADMIN_IDS list.
func (c Config) IsAdmin(playerID string) bool {
	for _, id := range c.AdminIDs {
		if id == playerID {
			return true
		}
	}
	return false
}

func splitIDs(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			ids = append(ids, p)
		}
	}
	return ids
}
