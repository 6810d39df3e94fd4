package config

import (
	"log"
	"os"
)

type Config struct {
	MySQLDSN       string
	RedisURL       string
	JWTSecret      string
	Port           string
	AllowedOrigins []string
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		if def == "" {
			log.Fatalf("missing env %s", key)
		}
		return def
	}
	return v
}

func Load() Config {
	return Config{
		MySQLDSN: getenv("MYSQL_DSN", "liquidvote:liquidvote@tcp(localhost:3306)/liquidvote"),
		// Optional: without Redis the API falls back to in-process cooldowns.
		RedisURL:       os.Getenv("REDIS_URL"),
		JWTSecret:      getenv("JWT_SECRET", ""),
		Port:           getenv("PORT", "8080"),
		AllowedOrigins: []string{getenv("ALLOWED_ORIGIN", "http://localhost:3000")},
	}
}
