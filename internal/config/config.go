package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration values.
type Config struct {
	Secret   string
	HTTPPort string
	BlobPath string
	SeedCSV  string
}

// Load reads configuration from the environment (optionally seeded from
// a .env file) with reasonable defaults.
func Load() Config {
	_ = godotenv.Load()

	secret := os.Getenv("SECRET")
	if secret == "" {
		secret = "dev_secret"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}
	if _, err := strconv.Atoi(port); err != nil {
		log.Printf("invalid HTTP_PORT value %q, defaulting to 8080", port)
		port = "8080"
	}

	blobPath := os.Getenv("BLOB_PATH")
	if blobPath == "" {
		blobPath = "medistock.db"
	}

	return Config{
		Secret:   secret,
		HTTPPort: port,
		BlobPath: blobPath,
		SeedCSV:  os.Getenv("SEED_CSV"),
	}
}
