package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

// Connect loads the environment, validates required keys and opens the
// database. SESSION_SECRET is required at startup; the process refuses to
// boot without it so tokens are never signed with an empty key.
func Connect() {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	if os.Getenv("SESSION_SECRET") == "" {
		log.Fatal("SESSION_SECRET is not set; refusing to start")
	}

	dsn := os.Getenv("DB_DSN")
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
}

// UploadRoot is the base path for locally stored blobs.
func UploadRoot() string {
	if root := os.Getenv("UPLOAD_ROOT"); root != "" {
		return root
	}
	return "./uploads"
}

// envHours reads an integer hour count with a default.
func envHours(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
		log.Printf("⚠️  Invalid value for %s, using default %d", key, fallback)
	}
	return fallback
}

// Retention and cleanup knobs for the background scheduler.
func RetentionLocationHours() int       { return envHours("RETENTION_LOCATION_HOURS", 14) }
func RetentionGeofenceHours() int       { return envHours("RETENTION_GEOFENCE_HOURS", 24) }
func CleanupLocationIntervalHours() int { return envHours("CLEANUP_LOCATION_INTERVAL_HOURS", 6) }
func CleanupGeofenceIntervalHours() int { return envHours("CLEANUP_GEOFENCE_INTERVAL_HOURS", 24) }
