package config

import (
	"log"
	"os"
	"strconv"

	"restaurant-storefront/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// JWTSecret signs the payment-callback state tokens and verifies customer
// bearer tokens
var JWTSecret = []byte(getEnv("JWT_SECRET", "storefront_state_secret_2026"))

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Settings is the storefront's runtime configuration
type Settings struct {
	Port            string
	UpstreamBaseURL string
	CallbackBaseURL string
	RestaurantID    uint
	DBPath          string
}

// Load reads settings from the environment with sensible dev defaults
func Load() Settings {
	restaurantID := uint(1)
	if v := os.Getenv("RESTAURANT_ID"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			log.Fatal("RESTAURANT_ID must be a number:", err)
		}
		restaurantID = uint(id)
	}

	return Settings{
		Port:            getEnv("PORT", "8080"),
		UpstreamBaseURL: getEnv("UPSTREAM_BASE_URL", "http://localhost:9000"),
		CallbackBaseURL: getEnv("CALLBACK_BASE_URL", "http://localhost:8080/api/payment/callback"),
		RestaurantID:    restaurantID,
		DBPath:          getEnv("STATE_DB_PATH", "storefront_state.db"),
	}
}

// InitDB opens the local state store and migrates its schema
func InitDB(path string) {
	var err error
	DB, err = gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		log.Fatal("Failed to open local state store:", err)
	}

	if err := DB.AutoMigrate(&models.StateEntry{}); err != nil {
		log.Fatal("Failed to migrate local state store:", err)
	}

	log.Println("Local state store ready at", path)
}
