package configs

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port     string
		Env      string
		LogLevel string
	}
	Database struct {
		Host     string
		Port     string
		User     string
		Password string
		Name     string
		SSLMode  string
	}
	Auth struct {
		SecretKey  string
		CookieName string
	}
	Settlement struct {
		MaxAttempts  int
		RetryBackoff time.Duration
	}
	Sweeper struct {
		Interval time.Duration
	}
	WebSocket struct {
		RateLimit float64
		RateBurst int
	}
	Features struct {
		EnableLiveFeed   bool
		AllowCrossOrigin bool
	}
}

// DatabaseDSN builds the Postgres connection string from the database section.
func (c *Config) DatabaseDSN() string {
	db := c.Database
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		db.User,
		db.Password,
		db.Host,
		db.Port,
		db.Name,
		db.SSLMode,
	)
}

func LoadConfig() (*Config, error) {
	// Load .env file
	if err := godotenv.Load("./configs/.env"); err != nil {
		log.Info("No .env file found")
	}

	viper.SetConfigName("config")    // Name of the config file (without extension)
	viper.SetConfigType("yaml")      // Config file type
	viper.AddConfigPath("./configs") // Path to look for the config file
	viper.AutomaticEnv()             // Automatically map environment variables

	// Allow dots in environment variables to map to nested keys
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read the config file
	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	// Manually substitute environment variables in the config
	substituteEnvVarsInConfig()

	// Unmarshal the config into a struct
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	applyDefaults(&config)

	return &config, nil
}

func applyDefaults(config *Config) {
	if config.Auth.CookieName == "" {
		config.Auth.CookieName = "authjs.session-token"
	}
	if config.Settlement.MaxAttempts <= 0 {
		config.Settlement.MaxAttempts = 3
	}
	if config.Settlement.RetryBackoff <= 0 {
		config.Settlement.RetryBackoff = 25 * time.Millisecond
	}
	if config.Sweeper.Interval <= 0 {
		config.Sweeper.Interval = time.Minute
	}
	if config.WebSocket.RateLimit <= 0 {
		config.WebSocket.RateLimit = 1
	}
	if config.WebSocket.RateBurst <= 0 {
		config.WebSocket.RateBurst = 3
	}
}

// Helper function to manually replace environment variables in config file values
func substituteEnvVarsInConfig() {
	// Iterate over each key-value pair in viper's config
	for _, key := range viper.AllKeys() {
		// Get the current value
		value := viper.GetString(key)

		// Check if the value contains environment variable syntax (e.g., ${PORT})
		if strings.Contains(value, "${") {
			// Replace environment variables in the value (e.g., ${PORT})
			replacedValue := os.Expand(value, func(name string) string {
				// Lookup the environment variable's value
				return os.Getenv(name)
			})

			// Set the replaced value back into viper
			viper.Set(key, replacedValue)
		}
	}
}
