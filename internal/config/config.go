package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Auth modes. "firebase" verifies identity-provider ID tokens; "local" accepts
// HMAC-signed JWTs for development without provider credentials.
const (
	AuthModeFirebase = "firebase"
	AuthModeLocal    = "local"
)

type Config struct {
	ServerPort string

	MongoURI string
	MongoDB  string

	RedisURL string

	AuthMode  string
	JWTSecret string

	FirebaseProjectID       string
	FirebaseCredentialsJSON string

	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicURL       string

	NotifyWebhookURL string

	WorkerCount int
}

func LoadConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found or error loading it, relying on environment variables")
	}

	serverPort := os.Getenv("SERVER_PORT")
	if serverPort == "" {
		serverPort = "8080"
	}

	mongoDB := os.Getenv("MONGO_DB")
	if mongoDB == "" {
		mongoDB = "profilehub"
	}

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379"
	}

	authMode := os.Getenv("AUTH_MODE")
	if authMode != AuthModeLocal {
		authMode = AuthModeFirebase
	}

	workerCount, err := strconv.Atoi(os.Getenv("WORKER_COUNT"))
	if err != nil || workerCount <= 0 {
		workerCount = 2
	}

	return &Config{
		ServerPort: serverPort,

		MongoURI: os.Getenv("MONGO_URI"),
		MongoDB:  mongoDB,

		RedisURL: redisURL,

		AuthMode:  authMode,
		JWTSecret: os.Getenv("JWT_SECRET"),

		FirebaseProjectID:       os.Getenv("FIREBASE_PROJECT_ID"),
		FirebaseCredentialsJSON: os.Getenv("FIREBASE_CREDENTIALS_JSON"),

		R2AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		R2BucketName:      os.Getenv("R2_BUCKET_NAME"),
		R2PublicURL:       os.Getenv("R2_PUBLIC_URL"),

		NotifyWebhookURL: os.Getenv("NOTIFY_WEBHOOK_URL"),

		WorkerCount: workerCount,
	}, nil
}
