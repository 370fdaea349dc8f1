package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Address       string
	Port          int
	BaseURL       string
	MongoURI      string
	MongoDatabase string
	RedisAddr     string
	RedisPassword string
	JWTSecret     string
	ServiceToken  string
	SendTimeout   time.Duration
	RetryPoll     time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load("../../.env")

	portStr := os.Getenv("PORT")
	if portStr == "" {
		portStr = "8080"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, errors.New("invalid PORT value")
	}

	address := os.Getenv("ADDRESS")
	if address == "" {
		address = "0.0.0.0"
	}

	baseURL := os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:" + portStr
	}

	mongoURI := os.Getenv("MONGO_URI")
	if mongoURI == "" {
		mongoURI = "mongodb://localhost:27017"
	}

	mongoDatabase := os.Getenv("MONGO_DATABASE")
	if mongoDatabase == "" {
		mongoDatabase = "pricewatch"
	}

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	redisPassword := os.Getenv("REDIS_PASSWORD")

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = "default_jwt_secret"
	}

	serviceToken := os.Getenv("SERVICE_TOKEN")
	if serviceToken == "" {
		serviceToken = "default_service_token"
	}

	sendTimeoutStr := os.Getenv("SEND_TIMEOUT_MS")
	if sendTimeoutStr == "" {
		sendTimeoutStr = "10000"
	}
	sendTimeoutMs, err := strconv.Atoi(sendTimeoutStr)
	if err != nil {
		return nil, errors.New("invalid SEND_TIMEOUT_MS value")
	}

	retryPollStr := os.Getenv("RETRY_POLL_SECONDS")
	if retryPollStr == "" {
		retryPollStr = "30"
	}
	retryPollSec, err := strconv.Atoi(retryPollStr)
	if err != nil {
		return nil, errors.New("invalid RETRY_POLL_SECONDS value")
	}

	return &Config{
		Address:       address,
		Port:          port,
		BaseURL:       baseURL,
		MongoURI:      mongoURI,
		MongoDatabase: mongoDatabase,
		RedisAddr:     redisAddr,
		RedisPassword: redisPassword,
		JWTSecret:     jwtSecret,
		ServiceToken:  serviceToken,
		SendTimeout:   time.Duration(sendTimeoutMs) * time.Millisecond,
		RetryPoll:     time.Duration(retryPollSec) * time.Second,
	}, nil
}
