package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	APIPort string
	JWTKey  []byte
	JWTExp  time.Duration

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string
	DBConnStr  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	GradingQueueName      string
	GradingLockKey        string
	GradingLockTTLSeconds int

	AIGraderURL     string
	PDFConverterURL string
	UploadDir       string

	ClassroomCodeLength      int
	ClassroomCodeMaxAttempts int
}

var AppConfig *Config

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	AppConfig = &Config{
		APIPort:       getEnv("API_PORT", "8080"),
		JWTKey:        []byte(getEnv("JWT_SECRET", "defaultsecret")),
		JWTExp:        time.Duration(getEnvAsInt("JWT_EXPIRATION_HOURS", 72)) * time.Hour,
		DBHost:        getEnv("DB_HOST", "localhost"),
		DBPort:        getEnv("DB_PORT", "5432"),
		DBUser:        getEnv("DB_USER", "user"),
		DBPassword:    getEnv("DB_PASSWORD", "password"),
		DBName:        getEnv("DB_NAME", "classhub_db"),
		DBSslMode:     getEnv("DB_SSLMODE", "disable"),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		GradingQueueName:      getEnv("GRADING_QUEUE_NAME", "grading_jobs_queue"),
		GradingLockKey:        getEnv("GRADING_LOCK_KEY", "grading_job_lock"),
		GradingLockTTLSeconds: getEnvAsInt("GRADING_LOCK_TTL_SECONDS", 300),

		AIGraderURL:     getEnv("AI_GRADER_URL", "http://localhost:9090/evaluate"),
		PDFConverterURL: getEnv("PDF_CONVERTER_URL", "http://localhost:9091/convert"),
		UploadDir:       getEnv("UPLOAD_DIR", "./uploads"),

		ClassroomCodeLength:      getEnvAsInt("CLASSROOM_CODE_LENGTH", 6),
		ClassroomCodeMaxAttempts: getEnvAsInt("CLASSROOM_CODE_MAX_ATTEMPTS", 5),
	}

	AppConfig.DBConnStr = "host=" + AppConfig.DBHost +
		" port=" + AppConfig.DBPort +
		" user=" + AppConfig.DBUser +
		" password=" + AppConfig.DBPassword +
		" dbname=" + AppConfig.DBName +
		" sslmode=" + AppConfig.DBSslMode
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}
