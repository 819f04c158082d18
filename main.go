package main

import (
	"fmt"
	stdlog "log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/moodyshaheen/protfolio/api"
	"github.com/moodyshaheen/protfolio/config"
	"github.com/moodyshaheen/protfolio/database"
	"github.com/moodyshaheen/protfolio/storage"
)

func main() {
	fmt.Println("Initializing app...")

	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Warning: Error loading .env file: %v\n", err)
	}

	c := config.New()

	connStr := config.GetString(c, "DATABASE_URL", "")
	if connStr == "" {
		connStr = fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
			config.GetString(c, "DB_HOST", "localhost"),
			config.GetString(c, "DB_USER", "postgres"),
			config.GetString(c, "DB_PASSWORD", ""),
			config.GetString(c, "DB_NAME", "portfolio"),
			config.GetString(c, "DB_PORT", "5432"),
			config.GetString(c, "DB_SSLMODE", "disable"),
		)
	}

	newLogger := logger.New(
		stdlog.New(os.Stdout, "\r\n", stdlog.LstdFlags),
		logger.Config{
			SlowThreshold:             10 * time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  connStr,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		PrepareStmt: false,
		Logger:      newLogger,
	})
	if err != nil {
		fmt.Printf("Error connecting to database: %v\n", err)
		os.Exit(1)
	}

	currentDB := database.New(db)

	if err := currentDB.Migrate(); err != nil {
		fmt.Printf("Error migrating database schema: %v\n", err)
		os.Exit(1)
	}

	store, err := newStore(c)
	if err != nil {
		fmt.Printf("Error initializing asset store: %v\n", err)
		os.Exit(1)
	}

	errChannel := make(chan error)
	defer close(errChannel)

	server, err := api.NewServer(currentDB, store)
	if err != nil {
		fmt.Printf("Error initializing server: %v\n", err)
		os.Exit(1)
	}

	go server.Start(errChannel)

	// Listen for interrupt signals to gracefully shutdown the server
	go listenToInterrupt(errChannel)

	fatalErr := <-errChannel
	fmt.Printf("Closing server: %v\n", fatalErr)

	server.ShutdownGracefully(30 * time.Second)
}

// newStore selects the asset backend: local disk by default, S3-compatible
// object storage when STORAGE_BACKEND=s3.
func newStore(c map[string]string) (storage.Store, error) {
	maxUploadBytes := config.GetInt64(c, "MAX_UPLOAD_BYTES", 10<<20)

	if config.GetString(c, "STORAGE_BACKEND", "disk") == "s3" {
		log.Info().Str("bucket", config.GetString(c, "S3_BUCKET", "")).Msg("using S3 asset store")
		return storage.NewS3Store(storage.S3Config{
			Region:    config.GetString(c, "S3_REGION", "us-east-1"),
			Bucket:    config.GetString(c, "S3_BUCKET", "portfolio-uploads"),
			AccessKey: config.GetString(c, "S3_ACCESS_KEY", ""),
			SecretKey: config.GetString(c, "S3_SECRET_KEY", ""),
			Endpoint:  config.GetString(c, "S3_ENDPOINT", ""),
			MaxBytes:  maxUploadBytes,
		})
	}

	uploadsDir := config.GetString(c, "UPLOADS_DIR", "uploads")
	log.Info().Str("dir", uploadsDir).Msg("using disk asset store")
	return storage.NewDiskStore(uploadsDir, maxUploadBytes)
}

// listenToInterrupt waits for SIGINT or SIGTERM and then sends an error to the error channel.
func listenToInterrupt(errChannel chan<- error) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	errChannel <- fmt.Errorf("%s", <-c)
}
