package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/vaibh/video-dubbing/internal/cleanup"
	"github.com/vaibh/video-dubbing/internal/download"
	"github.com/vaibh/video-dubbing/internal/handlers"
	"github.com/vaibh/video-dubbing/internal/media"
	"github.com/vaibh/video-dubbing/internal/pipeline"
	"github.com/vaibh/video-dubbing/internal/session"
	"github.com/vaibh/video-dubbing/internal/storage"
	"github.com/vaibh/video-dubbing/internal/timing"
	"github.com/vaibh/video-dubbing/internal/transcription"
	"github.com/vaibh/video-dubbing/internal/translation"
	"github.com/vaibh/video-dubbing/internal/tts"
)

// Config represents the application configuration
type Config struct {
	Server struct {
		Port int    `yaml:"port"`
		Host string `yaml:"host"`
	} `yaml:"server"`

	Translation struct {
		Provider string `yaml:"provider"`
	} `yaml:"translation"`

	Dubbing struct {
		FanOut int `yaml:"fan_out"`
	} `yaml:"dubbing"`

	Storage struct {
		TempDir  string `yaml:"temp_dir"`
		Database string `yaml:"database"`
	} `yaml:"storage"`

	Cleanup struct {
		IntervalMinutes int `yaml:"interval_minutes"`
		MaxAgeHours     int `yaml:"max_age_hours"`
	} `yaml:"cleanup"`

	GoogleDrive struct {
		CredentialsFile string `yaml:"credentials_file"`
		TokenFile       string `yaml:"token_file"`
		FolderName      string `yaml:"folder_name"`
	} `yaml:"google_drive"`
}

func main() {
	// Load configuration
	config, err := loadConfig("config/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// API keys come from the environment; .env is optional
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using existing environment")
	}
	deepgramKey := os.Getenv("DEEPGRAM_API_KEY")
	elevenKey := os.Getenv("ELEVENLABS_API_KEY")
	if deepgramKey == "" || elevenKey == "" {
		log.Fatal("DEEPGRAM_API_KEY and ELEVENLABS_API_KEY must be set")
	}

	// Ensure working directory exists
	if err := cleanup.EnsureTempDirExists(config.Storage.TempDir); err != nil {
		log.Fatalf("Failed to create temp directory: %v", err)
	}

	// Custom logger setup
	logBuffer := &LogBuffer{
		lines: make([]string, 0, 1000),
	}
	multiWriter := io.MultiWriter(os.Stdout, logBuffer)
	log.SetOutput(multiWriter)

	// Initialize components
	log.Println("Initializing components...")

	registry := session.NewRegistry()
	workspace := storage.NewWorkspace(config.Storage.TempDir)

	transcriber, err := transcription.NewDeepgramTranscriber(deepgramKey, "")
	if err != nil {
		log.Fatalf("Failed to initialize Deepgram: %v", err)
	}

	translator, err := translation.New(config.Translation.Provider)
	if err != nil {
		log.Fatalf("Failed to initialize translator: %v", err)
	}

	synthesizer, err := tts.NewElevenLabsClient(elevenKey, "")
	if err != nil {
		log.Fatalf("Failed to initialize ElevenLabs: %v", err)
	}

	// Google Drive client (optional - may fail if credentials not set up)
	var driveClient *storage.DriveClient
	if _, err := os.Stat(config.GoogleDrive.CredentialsFile); err == nil {
		driveClient, err = storage.NewDriveClient(
			config.GoogleDrive.CredentialsFile,
			config.GoogleDrive.TokenFile,
			config.GoogleDrive.FolderName,
		)
		if err != nil {
			log.Printf("WARNING: Google Drive not available: %v", err)
			log.Println("Dubbed videos will only be kept locally")
			driveClient = nil
		} else {
			log.Println("Google Drive integration enabled")
		}
	} else {
		log.Println("Google Drive credentials not found - keeping videos locally only")
	}

	// Database
	db, err := storage.NewMetadataDB(config.Storage.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Pipeline orchestrator
	orchestrator := pipeline.New(pipeline.Config{
		Registry:    registry,
		Workspace:   workspace,
		Downloader:  download.NewDownloader(),
		Transcriber: transcriber,
		Translator:  translator,
		Synthesizer: synthesizer,
		Media:       &media.FFmpeg{},
		Assembler:   timing.NewReconciler(),
		History:     db,
		Drive:       driveClient,
		FanOut:      config.Dubbing.FanOut,
	})

	// Cleanup scheduler
	cleanupScheduler := cleanup.NewScheduler(
		registry,
		workspace,
		time.Duration(config.Cleanup.IntervalMinutes)*time.Minute,
		time.Duration(config.Cleanup.MaxAgeHours)*time.Hour,
	)
	cleanupScheduler.Start()
	defer cleanupScheduler.Stop()

	// Create Fiber app
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	// Initialize handlers
	dubHandler := handlers.NewDubHandler(orchestrator, registry)
	fileHandler := handlers.NewFileHandler(registry)
	voicesHandler := handlers.NewVoicesHandler(synthesizer)
	progressHandler := handlers.NewProgressHandler(registry)

	// Routes
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	app.Get("/languages", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"languages": translation.SupportedLanguages,
		})
	})

	app.Get("/voices", voicesHandler.Handle)
	app.Post("/dub", dubHandler.Submit)
	app.Get("/dub/status/:id", dubHandler.Status)
	app.Get("/video/:id", fileHandler.Video)
	app.Get("/download/:id", fileHandler.Download)

	// WebSocket route
	app.Get("/ws/status/:id", websocket.New(progressHandler.Handle))

	// Completed dub history
	app.Get("/dubs", func(c *fiber.Ctx) error {
		limit := 50 // Default limit
		dubs, err := db.ListDubs(limit)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(dubs)
	})

	// Get server logs
	app.Get("/logs", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"logs": logBuffer.GetLogs(),
		})
	})

	// Start server
	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	log.Printf("Server starting on %s", addr)
	log.Println("Endpoints:")
	log.Println("   POST /dub            - Start a dubbing session")
	log.Println("   GET  /dub/status/:id - Session status")
	log.Println("   GET  /ws/status/:id  - WebSocket status updates")
	log.Println("   GET  /video/:id      - Stream dubbed video")
	log.Println("   GET  /download/:id   - Download dubbed video")
	log.Println("   GET  /voices         - List voice options")
	log.Println("   GET  /languages      - List supported languages")
	log.Println("   GET  /dubs           - List completed dubs")
	log.Println("   GET  /logs           - View server logs")
	log.Println("   GET  /health         - Health check")

	// Graceful shutdown
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		log.Println("Shutting down gracefully...")
		app.Shutdown()
	}()

	if err := app.Listen(addr); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// LogBuffer captures logs in memory
type LogBuffer struct {
	lines []string
	mu    sync.Mutex
}

func (lb *LogBuffer) Write(p []byte) (n int, err error) {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	lb.lines = append(lb.lines, string(p))

	// Keep last 1000 lines
	if len(lb.lines) > 1000 {
		lb.lines = lb.lines[len(lb.lines)-1000:]
	}

	return len(p), nil
}

func (lb *LogBuffer) GetLogs() []string {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	logs := make([]string, len(lb.lines))
	copy(logs, lb.lines)
	return logs
}

// loadConfig loads configuration from YAML file
func loadConfig(path string) (*Config, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := yaml.Unmarshal(file, &config); err != nil {
		return nil, err
	}

	return &config, nil
}
