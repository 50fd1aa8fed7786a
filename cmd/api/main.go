package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"hrkit/interview-analyzer/internal/config"
	"hrkit/interview-analyzer/internal/handlers"
	"hrkit/interview-analyzer/internal/logger"
	"hrkit/interview-analyzer/internal/repositories"
	"hrkit/interview-analyzer/internal/services"
)

func main() {
	// Load configuration
	cfg := config.Load()
	log.Println("✅ Config loaded successfully")

	appLogger, err := logger.New(cfg.Server.Env)
	if err != nil {
		log.Fatalf("❌ Failed to initialize logger: %v", err)
	}
	defer appLogger.Sync()

	// Initialize database
	db, err := config.InitDatabase(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to initialize database: %v", err)
	}

	// Initialize repositories
	analysisRepo := repositories.NewAnalysisRepository(db)
	appLogger.Info("✅ Repositories initialized successfully")

	// Initialize blob storage
	blobService, err := services.NewBlobStorageService(cfg.Storage)
	if err != nil {
		log.Fatalf("❌ Failed to initialize blob storage: %v", err)
	}
	if !blobService.Configured() {
		appLogger.Warn("⚠️ Blob storage not configured; upload endpoints will report config errors")
	}

	// Initialize search and indexing
	searchService := services.NewSearchService(cfg.Search)
	if !searchService.Configured() {
		appLogger.Warn("⚠️ Search service not configured; analysis-by-filename will report config errors")
	}
	indexingService := services.NewIndexingService(searchService, cfg.Search, cfg.Indexing, appLogger)

	pdfParser := services.NewPDFParserService()
	locatorService := services.NewDocumentLocatorService(searchService, indexingService, blobService, pdfParser, appLogger)
	appLogger.Info("✅ Search services initialized successfully")

	// Initialize Gemini AI
	geminiService, err := services.NewGeminiService(cfg.Gemini)
	if err != nil {
		log.Fatalf("❌ Failed to initialize Gemini AI: %v", err)
	}
	appLogger.Info("✅ Gemini AI initialized successfully")

	analyzerService := services.NewMatchAnalyzerService(geminiService, cfg.Gemini.MaxRetries, appLogger)
	transcriptionService := services.NewTranscriptionService(geminiService, appLogger)

	// Initialize Qdrant
	qdrantService, err := services.NewQdrantService(cfg.Qdrant)
	if err != nil {
		log.Fatalf("❌ Failed to initialize Qdrant: %v", err)
	}

	if err := qdrantService.InitCollection(); err != nil {
		log.Fatalf("❌ Failed to initialize Qdrant collection: %v", err)
	}
	appLogger.Info("✅ Qdrant initialized successfully")

	resultStoreService := services.NewResultStoreService(blobService, qdrantService, geminiService, appLogger)

	// Initialize handlers
	documentHandler := handlers.NewDocumentHandler(
		blobService,
		searchService,
		indexingService,
		locatorService,
		analyzerService,
		cfg.Indexing,
		appLogger,
	)
	interviewHandler := handlers.NewInterviewHandler(
		blobService,
		transcriptionService,
		analyzerService,
		appLogger,
	)
	analyzeHandler := handlers.NewAnalyzeHandler(
		analyzerService,
		analysisRepo,
		resultStoreService,
		appLogger,
	)
	appLogger.Info("✅ Handlers initialized")

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Interview Analyzer API",
		ReadTimeout:  120 * time.Second,
		WriteTimeout: 120 * time.Second,
		BodyLimit:    50 * 1024 * 1024,
		ErrorHandler: customErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	// Routes
	api := app.Group("/api/v1")

	// Health check
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now(),
		})
	})

	document := api.Group("/document")
	document.Post("/upload-resume", documentHandler.HandleUploadResume)
	document.Post("/upload-job", documentHandler.HandleUploadJob)
	document.Post("/upload-both", documentHandler.HandleUploadBoth)
	document.Post("/analyze-files", documentHandler.HandleAnalyzeFiles)
	document.Post("/analyze-text", documentHandler.HandleAnalyzeText)
	document.Post("/upload-and-analyze", documentHandler.HandleUploadAndAnalyze)
	document.Post("/upload-and-analyze-fast", documentHandler.HandleUploadAndAnalyzeFast)
	document.Get("/files-list", documentHandler.HandleListFiles)
	document.Post("/run-indexer", documentHandler.HandleRunIndexer)
	document.Get("/indexer-status/:name", documentHandler.HandleIndexerStatus)
	document.Get("/debug-index", documentHandler.HandleDebugIndex)

	interview := api.Group("/interview")
	interview.Post("/upload-audio", interviewHandler.HandleUploadAudio)
	interview.Post("/transcribe", interviewHandler.HandleTranscribe)
	interview.Post("/upload-and-transcribe", interviewHandler.HandleUploadAndTranscribe)
	interview.Post("/analyze", interviewHandler.HandleAnalyze)
	interview.Post("/quick-analysis", interviewHandler.HandleQuickAnalysis)
	interview.Post("/full-analysis", interviewHandler.HandleFullAnalysis)
	interview.Get("/audio-files", interviewHandler.HandleAudioFiles)

	analyze := api.Group("/analyze")
	analyze.Post("/interview", analyzeHandler.HandleStructuredAnalyze)
	analyze.Get("/result/:id", analyzeHandler.HandleGetResult)
	analyze.Get("/results", analyzeHandler.HandleListResults)
	analyze.Get("/search", analyzeHandler.HandleSearchResults)
	analyze.Get("/snapshots", analyzeHandler.HandleListSnapshots)
	analyze.Get("/snapshots/:name", analyzeHandler.HandleGetSnapshot)
	analyze.Delete("/snapshots/:name", analyzeHandler.HandleDeleteSnapshot)

	// Root route
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "Interview Analyzer API",
			"version": "1.0.0",
			"endpoints": []string{
				"POST /api/v1/document/upload-and-analyze",
				"POST /api/v1/document/analyze-files",
				"POST /api/v1/interview/full-analysis",
				"POST /api/v1/analyze/interview",
				"GET /api/v1/analyze/result/:id",
			},
		})
	})

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		appLogger.Info("🛑 Shutting down server...")
		if err := app.Shutdown(); err != nil {
			appLogger.Errorf("❌ Server forced to shutdown: %v", err)
		}
	}()

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	appLogger.Infof("🚀 Server starting on %s", addr)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}
