package main

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"

	"hrkit/interview-analyzer/internal/config"
	"hrkit/interview-analyzer/internal/logger"
	"hrkit/interview-analyzer/internal/services"
)

// Uploads local resume and job-posting files to blob storage, kicks the
// search indexers, and waits until every upload is queryable.
//
// Usage: go run ./scripts/reindex_documents.go <resume-or-job-file>...
func main() {
	log.Println("🚀 Starting document reindex...")

	cfg := config.Load()

	appLogger, err := logger.New(cfg.Server.Env)
	if err != nil {
		log.Fatalf("❌ Failed to initialize logger: %v", err)
	}
	defer appLogger.Sync()

	blobService, err := services.NewBlobStorageService(cfg.Storage)
	if err != nil {
		log.Fatalf("❌ Failed to initialize blob storage: %v", err)
	}
	if !blobService.Configured() {
		log.Fatal("❌ Blob storage is not configured (set STORAGE_ENDPOINT and STORAGE_BUCKET)")
	}

	searchService := services.NewSearchService(cfg.Search)
	if !searchService.Configured() {
		log.Fatal("❌ Search service is not configured (set SEARCH_ENDPOINT)")
	}
	indexingService := services.NewIndexingService(searchService, cfg.Search, cfg.Indexing, appLogger)

	ctx := context.Background()

	paths := os.Args[1:]
	if len(paths) == 0 {
		log.Fatal("❌ No files given. Usage: reindex_documents <file>...")
	}

	successCount := 0
	failCount := 0
	var uploadedKeys []string

	for _, path := range paths {
		name := filepath.Base(path)

		log.Printf("\n📄 Processing: %s", name)

		data, err := os.ReadFile(path)
		if err != nil {
			log.Printf("   ❌ Read failed: %v", err)
			failCount++
			continue
		}

		// Infer the role from the filename; anything not job-like counts as
		// a resume.
		role := services.RolePrefixResume
		lower := strings.ToLower(name)
		if strings.Contains(lower, "job") || strings.Contains(lower, "posting") || strings.Contains(lower, "공고") {
			role = services.RolePrefixJob
		}

		key := services.RoleKey(role, name)
		if serr := blobService.Upload(ctx, key, data); serr != nil {
			log.Printf("   ❌ Upload failed: %v", serr)
			failCount++
			continue
		}

		log.Printf("   ✅ Uploaded as %s (%d bytes)", key, len(data))
		uploadedKeys = append(uploadedKeys, key)
		successCount++
	}

	if len(uploadedKeys) == 0 {
		log.Fatalf("❌ Nothing uploaded (%d failures)", failCount)
	}

	outcomes, serr := indexingService.RunIndexingJobs(ctx)
	if serr != nil {
		log.Printf("⚠️ Could not trigger indexers, relying on scheduled runs: %v", serr)
	}
	for name, outcome := range outcomes {
		log.Printf("🔄 Indexer %s: %s", name, outcome)
	}

	index := indexingService.SelectActiveIndex(ctx)
	log.Printf("⏳ Waiting for %d documents in index %s...", len(uploadedKeys), index)

	indexed := 0
	for _, key := range uploadedKeys {
		if indexingService.WaitUntilIndexed(ctx, index, key, cfg.Indexing.FullTimeout) {
			indexed++
		} else {
			log.Printf("⚠️ %s did not become queryable in time", key)
		}
	}

	log.Printf("\n📊 Done: %d uploaded, %d failed, %d confirmed queryable", successCount, failCount, indexed)
}
