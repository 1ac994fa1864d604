package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/trimpulso/dtemonitor/internal/api"
	"github.com/trimpulso/dtemonitor/internal/domain"
	"github.com/trimpulso/dtemonitor/internal/ingestion"
	"github.com/trimpulso/dtemonitor/internal/repository"
	"github.com/trimpulso/dtemonitor/internal/risk"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "dtemonitor.db"
	}

	cfg := risk.DefaultConfig()
	if rulesPath := os.Getenv("RULES_PATH"); rulesPath != "" {
		var err error
		cfg, err = risk.LoadConfig(rulesPath)
		if err != nil {
			log.Fatalf("Failed to load rules config: %v", err)
		}
		log.Printf("Loaded rule tuning from %s", rulesPath)
	}

	log.Printf("Initializing database at %s", dbPath)
	db, err := repository.InitDB(dbPath)
	if err != nil {
		log.Fatalf("Failed to init DB: %v", err)
	}
	defer db.Close()

	// Create repositories.
	docRepo := repository.NewDocumentRepo(db)
	importRepo := repository.NewImportRepo(db)

	// Create the risk engine and its baseline.
	baseline := risk.NewBaseline(cfg.FallbackAverage)
	engine := risk.NewEngine(cfg, baseline)

	// Create services.
	importSvc := ingestion.NewService(docRepo, importRepo, baseline)

	// Seed documents if DB is empty.
	count, err := docRepo.Count()
	if err != nil {
		log.Fatalf("Failed to count documents: %v", err)
	}
	if count == 0 {
		log.Println("Database is empty, seeding documents from testdata...")
		if err := seedDocuments(docRepo); err != nil {
			log.Printf("WARNING: Failed to seed documents: %v", err)
		}
	} else {
		log.Printf("Database already has %d documents, skipping seed", count)
	}

	// Build the baseline from whatever is stored.
	if err := importSvc.ReloadBaseline(); err != nil {
		log.Fatalf("Failed to build baseline: %v", err)
	}

	// Create router.
	router := api.NewRouter(docRepo, importRepo, importSvc, engine)

	log.Printf("Trimpulso DTE Monitor")
	log.Printf("Listening on http://localhost:%s", port)
	log.Printf("API base: http://localhost:%s/api/v1", port)
	log.Printf("")
	log.Printf("Endpoints:")
	log.Printf("  POST   /api/v1/imports")
	log.Printf("  GET    /api/v1/documents")
	log.Printf("  GET    /api/v1/documents/with-alerts")
	log.Printf("  GET    /api/v1/documents/{id}")
	log.Printf("  GET    /api/v1/stats/summary")
	log.Printf("  GET    /api/v1/stats/by-month")
	log.Printf("  GET    /api/v1/stats/by-provider")
	log.Printf("  POST   /api/v1/security/analyze")
	log.Printf("  POST   /api/v1/security/analyze-batch")
	log.Printf("  GET    /api/v1/security/stats")
	log.Printf("  GET    /api/v1/dashboard")

	if err := http.ListenAndServe(":"+port, router); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func seedDocuments(repo *repository.DocumentRepo) error {
	// Try multiple possible locations for testdata.
	candidates := []string{
		"testdata/documents.json",
		filepath.Join(".", "testdata", "documents.json"),
	}

	// Also try to find relative to the executable.
	if exe, err := os.Executable(); err == nil {
		dir := filepath.Dir(exe)
		candidates = append(candidates,
			filepath.Join(dir, "testdata", "documents.json"),
			filepath.Join(dir, "..", "..", "testdata", "documents.json"),
		)
	}

	var data []byte
	var loadErr error
	for _, path := range candidates {
		data, loadErr = os.ReadFile(path)
		if loadErr == nil {
			log.Printf("Loaded documents from %s", path)
			break
		}
	}
	if loadErr != nil {
		return fmt.Errorf("could not find documents.json in any candidate path: %w", loadErr)
	}

	var docs []domain.Document
	if err := json.Unmarshal(data, &docs); err != nil {
		return fmt.Errorf("unmarshal documents: %w", err)
	}

	inserted, err := repo.BulkInsert(docs)
	if err != nil {
		return fmt.Errorf("bulk insert: %w", err)
	}

	log.Printf("Seeded %d documents (out of %d in file)", inserted, len(docs))
	return nil
}
