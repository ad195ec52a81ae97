package main

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"agro-kyc/internal/app"
	"agro-kyc/internal/models"
	"agro-kyc/internal/service"
	"agro-kyc/pkg/config"
	"agro-kyc/pkg/logger"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// The seed tool creates accounts and pushes a batch of document files through
// the same pipeline the API uses. Files already imported with the same
// content are skipped on the next run.
func main() {
	manifestPath := flag.String("manifest", filepath.Join("cmd", "seed", "seed.yaml"), "path to the seed manifest")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logger.Level, cfg.Logger.Format); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	appLogger := logger.Get()

	manifest, err := loadManifest(*manifestPath)
	if err != nil {
		appLogger.Fatal("Failed to load seed manifest", zap.Error(err))
	}

	ctx := context.Background()
	components, err := app.New(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize service", zap.Error(err))
	}
	defer components.Close()

	appLogger.Info("Starting database seeding...")

	users, err := seedUsers(ctx, manifest.Users, components.Auth, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to seed users", zap.Error(err))
	}

	baseDir := filepath.Dir(*manifestPath)
	cacheFile := filepath.Join(baseDir, ".seed_cache.json")
	seedDocuments(ctx, baseDir, cacheFile, manifest.Documents, users, components.Verification, appLogger)

	appLogger.Info("Database seeding completed successfully!")
}

// Manifest lists accounts to create and files to submit on their behalf.
type Manifest struct {
	Users     []SeedUser     `yaml:"users"`
	Documents []SeedDocument `yaml:"documents"`
}

type SeedUser struct {
	Username string `yaml:"username"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Role     string `yaml:"role"`
}

// SeedDocument paths are relative to the manifest directory.
type SeedDocument struct {
	Email string `yaml:"email"`
	Type  string `yaml:"type"`
	Path  string `yaml:"path"`
}

func loadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	// Password values may reference the environment, e.g. ${SEED_ADMIN_PASSWORD}.
	for i := range manifest.Users {
		manifest.Users[i].Password = os.ExpandEnv(manifest.Users[i].Password)
	}

	return &manifest, nil
}

// seedUsers creates missing accounts and returns every manifest user by email.
func seedUsers(ctx context.Context, seed []SeedUser, authService *service.AuthService, logger *zap.Logger) (map[string]*models.User, error) {
	users := make(map[string]*models.User, len(seed))

	for _, u := range seed {
		role, ok := models.ParseRole(u.Role)
		if !ok {
			return nil, fmt.Errorf("user %s: unknown role %q", u.Email, u.Role)
		}

		user, err := authService.CreateUser(ctx, u.Username, u.Email, u.Password, role)
		switch {
		case err == nil:
			logger.Info("Created user",
				zap.String("email", user.Email),
				zap.String("role", string(user.Role)),
			)
		case errors.Is(err, service.ErrUserExists):
			user, err = authService.GetUserByEmail(ctx, u.Email)
			if err != nil {
				return nil, fmt.Errorf("user %s: %w", u.Email, err)
			}
			logger.Info("User already exists, skipping", zap.String("email", user.Email))
		default:
			return nil, fmt.Errorf("user %s: %w", u.Email, err)
		}

		users[user.Email] = user
	}

	return users, nil
}

// ProcessedFile represents an imported document file in cache
type ProcessedFile struct {
	FilePath    string    `json:"file_path"`
	FileHash    string    `json:"file_hash"`
	DocumentID  string    `json:"document_id"`
	Status      string    `json:"status"`
	ProcessedAt time.Time `json:"processed_at"`
}

// CacheData stores information about processed files
type CacheData struct {
	ProcessedFiles map[string]ProcessedFile `json:"processed_files"` // key: file path
}

// loadCache loads the cache of processed files
func loadCache(cacheFile string) (*CacheData, error) {
	cache := &CacheData{
		ProcessedFiles: make(map[string]ProcessedFile),
	}

	// Check if cache file exists
	if _, err := os.Stat(cacheFile); os.IsNotExist(err) {
		return cache, nil
	}

	data, err := os.ReadFile(cacheFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}

	if len(data) == 0 {
		return cache, nil
	}

	if err := json.Unmarshal(data, cache); err != nil {
		return nil, fmt.Errorf("failed to parse cache file: %w", err)
	}
	if cache.ProcessedFiles == nil {
		cache.ProcessedFiles = make(map[string]ProcessedFile)
	}

	return cache, nil
}

// saveCache saves the cache of processed files
func saveCache(cacheFile string, cache *CacheData) error {
	data, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache: %w", err)
	}

	if err := os.WriteFile(cacheFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	return nil
}

// calculateFileHash calculates MD5 hash of a file
func calculateFileHash(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	hash := md5.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", fmt.Errorf("failed to calculate hash: %w", err)
	}

	return fmt.Sprintf("%x", hash.Sum(nil)), nil
}

// seedDocuments submits every manifest document that is new or changed since
// the last run. Failures are logged per file and do not stop the batch.
func seedDocuments(
	ctx context.Context,
	baseDir string,
	cacheFile string,
	docs []SeedDocument,
	users map[string]*models.User,
	verificationService *service.VerificationService,
	logger *zap.Logger,
) {
	cache, err := loadCache(cacheFile)
	if err != nil {
		logger.Warn("Failed to load cache, will process all files", zap.Error(err))
		cache = &CacheData{ProcessedFiles: make(map[string]ProcessedFile)}
	}

	for _, d := range docs {
		docPath := filepath.Join(baseDir, d.Path)

		user, ok := users[normalizeEmail(d.Email)]
		if !ok {
			logger.Warn("Document owner is not in the manifest, skipping",
				zap.String("path", docPath),
				zap.String("email", d.Email),
			)
			continue
		}

		docType, ok := models.ParseDocumentType(d.Type)
		if !ok {
			logger.Warn("Unknown document type, skipping",
				zap.String("path", docPath),
				zap.String("type", d.Type),
			)
			continue
		}

		if _, err := os.Stat(docPath); os.IsNotExist(err) {
			logger.Warn("Document file not found, skipping", zap.String("path", docPath))
			continue
		}

		fileHash, err := calculateFileHash(docPath)
		if err != nil {
			logger.Warn("Failed to calculate file hash, will process anyway", zap.String("path", docPath), zap.Error(err))
		}

		if cached, exists := cache.ProcessedFiles[docPath]; exists && fileHash != "" {
			if cached.FileHash == fileHash {
				logger.Info("Document already imported, skipping",
					zap.String("path", docPath),
					zap.String("document_id", cached.DocumentID),
					zap.Time("processed_at", cached.ProcessedAt),
				)
				continue
			}
			logger.Info("Document file changed, reimporting",
				zap.String("path", docPath),
				zap.String("old_hash", cached.FileHash),
				zap.String("new_hash", fileHash),
			)
		}

		data, err := os.ReadFile(docPath)
		if err != nil {
			logger.Error("Failed to read document file", zap.String("path", docPath), zap.Error(err))
			continue
		}

		result, err := verificationService.SubmitDocument(ctx, user.ID, docType, data, filepath.Base(docPath), mime.TypeByExtension(filepath.Ext(docPath)))
		if err != nil {
			logger.Error("Failed to submit document", zap.String("path", docPath), zap.Error(err))
			continue
		}

		fields := []zap.Field{
			zap.String("path", docPath),
			zap.String("email", user.Email),
			zap.String("status", string(result.Document.Status)),
		}
		if result.Verification != nil {
			fields = append(fields, zap.String("kyc_status", string(result.Verification.KYCStatus)))
		}
		logger.Info("Imported document", fields...)

		cache.ProcessedFiles[docPath] = ProcessedFile{
			FilePath:    docPath,
			FileHash:    fileHash,
			DocumentID:  result.Document.ID.String(),
			Status:      string(result.Document.Status),
			ProcessedAt: time.Now(),
		}
	}

	// Save cache
	if err := saveCache(cacheFile, cache); err != nil {
		logger.Warn("Failed to save cache", zap.Error(err))
	} else {
		logger.Info("Cache saved", zap.Int("processed_files", len(cache.ProcessedFiles)))
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
