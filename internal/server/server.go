package server

import (
	"context"
	"log"
	"net/http"
	"net/url"
	"strings"

	gcs "cloud.google.com/go/storage"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/shinyyama/inventory-vision-backend/internal/config"
	"github.com/shinyyama/inventory-vision-backend/internal/handler"
	appmw "github.com/shinyyama/inventory-vision-backend/internal/middleware"
	"github.com/shinyyama/inventory-vision-backend/internal/repository"
	"github.com/shinyyama/inventory-vision-backend/internal/service"
	"github.com/shinyyama/inventory-vision-backend/internal/storage"
	"github.com/shinyyama/inventory-vision-backend/internal/vision"
	"gorm.io/gorm"
)

type Server struct {
	e        *echo.Echo
	itemRepo repository.ItemRepository
}

func New(ctx context.Context, cfg *config.Config) (*Server, error) {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())
	e.Use(middleware.BodyLimit("10M"))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowMethods:    []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:    []string{"Content-Type", "Authorization"},
		AllowOriginFunc: allowOrigin(cfg.AllowedOrigins),
	}))

	extractHandler := handler.NewExtractHandler(buildExtractorChain(ctx, cfg), buildUploader(ctx, cfg))

	itemRepo := repository.NewItemRepository(nil)
	itemSvc := service.NewItemService(itemRepo)
	itemHandler := handler.NewItemHandler(itemSvc)

	authMw, err := appmw.NewAuthMiddleware(ctx, cfg.FirebaseProjectID)
	if err != nil {
		return nil, err
	}

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"ok": "true"})
	})
	e.GET("/ping", extractHandler.Ping)

	api := e.Group("/api")
	api.GET("/extract/ping", extractHandler.Ping)
	api.POST("/extract", extractHandler.Extract)
	api.POST("/extract/batch", extractHandler.ExtractBatch)
	api.POST("/extract/merge", extractHandler.Merge)

	items := api.Group("/items")
	if authMw != nil {
		items.Use(authMw.RequireAuth)
	}
	items.GET("", itemHandler.List)
	items.POST("", itemHandler.Create)
	items.GET("/search", itemHandler.Search)
	items.GET("/stats", itemHandler.Stats)
	items.GET("/next-id", itemHandler.NextItemID)
	items.GET("/:id", itemHandler.Get)
	items.PUT("/:id", itemHandler.Update)
	items.DELETE("/:id", itemHandler.Delete)

	return &Server{e: e, itemRepo: itemRepo}, nil
}

// allowOrigin admits localhost on any port plus the origins listed in
// ALLOWED_ORIGINS. Everything else is rejected.
func allowOrigin(allowed []string) func(string) (bool, error) {
	return func(origin string) (bool, error) {
		u, err := url.Parse(origin)
		if err != nil {
			return false, nil
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return false, nil
		}
		host := u.Hostname()
		if host == "localhost" || host == "127.0.0.1" {
			return true, nil
		}
		for _, a := range allowed {
			if strings.EqualFold(strings.TrimRight(a, "/"), strings.TrimRight(origin, "/")) {
				return true, nil
			}
		}
		return false, nil
	}
}

// buildExtractorChain wires the provider fallback order: Gemini, then an
// OpenAI-compatible endpoint, then the constant placeholder. Providers whose
// keys are missing are skipped, so the chain always ends in a value.
func buildExtractorChain(ctx context.Context, cfg *config.Config) vision.Extractor {
	var extractors []vision.Extractor
	if cfg.GeminiAPIKey != "" {
		gemini, err := vision.NewGeminiExtractor(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			log.Printf("gemini client init failed, skipping provider: %v", err)
		} else {
			extractors = append(extractors, gemini)
		}
	}
	if cfg.OpenAIAPIKey != "" {
		extractors = append(extractors, vision.NewOpenAIExtractor(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL, nil))
	}
	extractors = append(extractors, vision.NewPlaceholderExtractor())
	return vision.NewChain(extractors...)
}

// buildUploader returns a disabled uploader when the bucket is unset or the
// storage client cannot initialize; extraction still works without hosting.
func buildUploader(ctx context.Context, cfg *config.Config) *storage.Uploader {
	if cfg.StorageBucket == "" {
		log.Printf("STORAGE_BUCKET not set; image hosting disabled")
		return storage.NewUploader(nil, "", cfg.PublicBaseURL)
	}
	client, err := gcs.NewClient(ctx)
	if err != nil {
		log.Printf("storage client init failed; image hosting disabled: %v", err)
		return storage.NewUploader(nil, "", cfg.PublicBaseURL)
	}
	return storage.NewUploader(client, cfg.StorageBucket, cfg.PublicBaseURL)
}

func (s *Server) Start(addr string) error {
	return s.e.Start(addr)
}

func (s *Server) SetDB(db *gorm.DB) {
	if s.itemRepo != nil {
		s.itemRepo.SetDB(db)
	}
}
