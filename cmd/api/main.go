package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/yourusername/detective-api/internal/config"
	"github.com/yourusername/detective-api/internal/handler"
	"github.com/yourusername/detective-api/internal/middleware"
	pgRepo "github.com/yourusername/detective-api/internal/repository/postgres"
	redisRepo "github.com/yourusername/detective-api/internal/repository/redis"
	"github.com/yourusername/detective-api/internal/service"
	ws "github.com/yourusername/detective-api/internal/websocket"
	"github.com/yourusername/detective-api/pkg/auth"
	"github.com/yourusername/detective-api/pkg/database"
)

func main() {
	// .env необязателен, в Docker переменные приходят из окружения
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Предупреждение: не удалось загрузить .env: %v", err)
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}
	log.Printf("Загрузка конфигурации из %s", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		os.Exit(1)
	}

	// PostgreSQL
	db, err := database.NewPostgresDB(cfg.Database)
	if err != nil {
		log.Printf("Failed to connect to database: %v", err)
		os.Exit(1)
	}

	if err := database.MigrateDB(db, cfg.Database.MigrationsPath); err != nil {
		log.Printf("Failed to migrate database: %v", err)
		os.Exit(1)
	}

	// Redis: кэш рейтингов и ограничение частоты входа
	redisClient, err := database.NewUniversalRedisClient(cfg.Redis)
	if err != nil {
		log.Printf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	log.Println("Successfully connected to Redis")

	cacheRepo, err := redisRepo.NewCacheRepo(redisClient)
	if err != nil {
		log.Printf("Failed to initialize CacheRepo: %v", err)
		os.Exit(1)
	}

	// Репозитории
	txManager := pgRepo.NewTxManager(db)
	userRepo := pgRepo.NewUserRepo(db)
	templateRepo := pgRepo.NewCaseTemplateRepo(db)
	caseRepo := pgRepo.NewActiveCaseRepo(db)
	scoreLogRepo := pgRepo.NewScoreLogRepo(db)
	rankingRepo := pgRepo.NewRankingRepo(db)

	jwtService, err := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpirationHrs)
	if err != nil {
		log.Printf("Failed to initialize JWTService: %v", err)
		os.Exit(1)
	}

	// --- WebSocket ---
	var pubSubProvider ws.PubSubProvider = &ws.NoOpPubSub{}
	if cfg.WebSocket.Cluster.Enabled {
		log.Println("Инициализация Redis PubSub для кластеризации WebSocket...")
		pubSubClient, errPubSub := database.NewUniversalRedisClient(cfg.Redis)
		if errPubSub != nil {
			log.Printf("Ошибка при инициализации Redis клиента для PubSub: %v. Кластеризация WS будет неактивна.", errPubSub)
		} else {
			redisProvider, errProv := ws.NewRedisPubSub(pubSubClient, ws.WithOwnedClient())
			if errProv != nil {
				log.Printf("Ошибка при создании Redis PubSub провайдера: %v. Кластеризация WS будет неактивна.", errProv)
				pubSubClient.Close()
			} else {
				log.Println("Redis PubSub провайдер успешно инициализирован")
				pubSubProvider = redisProvider
			}
		}
	}

	wsHub := ws.NewHub(cfg.WebSocket, pubSubProvider)
	if err := wsHub.Run(); err != nil {
		log.Printf("Failed to start WebSocket hub: %v", err)
		os.Exit(1)
	}
	wsManager := ws.NewManager(wsHub)

	// Сервисы
	rankingService := service.NewRankingService(rankingRepo, cacheRepo, cfg.Ranking.CacheTTL)
	userService := service.NewUserService(userRepo, scoreLogRepo, jwtService)
	catalogService := service.NewCatalogService(templateRepo)

	caseService := service.NewCaseService(txManager, templateRepo, caseRepo, userRepo, scoreLogRepo, service.NewScorePolicy(cfg.Scoring))
	caseService.SetNotifier(wsManager)
	caseService.SetRankingInvalidator(rankingService)

	expiryService := service.NewExpiryService(caseRepo, cfg.Expiry)
	expiryService.SetNotifier(wsManager)
	if err := expiryService.Start(); err != nil {
		log.Printf("Failed to start expiry sweeper: %v", err)
		os.Exit(1)
	}

	// Обработчики и middleware
	handlers := handler.Handlers{
		Auth:    handler.NewAuthHandler(userService),
		User:    handler.NewUserHandler(userService),
		Case:    handler.NewCaseHandler(caseService, catalogService),
		Ranking: handler.NewRankingHandler(rankingService),
		WS:      handler.NewWSHandler(wsHub, wsManager, jwtService, ws.ClientConfigFrom(cfg.WebSocket), cfg.Server.AllowedOrigins),
	}
	authMiddleware := middleware.NewAuthMiddleware(jwtService)
	rateLimiter := middleware.NewRateLimiter(cacheRepo)

	router := gin.Default()

	isProduction := gin.Mode() == gin.ReleaseMode
	if isProduction {
		if err := router.SetTrustedProxies(nil); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	} else {
		if err := router.SetTrustedProxies([]string{"127.0.0.1", "::1"}); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	}

	router.Use(middleware.RequestID())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	handler.RegisterRoutes(router, handlers, authMiddleware, rateLimiter.Limit(middleware.LoginRateLimitConfig(cfg.RateLimit)))

	// Настраиваем HTTP сервер с тайм-аутами для защиты от slow client attacks
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	if err := expiryService.Stop(); err != nil {
		log.Printf("Error stopping expiry sweeper: %v", err)
	}
	wsHub.Stop()
	if err := pubSubProvider.Close(); err != nil {
		log.Printf("Error closing PubSub provider: %v", err)
	}
	if err := redisClient.Close(); err != nil {
		log.Printf("Error closing Redis client: %v", err)
	}
	if sqlDB, err := database.GetSQLDB(db); err == nil {
		sqlDB.Close()
	}

	log.Println("Server exited properly")
}
