package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/yourusername/detective-api/internal/config"
	pgRepo "github.com/yourusername/detective-api/internal/repository/postgres"
	"github.com/yourusername/detective-api/internal/service"
	"github.com/yourusername/detective-api/pkg/database"
)

// seed загружает шаблоны дел из YAML. Существующие по названию шаблоны пропускаются.
func main() {
	file := flag.String("file", "", "YAML с шаблонами дел (по умолчанию seed.cases_file)")
	migrate := flag.Bool("migrate", true, "применить миграции перед загрузкой")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Предупреждение: не удалось загрузить .env: %v", err)
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	path := *file
	if path == "" {
		path = cfg.Seed.CasesFile
	}
	f, err := os.Open(path)
	if err != nil {
		log.Fatalf("Не удалось открыть %s: %v", path, err)
	}
	defer f.Close()

	seeds, err := service.ParseTemplateSeeds(f)
	if err != nil {
		log.Fatalf("Некорректный файл шаблонов %s: %v", path, err)
	}

	db, err := database.NewPostgresDB(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if *migrate {
		if err := database.MigrateDB(db, cfg.Database.MigrationsPath); err != nil {
			log.Fatalf("Failed to migrate database: %v", err)
		}
	}

	catalog := service.NewCatalogService(pgRepo.NewCaseTemplateRepo(db))
	created, skipped, err := catalog.Import(context.Background(), seeds)
	if err != nil {
		log.Fatalf("Ошибка импорта шаблонов: %v", err)
	}
	log.Printf("[Seed] Шаблонов создано: %d, пропущено: %d (файл %s)", created, skipped, path)
}
