package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/yourusername/detective-api/internal/config"
	"github.com/yourusername/detective-api/pkg/database"
)

// fix-db - ручное обслуживание схемы: снять dirty-флаг, накатить или откатить шаг.
func main() {
	force := flag.Int("force", -1, "принудительно выставить версию миграции (снимает dirty)")
	up := flag.Bool("up", false, "применить все миграции")
	down := flag.Int("down", 0, "откатить N миграций")
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

	db, err := sql.Open("postgres", cfg.Database.PostgresConnectionString())
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatal(err)
	}

	version, err := database.RunMigrationCommand(db, cfg.Database.MigrationsPath, database.MigrationCommand{
		Force: *force,
		Up:    *up,
		Down:  *down,
	})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Current schema: %s\n", version)
}
