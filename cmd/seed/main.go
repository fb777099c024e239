// Command seed populates the course catalog with sample rows so a fresh
// deployment has something to show in /courses and the admin API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"telegram-gate-bot/internal/config"
	"telegram-gate-bot/internal/domain/ports/repository"
	"telegram-gate-bot/internal/infra/db/postgres"
	"telegram-gate-bot/internal/infra/logging"
	"telegram-gate-bot/internal/usecase"
)

type seedCourse struct {
	Title    string
	Link     string
	Category string
}

var sampleCourses = []seedCourse{
	{Title: "Go Fundamentals", Link: "https://example.com/courses/go-fundamentals", Category: "Programming"},
	{Title: "PostgreSQL for Developers", Link: "https://example.com/courses/postgres-dev", Category: "Databases"},
	{Title: "Intro to Distributed Systems", Link: "https://example.com/courses/distsys-intro", Category: "Systems"},
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	force := flag.Bool("force", false, "seed even when the catalog is not empty")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath, true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Log, true)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := postgres.NewPgxPool(ctx, cfg.Database.URL, 2)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connection failed")
	}
	defer pool.Close()

	courseRepo := postgres.NewPostgresCourseRepo(pool)
	courseUC := usecase.NewCourseUseCase(courseRepo, logger)

	if !*force {
		n, err := courseRepo.Count(ctx, repository.NoTX)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to count courses")
		}
		if n > 0 {
			logger.Info().Int("existing", n).Msg("catalog not empty, nothing to do (use -force to seed anyway)")
			return
		}
	}

	for _, sc := range sampleCourses {
		course, err := courseUC.Add(ctx, sc.Title, sc.Link, sc.Category, 0)
		if err != nil {
			logger.Error().Err(err).Str("title", sc.Title).Msg("seed course failed")
			continue
		}
		logger.Info().Str("course_id", course.ID).Str("title", course.Title).Msg("seeded course")
	}
}
