// Command seed fills the posts collection with fake posts, comments and
// reactions for local development.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"blog/config"
	"blog/database"
	"blog/logger"
	"blog/repository"

	"github.com/brianvoe/gofakeit/v6"
	"go.uber.org/zap"
)

func main() {
	count := flag.Int("n", 20, "number of posts to create")
	maxComments := flag.Int("comments", 3, "maximum comments per post")
	maxLikes := flag.Int("likes", 5, "maximum likes per post")
	seed := flag.Int64("seed", 0, "random seed (0 picks one from the clock)")
	flag.Parse()

	cfg, err := config.Load(".")
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}
	logg, err := logger.New(cfg)
	if err != nil {
		log.Fatal("Failed to build logger:", err)
	}
	defer logg.Sync()

	if cfg.StoreDriver != config.StoreMongo {
		log.Fatal("seeding needs STORE_DRIVER=mongo")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := database.Connect(ctx, cfg, logg)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer db.Close()

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	faker := gofakeit.New(*seed)

	ids, err := Seed(ctx, repository.NewMongoPostRepository(db.Posts), faker, Options{
		Posts:       *count,
		MaxComments: *maxComments,
		MaxLikes:    *maxLikes,
	})
	if err != nil {
		logg.Error("seeding stopped early", zap.Int("created", len(ids)), zap.Error(err))
	}

	fmt.Println("========================================")
	fmt.Printf("Created %d posts in %s.%s\n", len(ids), cfg.MongoDatabase, cfg.MongoCollection)
	for _, id := range ids {
		fmt.Println(id)
	}
	fmt.Println("========================================")
}
