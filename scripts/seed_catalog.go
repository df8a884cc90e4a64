package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"innkeep/internal/database"
	"innkeep/internal/models"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Seeds or refreshes the rental catalog from a yaml file. Existing
// items are matched by name and updated in place so ids stay stable.
type ItemsConfig struct {
	Items []models.Item `yaml:"items"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	var (
		itemsPath = flag.String("items", "configs/items.yaml", "path to items.yaml")
		dbPath    = flag.String("db", "./data/innkeep.db", "path to sqlite db")
	)
	flag.Parse()

	data, err := os.ReadFile(*itemsPath)
	if err != nil {
		return fmt.Errorf("read items: %w", err)
	}
	var cfg ItemsConfig
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("parse items: %w", err)
	}
	if len(cfg.Items) == 0 {
		return fmt.Errorf("no items in yaml")
	}

	db, err := database.NewDB(*dbPath, &logger)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	existing, err := db.GetItems(ctx)
	if err != nil {
		return fmt.Errorf("list items: %w", err)
	}
	byName := make(map[string]int64, len(existing))
	for _, it := range existing {
		byName[it.Name] = it.ID
	}

	created := 0
	updated := 0
	for _, it := range cfg.Items {
		if it.Name == "" {
			continue
		}
		if id, ok := byName[it.Name]; ok {
			it.ID = id
			if err = db.UpdateItem(ctx, &it); err != nil {
				return fmt.Errorf("update %s: %w", it.Name, err)
			}
			updated++
			continue
		}
		if err = db.CreateItem(ctx, &it); err != nil {
			return fmt.Errorf("create %s: %w", it.Name, err)
		}
		created++
	}

	fmt.Printf("done: created=%d updated=%d\n", created, updated)
	return nil
}
