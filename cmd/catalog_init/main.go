package main

import (
	"context"
	"flag"
	"log"

	sdk "github.com/matrixorigin/moi-go-sdk"

	"moodlog/internal/config"
	"moodlog/internal/logger"
)

func main() {
	configFile := flag.String("config", "etc/config-dev.yaml", "config file")
	skipKnowledge := flag.Bool("skip-knowledge", false, "only create database and tables")
	flag.Parse()

	logger.Init(config.LogConfig{Level: "info", Console: true})

	cfg := config.Load(*configFile)
	client, err := cfg.NewRawClient()
	if err != nil {
		log.Fatal(err)
	}
	ctx := context.Background()
	catalogID := sdk.CatalogID(cfg.MOI.CatalogID)
	if catalogID == 0 {
		catalogID = 1
	}

	databaseID, tableIDs, err := initCatalog(ctx, client, catalogID, cfg.Database.Name)
	if err != nil {
		log.Fatal("catalog init failed:", err)
	}

	if !*skipKnowledge {
		if err := initKnowledge(ctx, client); err != nil {
			log.Fatal("knowledge init failed:", err)
		}
	}

	// these go into moi.database_id / entries_table_id / reports_table_id
	logger.Info("=== all done ===",
		"database_id", databaseID,
		"entries_table_id", tableIDs["journal_entries"],
		"reports_table_id", tableIDs["weekly_reports"])
}
