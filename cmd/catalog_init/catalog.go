package main

import (
	"context"
	"fmt"
	"strings"

	sdk "github.com/matrixorigin/moi-go-sdk"

	"moodlog/internal/logger"
	"moodlog/internal/service"
)

// initCatalog creates the analytics database and the mirrored tables. It is
// safe to rerun: existing objects are discovered instead of recreated.
func initCatalog(ctx context.Context, client *sdk.RawClient, catalogID sdk.CatalogID, dbName string) (sdk.DatabaseID, map[string]sdk.TableID, error) {
	databaseID, err := ensureDatabase(ctx, client, catalogID, dbName)
	if err != nil {
		return 0, nil, err
	}

	tableIDs := make(map[string]sdk.TableID)
	for _, t := range []service.CatalogTable{service.EntriesCatalogTable, service.ReportsCatalogTable} {
		resp, err := client.CreateTable(ctx, &sdk.TableCreateRequest{
			DatabaseID: databaseID,
			Name:       t.Name,
			Columns:    t.Columns,
			Comment:    t.Comment,
		})
		if err != nil {
			if isDuplicate(err) {
				logger.Info("catalog: table already exists, skipping", "table", t.String())
				continue
			}
			return 0, nil, fmt.Errorf("create table %s: %w", t.Name, err)
		}
		tableIDs[t.Name] = resp.TableID
		logger.Info("catalog: table created", "table", t.String(), "id", resp.TableID)
	}
	return databaseID, tableIDs, nil
}

func ensureDatabase(ctx context.Context, client *sdk.RawClient, catalogID sdk.CatalogID, dbName string) (sdk.DatabaseID, error) {
	resp, err := client.CreateDatabase(ctx, &sdk.DatabaseCreateRequest{
		CatalogID:    catalogID,
		DatabaseName: dbName,
		Comment:      "Mood journal analytics",
	})
	if err == nil {
		logger.Info("catalog: database created", "id", resp.DatabaseID)
		return resp.DatabaseID, nil
	}
	if !isDuplicate(err) {
		return 0, fmt.Errorf("create database: %w", err)
	}

	logger.Info("catalog: database already exists, discovering ID", "name", dbName)
	list, err := client.ListDatabases(ctx, &sdk.DatabaseListRequest{CatalogID: catalogID})
	if err != nil {
		return 0, fmt.Errorf("list databases: %w", err)
	}
	for _, db := range list.List {
		if db.DatabaseName == dbName {
			logger.Info("catalog: database discovered", "id", db.DatabaseID)
			return db.DatabaseID, nil
		}
	}
	return 0, fmt.Errorf("database %s not found in catalog %d", dbName, catalogID)
}

func isDuplicate(err error) bool {
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "duplicate") || strings.Contains(s, "already exist") || strings.Contains(s, "exists") || strings.Contains(s, "conflict")
}
