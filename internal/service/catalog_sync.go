package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	sdk "github.com/matrixorigin/moi-go-sdk"

	"moodlog/internal/logger"
	"moodlog/internal/model"
)

// CatalogTable describes a MOI catalog table mirrored from the local store.
// Column order is the CSV column order used by the sync.
type CatalogTable struct {
	Name    string
	Comment string
	Columns []sdk.Column
}

var (
	EntriesCatalogTable = CatalogTable{
		Name:    "journal_entries",
		Comment: "Scored journal entries",
		Columns: append([]sdk.Column{
			{Name: "id", Type: "VARCHAR(36)", IsPk: true, Comment: "entry id"},
			{Name: "user_id", Type: "VARCHAR(64)", Comment: "owner"},
			{Name: "content", Type: "TEXT", Comment: "journal text"},
		}, append(emotionColumns(), sdk.Column{Name: "created_at", Type: "DATETIME", Comment: "UTC creation time"})...),
	}

	ReportsCatalogTable = CatalogTable{
		Name:    "weekly_reports",
		Comment: "Weekly mood reports",
		Columns: append([]sdk.Column{
			{Name: "id", Type: "VARCHAR(36)", IsPk: true, Comment: "report id"},
			{Name: "user_id", Type: "VARCHAR(64)", Comment: "owner"},
			{Name: "week_start", Type: "DATE", Comment: "first local day of the week"},
			{Name: "week_end", Type: "DATE", Comment: "last local day of the week, the ready day"},
		}, append(emotionColumns(),
			sdk.Column{Name: "themes", Type: "TEXT", Comment: "recurring themes, one per line"},
			sdk.Column{Name: "created_at", Type: "DATETIME", Comment: "UTC creation time"},
		)...),
	}
)

func emotionColumns() []sdk.Column {
	cols := make([]sdk.Column, 0, len(model.EmotionKeys))
	for _, k := range model.EmotionKeys {
		cols = append(cols, sdk.Column{Name: k, Type: "DECIMAL(4,2)", Comment: k + " intensity 0-1"})
	}
	return cols
}

// CatalogSync mirrors entries and reports into MOI catalog tables for
// analytics. Failures are logged and never surface to the caller.
type CatalogSync struct {
	raw            *sdk.RawClient
	sdk            *sdk.SDKClient
	databaseID     sdk.DatabaseID
	entriesTableID sdk.TableID
	reportsTableID sdk.TableID
}

func NewCatalogSync(raw *sdk.RawClient, databaseID, entriesTableID, reportsTableID int64) *CatalogSync {
	return &CatalogSync{
		raw:            raw,
		sdk:            sdk.NewSDKClient(raw),
		databaseID:     sdk.DatabaseID(databaseID),
		entriesTableID: sdk.TableID(entriesTableID),
		reportsTableID: sdk.TableID(reportsTableID),
	}
}

func (s *CatalogSync) SyncEntry(ctx context.Context, e model.JournalEntry) {
	if s == nil || s.entriesTableID == 0 || !e.Scored() {
		return
	}
	s.importRows(ctx, s.entriesTableID, EntriesCatalogTable, [][]string{entryRow(e)}, "entry_"+e.ID+".csv")
}

func (s *CatalogSync) SyncWeeklyReport(ctx context.Context, r model.WeeklyReport) {
	if s == nil || s.reportsTableID == 0 {
		return
	}
	s.importRows(ctx, s.reportsTableID, ReportsCatalogTable, [][]string{reportRow(r)}, "report_"+r.ID+".csv")
}

func entryRow(e model.JournalEntry) []string {
	row := []string{e.ID, e.UserID, e.Content}
	row = append(row, emotionCells(e.EmotionScores.Data())...)
	return append(row, e.CreatedAt.UTC().Format(time.DateTime))
}

func reportRow(r model.WeeklyReport) []string {
	p := r.Payload()
	row := []string{r.ID, r.UserID, r.StartDate().String(), r.EndDate().String()}
	row = append(row, emotionCells(p.EmotionScores)...)
	return append(row, strings.Join(p.Themes, "\n"), r.CreatedAt.UTC().Format(time.DateTime))
}

func emotionCells(e model.EmotionScores) []string {
	cells := make([]string, 0, len(model.EmotionKeys))
	for _, k := range model.EmotionKeys {
		cells = append(cells, strconv.FormatFloat(e.Get(k), 'f', 2, 64))
	}
	return cells
}

func (s *CatalogSync) importRows(ctx context.Context, tableID sdk.TableID, table CatalogTable, rows [][]string, fileName string) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		logger.Warn("catalog.encode_failed", "table", table.Name, "err", err)
		return
	}

	resp, err := s.raw.UploadLocalFile(ctx, bytes.NewReader(buf.Bytes()), fileName, []sdk.FileMeta{{Filename: fileName, Path: "/"}})
	if err != nil {
		logger.Warn("catalog.upload_failed", "table", table.Name, "err", err)
		return
	}
	if len(resp.ConnFileIds) == 0 {
		logger.Warn("catalog.upload_failed", "table", table.Name, "err", "no conn_file_ids")
		return
	}

	_, err = s.sdk.ImportLocalFileToTable(ctx, &sdk.TableConfig{
		ConnFileIDs:      resp.ConnFileIds,
		NewTable:         false,
		DatabaseID:       s.databaseID,
		TableID:          tableID,
		IsColumnName:     false,
		RowStart:         1,
		Conflict:         1,
		ExistedTable:     columnMapping(table),
		ExistedTableOpts: sdk.ExistedTableOptions{Method: sdk.ExistedTableOptionAppend},
	})
	if err != nil {
		logger.Warn("catalog.import_failed", "table", table.Name, "file", fileName, "err", err)
		return
	}
	logger.Info("catalog.synced", "table", table.Name, "file", fileName)
}

func columnMapping(t CatalogTable) []sdk.FileAndTableColumnMapping {
	m := make([]sdk.FileAndTableColumnMapping, len(t.Columns))
	for i, c := range t.Columns {
		m[i] = sdk.FileAndTableColumnMapping{TableColumn: c.Name, Column: c.Name, ColNumInFile: 1}
		if i > 0 {
			m[i].ColNumInFile = m[i-1].ColNumInFile + 1
		}
	}
	return m
}

func (t CatalogTable) String() string {
	return fmt.Sprintf("%s(%d columns)", t.Name, len(t.Columns))
}
