package main

import (
	"context"

	sdk "github.com/matrixorigin/moi-go-sdk"

	"moodlog/internal/logger"
)

// moodKnowledge teaches the NL2SQL assistant how the mirrored tables relate.
// Every example query is filtered by user_id: a journal is private.
var moodKnowledge = []sdk.NL2SQLKnowledgeCreateRequest{
	{Type: "glossary", Key: "weekly report", Value: []string{"a row in weekly_reports summarising one user's week from week_start to week_end"}},
	{Type: "glossary", Key: "entry", Value: []string{"a row in journal_entries, one piece of free text written by a user"}},
	{Type: "glossary", Key: "mood score", Value: []string{"an emotion intensity between 0 and 1, stored in columns happiness, stress, sadness, anxiety, excitement, calm, anger, hopefulness"}},

	{Type: "synonyms", Key: "happy/joy/good mood", Value: []string{"happiness intensity"}, AssociateTables: []string{"journal_entries,happiness"}},
	{Type: "synonyms", Key: "stressed/pressure/overwhelmed", Value: []string{"stress intensity"}, AssociateTables: []string{"journal_entries,stress"}},
	{Type: "synonyms", Key: "worried/nervous", Value: []string{"anxiety intensity"}, AssociateTables: []string{"journal_entries,anxiety"}},
	{Type: "synonyms", Key: "topics/themes/what the week was about", Value: []string{"recurring themes of a week"}, AssociateTables: []string{"weekly_reports,themes"}},

	{Type: "logic", Key: "every query must filter on user_id of the asking user", Value: []string{"WHERE user_id = ?"}},
	{Type: "logic", Key: "a week runs from week_start to week_end inclusive, week_end is the ready day", Value: []string{"week_start <= d AND d <= week_end"}},

	{Type: "case_library", Key: "how stressed was I last month", Value: []string{"SELECT ROUND(AVG(stress), 2) FROM journal_entries WHERE user_id = ? AND created_at >= DATE_SUB(CURDATE(), INTERVAL 1 MONTH)"}},
	{Type: "case_library", Key: "which week was my happiest", Value: []string{"SELECT week_start, week_end, happiness FROM weekly_reports WHERE user_id = ? ORDER BY happiness DESC LIMIT 1"}},
}

func initKnowledge(ctx context.Context, client *sdk.RawClient) error {
	for _, k := range moodKnowledge {
		resp, err := client.CreateKnowledge(ctx, &k)
		if err != nil {
			if isDuplicate(err) {
				logger.Info("knowledge: already exists, skipping", "type", k.Type, "key", k.Key)
				continue
			}
			return err
		}
		logger.Info("knowledge: created", "type", k.Type, "key", k.Key, "id", resp.ID)
	}
	return nil
}
