package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"moodlog/internal/calendar"
)

type User struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Username  string    `gorm:"type:varchar(64);uniqueIndex" json:"username"`
	Password  string    `json:"-"`
	Name      string    `gorm:"type:varchar(100)" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// EmotionScores holds the eight mood dimensions, each in [0,1].
type EmotionScores struct {
	Calm        float64 `json:"calm"`
	Anger       float64 `json:"anger"`
	Stress      float64 `json:"stress"`
	Anxiety     float64 `json:"anxiety"`
	Sadness     float64 `json:"sadness"`
	Happiness   float64 `json:"happiness"`
	Excitement  float64 `json:"excitement"`
	Hopefulness float64 `json:"hopefulness"`
}

// EmotionKeys lists the dimensions in chart order.
var EmotionKeys = []string{"happiness", "stress", "sadness", "anxiety", "excitement", "calm", "anger", "hopefulness"}

func (e EmotionScores) Get(key string) float64 {
	switch key {
	case "calm":
		return e.Calm
	case "anger":
		return e.Anger
	case "stress":
		return e.Stress
	case "anxiety":
		return e.Anxiety
	case "sadness":
		return e.Sadness
	case "happiness":
		return e.Happiness
	case "excitement":
		return e.Excitement
	case "hopefulness":
		return e.Hopefulness
	}
	return 0
}

func (e *EmotionScores) Set(key string, v float64) {
	switch key {
	case "calm":
		e.Calm = v
	case "anger":
		e.Anger = v
	case "stress":
		e.Stress = v
	case "anxiety":
		e.Anxiety = v
	case "sadness":
		e.Sadness = v
	case "happiness":
		e.Happiness = v
	case "excitement":
		e.Excitement = v
	case "hopefulness":
		e.Hopefulness = v
	}
}

// PersonalityScores holds Big Five traits on a 0-100 scale.
type PersonalityScores struct {
	Openness          float64 `json:"openness"`
	Conscientiousness float64 `json:"conscientiousness"`
	Extraversion      float64 `json:"extraversion"`
	Agreeableness     float64 `json:"agreeableness"`
	Neuroticism       float64 `json:"neuroticism"`
}

type Recommendations struct {
	Continue string `json:"continue"`
	Explore  string `json:"explore"`
	Consider string `json:"consider"`
}

type JournalEntry struct {
	ID                string                                `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID            string                                `gorm:"type:varchar(64);index:idx_entry_user_created,priority:1" json:"user_id"`
	Content           string                                `gorm:"type:text" json:"content"`
	EmotionScores     datatypes.JSONType[EmotionScores]     `json:"emotion_scores"`
	PersonalityScores datatypes.JSONType[PersonalityScores] `json:"personality_scores"`
	ScoredAt          *time.Time                            `json:"scored_at"`
	CreatedAt         time.Time                             `gorm:"index:idx_entry_user_created,priority:2" json:"created_at"`
	UpdatedAt         time.Time                             `json:"updated_at"`
}

func (e JournalEntry) Scored() bool { return e.ScoredAt != nil }

// ReportPayload is the synthesised content of a weekly report.
type ReportPayload struct {
	EmotionScores   EmotionScores   `json:"emotion_scores"`
	Themes          []string        `json:"themes"`
	Recommendations Recommendations `json:"recommendations"`
	Highlights      []string        `json:"highlights"`
	Lowlights       []string        `json:"lowlights"`
}

// WeeklyReport is unique per (user_id, week_start, week_end) and never updated.
type WeeklyReport struct {
	ID              string                              `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID          string                              `gorm:"type:varchar(64);uniqueIndex:uk_user_week,priority:1" json:"user_id"`
	WeekStart       datatypes.Date                      `gorm:"uniqueIndex:uk_user_week,priority:2" json:"week_start"`
	WeekEnd         datatypes.Date                      `gorm:"uniqueIndex:uk_user_week,priority:3" json:"week_end"`
	EmotionScores   datatypes.JSONType[EmotionScores]   `json:"emotion_scores"`
	Themes          datatypes.JSONSlice[string]         `json:"themes"`
	Recommendations datatypes.JSONType[Recommendations] `json:"recommendations"`
	Highlights      datatypes.JSONSlice[string]         `json:"highlights"`
	Lowlights       datatypes.JSONSlice[string]         `json:"lowlights"`
	CreatedAt       time.Time                           `json:"created_at"`
}

func NewWeeklyReport(id, userID string, start, end calendar.Date, p ReportPayload) WeeklyReport {
	return WeeklyReport{
		ID:              id,
		UserID:          userID,
		WeekStart:       DateValue(start),
		WeekEnd:         DateValue(end),
		EmotionScores:   datatypes.NewJSONType(p.EmotionScores),
		Themes:          datatypes.NewJSONSlice(p.Themes),
		Recommendations: datatypes.NewJSONType(p.Recommendations),
		Highlights:      datatypes.NewJSONSlice(p.Highlights),
		Lowlights:       datatypes.NewJSONSlice(p.Lowlights),
	}
}

func (r WeeklyReport) Payload() ReportPayload {
	return ReportPayload{
		EmotionScores:   r.EmotionScores.Data(),
		Themes:          []string(r.Themes),
		Recommendations: r.Recommendations.Data(),
		Highlights:      []string(r.Highlights),
		Lowlights:       []string(r.Lowlights),
	}
}

func (r WeeklyReport) StartDate() calendar.Date { return calendar.DateOf(time.Time(r.WeekStart)) }
func (r WeeklyReport) EndDate() calendar.Date   { return calendar.DateOf(time.Time(r.WeekEnd)) }

// DateValue stores a calendar date as UTC midnight.
func DateValue(d calendar.Date) datatypes.Date {
	return datatypes.Date(d.In(time.UTC))
}

func (User) TableName() string         { return "users" }
func (JournalEntry) TableName() string { return "journal_entries" }
func (WeeklyReport) TableName() string { return "weekly_reports" }

// AutoMigrate creates or updates every table, including uk_user_week.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&User{}, &JournalEntry{}, &WeeklyReport{})
}
