package model

import (
	"time"

	"moodlog/internal/calendar"
)

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=64"`
	Password string `json:"password" binding:"required,min=6,max=72"`
	Name     string `json:"name" binding:"max=100"`
}

type LoginResponse struct {
	Token string   `json:"token"`
	User  UserInfo `json:"user"`
}

type UserInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type WeeklyReportRequest struct {
	Timezone string `json:"timezone" form:"timezone"`
}

// WeeklyReportResponse is the generateWeeklyReport contract. When Ready is
// false only the window, day count and message are populated.
type WeeklyReportResponse struct {
	Ready           bool             `json:"ready"`
	DaysUntilReady  *int             `json:"days_until_ready,omitempty"`
	IsCurrentWeek   bool             `json:"is_current_week"`
	WeekStart       calendar.Date    `json:"week_start"`
	WeekEnd         calendar.Date    `json:"week_end"`
	Timezone        string           `json:"timezone"`
	Message         string           `json:"message,omitempty"`
	ID              string           `json:"id,omitempty"`
	EmotionScores   *EmotionScores   `json:"emotion_scores,omitempty"`
	Themes          []string         `json:"themes,omitempty"`
	Recommendations *Recommendations `json:"recommendations,omitempty"`
	Highlights      []string         `json:"highlights,omitempty"`
	Lowlights       []string         `json:"lowlights,omitempty"`
	Cached          *bool            `json:"cached,omitempty"`
	CreatedAt       *time.Time       `json:"created_at,omitempty"`
}

// ReportView is a stored report as listed in the history.
type ReportView struct {
	ID              string          `json:"id"`
	WeekStart       calendar.Date   `json:"week_start"`
	WeekEnd         calendar.Date   `json:"week_end"`
	EmotionScores   EmotionScores   `json:"emotion_scores"`
	Themes          []string        `json:"themes"`
	Recommendations Recommendations `json:"recommendations"`
	Highlights      []string        `json:"highlights"`
	Lowlights       []string        `json:"lowlights"`
	CreatedAt       time.Time       `json:"created_at"`
}

func NewReportView(r WeeklyReport) ReportView {
	p := r.Payload()
	return ReportView{
		ID:              r.ID,
		WeekStart:       r.StartDate(),
		WeekEnd:         r.EndDate(),
		EmotionScores:   p.EmotionScores,
		Themes:          p.Themes,
		Recommendations: p.Recommendations,
		Highlights:      p.Highlights,
		Lowlights:       p.Lowlights,
		CreatedAt:       r.CreatedAt,
	}
}

type EntryRequest struct {
	Content string `json:"content" binding:"required,max=20000"`
}

type EntryView struct {
	ID                string             `json:"id"`
	Content           string             `json:"content"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
	Scored            bool               `json:"scored"`
	EmotionScores     *EmotionScores     `json:"emotion_scores,omitempty"`
	PersonalityScores *PersonalityScores `json:"personality_scores,omitempty"`
}

func NewEntryView(e JournalEntry) EntryView {
	v := EntryView{
		ID:        e.ID,
		Content:   e.Content,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
		Scored:    e.Scored(),
	}
	if e.Scored() {
		emotions := e.EmotionScores.Data()
		personality := e.PersonalityScores.Data()
		v.EmotionScores = &emotions
		v.PersonalityScores = &personality
	}
	return v
}
