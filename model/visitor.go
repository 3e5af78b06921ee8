package model

import "time"

type VisitorSession struct {
	ID              string     `json:"id" gorm:"primaryKey;size:64"`
	IPAddress       string     `json:"ip_address" gorm:"size:45;index"`
	UserAgent       string     `json:"user_agent" gorm:"type:text"`
	Country         string     `json:"country" gorm:"size:64"`
	LandingPage     string     `json:"landing_page" gorm:"size:512"`
	Referrer        string     `json:"referrer" gorm:"size:512"`
	UTMSource       string     `json:"utm_source" gorm:"size:100"`
	UTMMedium       string     `json:"utm_medium" gorm:"size:100"`
	UTMCampaign     string     `json:"utm_campaign" gorm:"size:100"`
	PageViews       int        `json:"page_views" gorm:"not null;default:0"`
	Clicks          int        `json:"clicks" gorm:"not null;default:0"`
	MaxScrollDepth  int        `json:"max_scroll_depth" gorm:"not null;default:0"`
	TimeOnPage      int        `json:"time_on_page" gorm:"not null;default:0"` // seconds
	DurationSeconds int        `json:"duration_seconds" gorm:"not null;default:0"`
	StartedAt       time.Time  `json:"started_at" gorm:"not null"`
	LastSeenAt      time.Time  `json:"last_seen_at" gorm:"not null;index"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
}

type PageView struct {
	ID        string    `json:"id" gorm:"primaryKey;type:text"`
	SessionID string    `json:"session_id" gorm:"not null;size:64;index"`
	Path      string    `json:"path" gorm:"size:512"`
	Title     string    `json:"title" gorm:"size:255"`
	Referrer  string    `json:"referrer" gorm:"size:512"`
	CreatedAt time.Time `json:"created_at" gorm:"not null"`
}

type ClickEvent struct {
	ID        string    `json:"id" gorm:"primaryKey;type:text"`
	SessionID string    `json:"session_id" gorm:"not null;size:64;index"`
	Path      string    `json:"path" gorm:"size:512"`
	Element   string    `json:"element" gorm:"size:255"`
	Label     string    `json:"label" gorm:"size:255"`
	X         int       `json:"x"`
	Y         int       `json:"y"`
	CreatedAt time.Time `json:"created_at" gorm:"not null"`
}

type ActivityEvent struct {
	ID        string    `json:"id" gorm:"primaryKey;type:text"`
	SessionID string    `json:"session_id" gorm:"not null;size:64;index"`
	Type      string    `json:"type" gorm:"size:50"`
	Path      string    `json:"path" gorm:"size:512"`
	Payload   string    `json:"payload,omitempty" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at" gorm:"not null"`
}
