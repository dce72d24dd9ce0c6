package domain

import "time"

// Message is one conversation turn. Immutable once appended.
type Message struct {
	Text      string    `json:"text"`
	IsUser    bool      `json:"is_user"`
	Timestamp time.Time `json:"timestamp"`
}

// Speaker returns the prompt label for the message author
func (m Message) Speaker() string {
	if m.IsUser {
		return "User"
	}
	return "Bot"
}

// DailyCount is a per-day request counter that rolls over at UTC midnight.
type DailyCount struct {
	Count int    `json:"count"`
	Day   string `json:"day"`
}

// Current returns the count for day, which is zero once the stored day is stale.
func (d DailyCount) Current(day string) int {
	if d.Day != day {
		return 0
	}
	return d.Count
}

// Increment records one request for day, restarting at 1 on a new day.
func (d *DailyCount) Increment(day string) {
	if d.Day != day {
		d.Day = day
		d.Count = 0
	}
	d.Count++
}

// DayOf returns the UTC calendar day of t
func DayOf(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// ChatRequest is the normalized input of one chat turn
type ChatRequest struct {
	SessionID string
	Query     string
	Website   string
	TopK      int
	Threshold float64
}

// ChatResponse is the response from a chat turn
type ChatResponse struct {
	Response string `json:"response"`
}

// RateLimitStatus exposes the counters for one session
type RateLimitStatus struct {
	RequestsThisWindow int `json:"requestsThisWindow"`
	PerWindowLimit     int `json:"perWindowLimit"`
	WindowSeconds      int `json:"windowSeconds"`
	PerDayLimit        int `json:"perDayLimit"`
}

// SessionSnapshot is a read-only copy of one session's state
type SessionSnapshot struct {
	ID                 string     `json:"id"`
	History            []Message  `json:"history"`
	LastEntity         string     `json:"last_entity,omitempty"`
	DailyCount         DailyCount `json:"daily_count"`
	RequestsThisWindow int        `json:"requests_this_window"`
}

// ChatLog is a completed turn kept for the analytics dashboard
type ChatLog struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Website   string    `json:"website"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	CreatedAt time.Time `json:"created_at"`
}

// Stats represents system statistics
type Stats struct {
	TotalDocuments      int `json:"total_documents"`
	TotalChats          int `json:"total_chats"`
	ActiveSessions      int `json:"active_sessions"`
	GlobalRequestsToday int `json:"global_requests_today"`
	ContextCacheEntries int `json:"context_cache_entries"`
}
