package domain

import (
	"strings"
	"time"
)

// Website identifiers of the three branded assistants
const (
	WebsiteFFD     = "ffd"
	WebsiteAbiss   = "abiss"
	WebsiteArtisan = "artisan"
)

// NormalizeWebsite maps a raw website identifier to a known tenant,
// falling back to ffd.
func NormalizeWebsite(website string) string {
	switch w := strings.ToLower(strings.TrimSpace(website)); w {
	case WebsiteFFD, WebsiteAbiss, WebsiteArtisan:
		return w
	default:
		return WebsiteFFD
	}
}

// Site is the tenant configuration for one website
type Site struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Domain       string       `json:"domain"`
	ForcedURL    string       `json:"forced_url"`
	WidgetConfig WidgetConfig `json:"widget_config"`
}

// WidgetConfig holds UI configuration for the widget
type WidgetConfig struct {
	Theme          string `json:"theme"`
	PrimaryColor   string `json:"primary_color"`
	Position       string `json:"position"`
	WelcomeMessage string `json:"welcome_message"`
	Placeholder    string `json:"placeholder"`
}

// DefaultWidgetConfig returns default widget configuration
func DefaultWidgetConfig() WidgetConfig {
	return WidgetConfig{
		Theme:          "light",
		PrimaryColor:   "#3b82f6",
		Position:       "bottom-right",
		WelcomeMessage: "Hi! Looking for an exhibitor? Ask me anything.",
		Placeholder:    "Ask about an exhibitor or stand...",
	}
}

// Profile is the visitor registration bound to a session
type Profile struct {
	SessionID string    `json:"session_id"`
	Website   string    `json:"website"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Company   string    `json:"company,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RegisterRequest is the onboarding request from the widget
type RegisterRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required,email"`
	Company string `json:"company,omitempty"`
}
