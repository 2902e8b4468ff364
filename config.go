package boardkit

import (
	"os"
	"strconv"
)

// Defaults used when the corresponding environment variable is unset.
const (
	DefaultServerURL        = "http://localhost:8000"
	DefaultWebsocketURL     = "ws://localhost:8000"
	DefaultTeamID           = "0"
	DefaultUndoHistoryLimit = 0
)

// Config carries everything needed to construct a connected client stack.
type Config struct {
	// ServerURL is the boards server base URL, without a trailing slash.
	ServerURL string
	// WebsocketURL is the base URL for the update feed. When empty the
	// ServerURL is used with the scheme switched to ws.
	WebsocketURL string
	// Token authenticates API and websocket requests.
	Token string
	// TeamID scopes team-level endpoints and feed subscriptions.
	TeamID string
	// UndoHistoryLimit bounds the undo history; zero means unbounded.
	UndoHistoryLimit int
}

// NewConfigFromEnv reads configuration from BOARDS_* environment
// variables, falling back to defaults for anything unset.
func NewConfigFromEnv() Config {
	limit := DefaultUndoHistoryLimit
	if v, err := strconv.Atoi(GetEnvOrDefault("BOARDS_UNDO_LIMIT", "")); err == nil {
		limit = v
	}

	return Config{
		ServerURL:        GetEnvOrDefault("BOARDS_SERVER_URL", DefaultServerURL),
		WebsocketURL:     GetEnvOrDefault("BOARDS_WS_URL", DefaultWebsocketURL),
		Token:            GetEnvOrDefault("BOARDS_TOKEN", ""),
		TeamID:           GetEnvOrDefault("BOARDS_TEAM_ID", DefaultTeamID),
		UndoHistoryLimit: limit,
	}
}

func GetEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	return value
}
