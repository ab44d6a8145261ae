package common

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/banner"
)

// PrintBanner displays the application banner and the resolved runtime settings
func PrintBanner(config *Config, logger arbor.ILogger) {
	banner.Print("LabelSync", GetVersion())

	logger.Info().
		Str("version", GetFullVersion()).
		Str("environment", config.Environment).
		Str("jira", config.Jira.BaseURL).
		Str("field_id", config.Jira.FieldID).
		Str("sync_mode", config.Sync.Mode).
		Str("schedule", config.Sync.Schedule).
		Msg("Configuration")
}
