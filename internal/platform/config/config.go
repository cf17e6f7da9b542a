package config

import (
	"os"
	"strings"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName string
	HTTPPort    string
	PostgresDSN string

	// CEWCampaignCode prefixes anonymous conference tokens; CEWPagePrefix
	// marks the page paths that take anonymous submissions.
	CEWCampaignCode string
	CEWPagePrefix   string

	AutoMigrate bool
}

func Load() (Config, error) {
	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "pollstack"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	campaign := strings.TrimSpace(os.Getenv("CEW_CAMPAIGN_CODE"))
	if campaign == "" {
		campaign = "CEW2025"
	}

	prefix := strings.TrimSpace(os.Getenv("CEW_PAGE_PREFIX"))
	if prefix == "" {
		prefix = "/cew-polls/"
	}

	return Config{
		ServiceName:     service,
		HTTPPort:        port,
		PostgresDSN:     os.Getenv("POSTGRES_DSN"),
		CEWCampaignCode: campaign,
		CEWPagePrefix:   prefix,
		AutoMigrate:     envBool("AUTO_MIGRATE", true),
	}, nil
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}
