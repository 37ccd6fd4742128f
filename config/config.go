package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var gitSHA string
var buildDate string

func GetDataDir() string {
	value, exists := os.LookupEnv("RESTORE_SITE_DATA_DIR")
	if exists {
		return value
	}
	return "data"
}

// defaults to GetDataDir() / config
func GetConfigDir() string {
	value, exists := os.LookupEnv("RESTORE_SITE_CONFIG_DIR")
	if exists {
		return value
	}
	return filepath.Join(GetDataDir(), "config")
}

func GetAdminInitialPassword() (string, error) {
	key := "RESTORE_SITE_ADMIN_INITIAL_PASSWORD"
	value, exists := os.LookupEnv(key)
	if exists {
		return value, nil
	}
	return "", fmt.Errorf("please set %s", key)
}

func GetSessionAuthKey() ([]byte, error) {
	key := "RESTORE_SITE_SESSION_AUTH_KEY"
	value, exists := os.LookupEnv(key)
	if exists {
		return []byte(value), nil
	}
	return []byte{}, fmt.Errorf("please set %s", key)
}

func GetSecure() bool {
	key := "RESTORE_SITE_SECURE"
	if value, exists := os.LookupEnv(key); exists {
		lower := strings.ToLower(value)
		if lower == "on" || lower == "1" || lower == "true" || lower == "yes" {
			return true
		}
	}
	return false
}

// GetGeminiAPIKey returns the access credential for the remote model
// endpoints, or "" if none has been selected yet.
func GetGeminiAPIKey() string {
	value, exists := os.LookupEnv("RESTORE_SITE_GEMINI_API_KEY")
	if exists {
		return value
	}
	return ""
}

func GetGeminiBaseURL() string {
	value, exists := os.LookupEnv("RESTORE_SITE_GEMINI_BASE_URL")
	if exists {
		return strings.TrimSuffix(value, "/")
	}
	return "https://generativelanguage.googleapis.com"
}

// delay between checks of the remote video generation operation
func GetPollInterval() time.Duration {
	key := "RESTORE_SITE_POLL_INTERVAL"
	if value, exists := os.LookupEnv(key); exists {
		d, err := time.ParseDuration(value)
		if err == nil && d > 0 {
			return d
		}
	}
	return 5 * time.Second
}

func GetGitSHA() string {
	if gitSHA == "" {
		return "<not provided>"
	} else {
		return gitSHA
	}
}

func GetBuildDate() string {
	if buildDate == "" {
		return "<not provided>"
	} else {
		return buildDate
	}
}
