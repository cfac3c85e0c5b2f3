package config

import (
	"fmt"
	"os"
	"strings"
)

// Config captures environment driven configuration values for the musterd
// process. Scheduling times and the timezone live in the database instead;
// they are runtime-mutable through the config-set operation.
type Config struct {
	SQLiteDSN        string
	GroupChatID      string
	BotID            string
	BootstrapAdminID string
	HolidaySeedPath  string
}

// Load parses configuration values from the current process environment.
//
// The loader applies defaults for optional fields while validating required
// values and reporting every missing entry in one error.
func Load() (Config, error) {
	cfg := Config{
		SQLiteDSN: "file:musterd.db?_pragma=foreign_keys(1)",
	}

	missing := make([]string, 0, 2)

	if dsn := strings.TrimSpace(os.Getenv("MUSTERD_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if chatID := strings.TrimSpace(os.Getenv("MUSTERD_GROUP_CHAT_ID")); chatID == "" {
		missing = append(missing, "MUSTERD_GROUP_CHAT_ID")
	} else {
		cfg.GroupChatID = chatID
	}

	if botID := strings.TrimSpace(os.Getenv("MUSTERD_BOT_ID")); botID == "" {
		missing = append(missing, "MUSTERD_BOT_ID")
	} else {
		cfg.BotID = botID
	}

	// Optional: when unset the first admin must be granted by hand in the
	// database before admin commands work.
	cfg.BootstrapAdminID = strings.TrimSpace(os.Getenv("MUSTERD_BOOTSTRAP_ADMIN_ID"))

	// Optional: YAML file of holiday dates imported at startup.
	cfg.HolidaySeedPath = strings.TrimSpace(os.Getenv("MUSTERD_HOLIDAY_SEED"))

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables are not set: %s", strings.Join(missing, ", "))
	}

	return cfg, nil
}
