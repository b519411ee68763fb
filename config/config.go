package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/ini.v1"
)

// Keys under the [MAIN] section of the startup config file.
const (
	KeyToken          = "main.token"
	KeyPrefix         = "main.prefix"
	KeyConfigPath     = "main.configpath"
	KeyDatabasePath   = "main.databasepath"
	KeyAdminChannelID = "main.adminchannelid"
	KeySweepAtStartup = "main.sweepatstartup"
)

// Load reads the startup configuration into the global viper instance.
// Sources, in increasing precedence:
// 1. the INI config file (required; [MAIN] section with Token, Prefix, ConfigPath)
// 2. a .env file, if present
// 3. environment variables (MAIN_TOKEN, MAIN_PREFIX, ...)
// A missing required key is a fatal configuration error.
func Load(path string) error {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found, skipping.")
	}

	file, err := ini.Load(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	settings := make(map[string]any)
	for _, section := range file.Sections() {
		if section.Name() == ini.DefaultSection {
			continue
		}
		values := make(map[string]any)
		for _, key := range section.Keys() {
			values[strings.ToLower(key.Name())] = key.Value()
		}
		settings[strings.ToLower(section.Name())] = values
	}
	if err := viper.MergeConfigMap(settings); err != nil {
		return fmt.Errorf("failed to merge config file %s: %w", path, err)
	}

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.SetDefault(KeyDatabasePath, "archive_index.db")

	for _, key := range []string{KeyToken, KeyPrefix, KeyConfigPath} {
		if viper.GetString(key) == "" {
			return fmt.Errorf("missing required config key %s in %s", key, path)
		}
	}

	return nil
}
