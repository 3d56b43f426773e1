package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/pevans/fairscrape/scraper"
	"gopkg.in/yaml.v3"
)

// ErrUnknownProfile is returned when the selected profile is neither built
// in nor defined in the config file.
var ErrUnknownProfile = errors.New("unknown profile")

// Config is the fully resolved run configuration.
type Config struct {
	Storage StorageConfig
	Log     LogConfig
	Output  string
	Profile scraper.Profile
}

// Defaults used when neither the file nor the environment set a value.
const (
	DefaultDriver  = "sqlite3"
	DefaultDSN     = "fairscrape.db"
	DefaultProfile = "cantonfair"
	DefaultOutput  = "output.csv"
)

// getEnv returns the value of an environment variable or a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Load resolves configuration in increasing order of precedence: built-in
// defaults, the config file, a .env file in the working directory, and the
// process environment. A non-empty profileName wins over all of them.
func Load(configPath, profileName string) (*Config, error) {
	// A missing .env is fine; variables may come from the real environment.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	file, err := LoadConfigFile(configPath)
	if err != nil {
		return nil, err
	}
	if file == nil {
		file = &FileConfig{}
	}

	cfg := &Config{
		Storage: StorageConfig{
			Driver: getEnv("FAIRSCRAPE_DB_DRIVER", orDefault(file.Storage.Driver, DefaultDriver)),
			DSN:    getEnv("FAIRSCRAPE_DB_DSN", orDefault(file.Storage.DSN, DefaultDSN)),
		},
		Log: LogConfig{
			Env:   getEnv("FAIRSCRAPE_ENV", orDefault(file.Log.Env, "development")),
			Level: getEnv("FAIRSCRAPE_LOG_LEVEL", orDefault(file.Log.Level, "info")),
		},
		Output: getEnv("FAIRSCRAPE_OUTPUT", orDefault(file.Output, DefaultOutput)),
	}

	name := profileName
	if name == "" {
		name = getEnv("FAIRSCRAPE_PROFILE", orDefault(file.Profile, DefaultProfile))
	}
	profile, err := ResolveProfile(name, file)
	if err != nil {
		return nil, err
	}
	cfg.Profile = profile

	return cfg, nil
}

// ResolveProfile returns the named profile. A profile defined in the file is
// decoded over the built-in profile of the same name, so it only needs to
// list the keys it changes.
func ResolveProfile(name string, file *FileConfig) (scraper.Profile, error) {
	profile, builtin := scraper.Builtin(name)

	var node *yaml.Node
	if file != nil {
		if n, ok := file.Profiles[name]; ok {
			node = &n
		}
	}

	if !builtin && node == nil {
		return scraper.Profile{}, fmt.Errorf("%w: %s", ErrUnknownProfile, name)
	}

	if node != nil {
		if err := node.Decode(&profile); err != nil {
			return scraper.Profile{}, fmt.Errorf("failed to parse profile %s: %w", name, err)
		}
	}

	if profile.Name == "" {
		profile.Name = name
	}
	if profile.Fetcher == "" {
		profile.Fetcher = "chrome"
	}
	if profile.Marketplace == (scraper.Marketplace{}) {
		profile.Marketplace = scraper.DefaultMarketplace()
	}

	return profile, nil
}

func orDefault(value, defaultValue string) string {
	if value == "" {
		return defaultValue
	}
	return value
}
