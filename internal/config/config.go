// Package config handles input from etc/*.toml files
package config

import (
	"bytes"
	"encoding/json"
	"os"

	"github.com/pkg/errors"

	"github.com/BurntSushi/toml"
)

// EnvConfigJSON names the environment variable holding a JSON document merged over main.toml.
const EnvConfigJSON = "CATALOG_ADMIN_CONFIG_JSON"

const (
	defaultShutDownTime  = 5
	defaultAccessTTL     = 15
	defaultRefreshTTL    = 60 * 24
	defaultMaxUploadSize = 10 << 20
)

// ReadConfig from config file.
func ReadConfig(path string) (Config, error) {
	var (
		c             Config
		JSONConfigEnv string
		err           error
	)

	// Read main configuration
	if path == "" {
		path = "./etc/"
	}

	if _, err = toml.DecodeFile(path+"main.toml", &c); err != nil {
		return Config{}, errors.Wrap(err, "failed to read main config file")
	}

	// override it from env
	JSONConfigEnv = os.Getenv(EnvConfigJSON)

	if JSONConfigEnv != "" {
		c, err = decodeAndMergeConfig(c, JSONConfigEnv)
		if err != nil {
			return c, err
		}
	}

	return c, validate(&c)
}

func decodeAndMergeConfig(c Config, configAsJSON string) (Config, error) {
	err := json.Unmarshal([]byte(configAsJSON), &c)
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to decode json config override")
	}

	return c, nil
}

// DumpConfig config as TOML String.
func DumpConfig(c *Config) (string, error) {
	var buffer bytes.Buffer
	t := toml.NewEncoder(&buffer)

	if err := t.Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// validate checks the settings the service can not start without and
// fills in defaults for the optional ones.
func validate(c *Config) error {
	invalidErrMessage := "invalid config"

	if c.Webserver.Port == 0 {
		return errors.Wrap(ErrWebServerPortCanNotBeZero, invalidErrMessage)
	}

	if c.Webserver.ShutDownTime == 0 {
		c.Webserver.ShutDownTime = defaultShutDownTime
	}

	if c.Webserver.MaxUploadSize == 0 {
		c.Webserver.MaxUploadSize = defaultMaxUploadSize
	}

	switch c.DB.GormEngine {
	case EngineMySQL, EnginePostgres, EngineSQLite:
	case "":
		c.DB.GormEngine = EngineSQLite
	default:
		return errors.Wrapf(ErrUnknownGormEngine, "%s: %q", invalidErrMessage, c.DB.GormEngine)
	}

	switch c.Storage.Driver {
	case StorageFile, "":
		c.Storage.Driver = StorageFile
		if c.Storage.File.Root == "" {
			return errors.Wrap(ErrEmptyStorageRoot, invalidErrMessage)
		}
	case StorageOSS:
		if c.Storage.OSS.Bucket == "" {
			return errors.Wrap(ErrEmptyOSSBucket, invalidErrMessage)
		}
	case StorageCloudinary:
	default:
		return errors.Wrapf(ErrUnknownStorageDriver, "%s: %q", invalidErrMessage, c.Storage.Driver)
	}

	if c.JWT.AccessTTL == 0 {
		c.JWT.AccessTTL = defaultAccessTTL
	}

	if c.JWT.RefreshTTL == 0 {
		c.JWT.RefreshTTL = defaultRefreshTTL
	}

	return nil
}
