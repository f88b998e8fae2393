package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func etcPath(t *testing.T) string {
	t.Helper()

	projectRoot, err := filepath.Abs("../../")
	require.NoError(t, err)

	return filepath.Join(projectRoot, "etc") + string(filepath.Separator)
}

func TestReadConfig(t *testing.T) {
	cfg, err := ReadConfig(etcPath(t))
	require.NoError(t, err)

	assert.Equal(t, "catalog-admin", cfg.Title)
	assert.Equal(t, 8000, cfg.Webserver.Port)
	assert.Equal(t, EngineSQLite, cfg.DB.GormEngine)
	assert.Equal(t, StorageFile, cfg.Storage.Driver)
	assert.Equal(t, "/media", cfg.Storage.File.URLPrefix)
	assert.Equal(t, 15, cfg.JWT.AccessTTL)
	assert.Equal(t, "access.log", cfg.Log.File.Access.Name)
	assert.Equal(t, "viewer", cfg.Seed.DefaultRole)
}

func TestReadConfigMissingFile(t *testing.T) {
	_, err := ReadConfig(t.TempDir() + string(filepath.Separator))
	require.Error(t, err)
}

func TestReadConfigWithJSONOverride(t *testing.T) {
	t.Setenv(EnvConfigJSON, `{"Title":"Test Override","Webserver":{"Port":9090},"DB":{"Schema":"tenant_a"}}`)

	cfg, err := ReadConfig(etcPath(t))
	require.NoError(t, err)

	assert.Equal(t, "Test Override", cfg.Title)
	assert.Equal(t, 9090, cfg.Webserver.Port)
	assert.Equal(t, "tenant_a", cfg.DB.Schema)
	// untouched values survive the merge
	assert.Equal(t, EngineSQLite, cfg.DB.GormEngine)
}

func TestReadConfigWithBrokenJSONOverride(t *testing.T) {
	t.Setenv(EnvConfigJSON, `{"Title":`)

	_, err := ReadConfig(etcPath(t))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Webserver: Webserver{Port: 8080},
			Storage:   Storage{File: FileStorage{Root: "var/media"}},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr error
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing port", mutate: func(c *Config) { c.Webserver.Port = 0 }, wantErr: ErrWebServerPortCanNotBeZero},
		{name: "unknown engine", mutate: func(c *Config) { c.DB.GormEngine = "oracle" }, wantErr: ErrUnknownGormEngine},
		{name: "unknown storage", mutate: func(c *Config) { c.Storage.Driver = "ftp" }, wantErr: ErrUnknownStorageDriver},
		{name: "file without root", mutate: func(c *Config) { c.Storage.File.Root = "" }, wantErr: ErrEmptyStorageRoot},
		{
			name:    "oss without bucket",
			mutate:  func(c *Config) { c.Storage.Driver = StorageOSS },
			wantErr: ErrEmptyOSSBucket,
		},
		{name: "cloudinary", mutate: func(c *Config) { c.Storage.Driver = StorageCloudinary }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)

			err := validate(&c)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)

				return
			}

			require.NoError(t, err)
		})
	}
}

func TestValidateDefaults(t *testing.T) {
	c := Config{Webserver: Webserver{Port: 8080}, Storage: Storage{File: FileStorage{Root: "x"}}}
	require.NoError(t, validate(&c))

	assert.Equal(t, EngineSQLite, c.DB.GormEngine)
	assert.Equal(t, StorageFile, c.Storage.Driver)
	assert.Equal(t, defaultShutDownTime, c.Webserver.ShutDownTime)
	assert.Equal(t, defaultMaxUploadSize, c.Webserver.MaxUploadSize)
	assert.Equal(t, defaultAccessTTL, c.JWT.AccessTTL)
	assert.Equal(t, defaultRefreshTTL, c.JWT.RefreshTTL)
}

func TestDumpConfig(t *testing.T) {
	cfg := Config{
		Title:     "Test",
		DevMode:   true,
		Webserver: Webserver{Port: 8080},
		JWT:       JWT{Issuer: "catalog-admin"},
	}

	out, err := DumpConfig(&cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "Test")
	assert.Contains(t, out, "catalog-admin")
}
