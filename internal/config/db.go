package config

// Supported gorm engines.
const (
	EngineMySQL    = "mysql"
	EnginePostgres = "postgres"
	EngineSQLite   = "sqlite"
)

// DB holds the database configuration settings.
type DB struct {
	Extras     string
	Host       string
	Port       int
	User       string
	Password   string
	Name       string // database name, or the file path for sqlite
	GormEngine string
	// Schema is the default tenant schema (postgres search_path). Empty means the connection default.
	Schema string
}
