package config

const (
	// EngineSQLite selects the pure go sqlite driver.
	EngineSQLite = "sqlite"
	// EnginePostgres selects the gorm postgres driver.
	EnginePostgres = "postgres"
	// EngineMySQL selects the gorm mysql driver.
	EngineMySQL = "mysql"
)

// DB holds the database configuration settings.
type DB struct {
	GormEngine string // sqlite, postgres or mysql
	Extras     string // extra DSN parameters
	Host       string
	Port       int
	User       string
	Password   string
	Name       string
	Path       string // sqlite database file
}
