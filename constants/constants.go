package constants

// EnvPrefix is used for every environment override of the configuration.
const EnvPrefix = "SB"

const (
	// HandlerLogTag is a tag we are using to identify log messages from the handler
	HandlerLogTag  = "API HANDLERS"
	AdminLogTag    = "ADMIN API"
	MainLogTag     = "MAIN"
	DashboardTag   = "DASHBOARD"
	MiddlewareTag  = "MIDDLEWARE"
	DefaultConfig  = "sportsbridge.conf"
	SessionCookie  = "_sportsbridge_session"
	ServiceName    = "sports-bridge"
	UploadsPath    = "/uploads/"
	DefaultPageLen = 10
	MaxPageLen     = 50
)

// storage drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// kv backends
const (
	KVMemory = "memory"
	KVRedis  = "redis"
)

// seed loaders
const (
	LoaderFile  = "file"
	LoaderMongo = "mongo"
	LoaderNone  = "none"
)
