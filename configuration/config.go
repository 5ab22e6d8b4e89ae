package configuration

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"

	"github.com/hackcelestial/sports-bridge/constants"
	logger "github.com/hackcelestial/sports-bridge/log"
)

var log = logger.Get()
var mainLoggerTag = "CONFIG"
var mainLogger = log.WithField("prefix", mainLoggerTag)

type HttpServerOptions struct {
	UseSSL              bool
	CertFile            string
	KeyFile             string
	ReadTimeoutSeconds  int
	WriteTimeoutSeconds int
}

type CORS struct {
	AllowedOrigins []string
}

// Storage configures the relational store holding every domain record.
type Storage struct {
	Driver       string `json:"driver"`
	DSN          string `json:"dsn"`
	MaxOpenConns int    `json:"max_open_conns"`
}

type RedisSettings struct {
	Addr      string
	Username  string
	Password  string
	Database  int
	KeyPrefix string
}

// KV configures where short lived state (otp codes, rate counters) lives.
type KV struct {
	Backend string
	Redis   RedisSettings
}

type Security struct {
	JWTSecret     string
	JWTTTLSeconds int64
	AESKey        string
	AadhaarPepper string
	SessionSecret string
}

type OTP struct {
	Sender string
}

type Mail struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type S3Settings struct {
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	Endpoint  string
	PublicURL string
}

type Uploads struct {
	Backend      string
	Dir          string
	PublicPrefix string
	MaxBytes     int64
	S3           S3Settings
}

type AI struct {
	BaseURL string
}

// Seed configures where demo data is loaded from and where backups go.
type Seed struct {
	Type      string `json:"type"`
	File      string `json:"file"`
	MongoURL  string `json:"mongo_url"`
	MongoDB   string `json:"mongo_db"`
	BackupDir string `json:"backup_dir"`
}

type Invitations struct {
	RetentionHours int
}

// Configuration holds all configuration settings for the service
type Configuration struct {
	Secret            string
	Port              int
	DevMode           bool
	HttpServerOptions HttpServerOptions
	CORS              CORS
	Storage           Storage
	KV                KV
	Security          Security
	OTP               OTP
	Mail              Mail
	Uploads           Uploads
	AI                AI
	Seed              Seed
	Invitations       Invitations
}

// Defaults returns a configuration that runs locally without any external service.
func Defaults() Configuration {
	return Configuration{
		Port: 3010,
		HttpServerOptions: HttpServerOptions{
			ReadTimeoutSeconds:  30,
			WriteTimeoutSeconds: 30,
		},
		Storage: Storage{
			Driver: constants.DriverSQLite,
			DSN:    "sportsbridge.db",
		},
		KV: KV{Backend: constants.KVMemory},
		Security: Security{
			JWTTTLSeconds: 604800,
		},
		OTP: OTP{Sender: "log"},
		Uploads: Uploads{
			Backend:      "local",
			Dir:          "uploads",
			PublicPrefix: constants.UploadsPath,
			MaxBytes:     10 << 20,
		},
		Seed:        Seed{Type: constants.LoaderFile},
		Invitations: Invitations{RetentionHours: 24},
	}
}

// LoadConfig will load the config from a file, then apply SB_ prefixed environment overrides.
func LoadConfig(filePath string, conf *Configuration) {
	log = logger.Get()
	mainLogger = &logrus.Entry{Logger: log}
	mainLogger = mainLogger.Logger.WithField("prefix", mainLoggerTag)

	shouldOmit, omitEnvExist := os.LookupEnv(constants.EnvPrefix + "_OMITCONFIGFILE")
	omit := omitEnvExist && strings.ToLower(shouldOmit) == "true"

	if !omit {
		configuration, err := os.ReadFile(filePath)
		if err != nil {
			mainLogger.Warn("Couldn't load configuration file, using defaults: ", err)
		} else if jsErr := json.Unmarshal(configuration, conf); jsErr != nil {
			mainLogger.Error("Couldn't unmarshal configuration: ", jsErr)
		}
	}

	if err := envconfig.Process(constants.EnvPrefix, conf); err != nil {
		mainLogger.Errorf("Failed to process config env vars: %v", err)
	}

	if conf.Security.SessionSecret == "" {
		conf.Security.SessionSecret = os.Getenv(constants.EnvPrefix + "_SESSION_SECRET")
	}

	mainLogger.Debugf("Config Loaded: port=%d storage=%s kv=%s", conf.Port, conf.Storage.Driver, conf.KV.Backend)
}
