package main

import (
	"errors"
	"fmt"

	"github.com/hackcelestial/sports-bridge/configuration"
	"github.com/hackcelestial/sports-bridge/constants"
)


// loadConfig will load the config from a file on top of the defaults, then validate it
func loadConfig(filePath string) (configuration.Configuration, error) {
	conf := configuration.Defaults()
	configuration.LoadConfig(filePath, &conf)

	if err := validateConfig(&conf); err != nil {
		return conf, err
	}
	mainLogger.Debug("Settings loaded: port=", conf.Port, " storage=", conf.Storage.Driver)
	return conf, nil
}

func validateConfig(conf *configuration.Configuration) error {
	if conf.Port <= 0 || conf.Port > 65535 {
		return fmt.Errorf("invalid port %d", conf.Port)
	}
	if conf.HttpServerOptions.UseSSL && (conf.HttpServerOptions.CertFile == "" || conf.HttpServerOptions.KeyFile == "") {
		return errors.New("UseSSL requires CertFile and KeyFile")
	}
	switch conf.Storage.Driver {
	case constants.DriverPostgres, constants.DriverSQLite:
	default:
		return fmt.Errorf("unsupported storage driver %q", conf.Storage.Driver)
	}
	if conf.Secret == "" {
		mainLogger.Warning("No admin Secret set, the /admin API is disabled")
	}
	return nil
}
