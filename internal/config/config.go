package config

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/tcfw/runtimed/internal/utils/logging"
)

const (
	Cfg_verbose    = "verbose"
	Cfg_logJSON    = "log.json"
	Cfg_daemonAddr = "daemon_addr"
)

var (
	defaults = map[string]interface{}{
		Cfg_verbose:    false,
		Cfg_logJSON:    false,
		Cfg_daemonAddr: "127.0.0.1:8713",
	}
)

func init() {
	for k, v := range defaults {
		viper.SetDefault(k, v)
	}
}

func GetConfig() (*Config, error) {
	viper.SetConfigType("yaml")
	viper.SetConfigName("runtimed")
	viper.AddConfigPath("/etc/runtimed/")
	viper.AddConfigPath("$HOME/.runtimed")
	viper.AddConfigPath(".")
	viper.SetEnvPrefix("RUNTIMED")
	viper.AutomaticEnv()
	err := viper.ReadInConfig()
	if err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; ignore error
			logging.Entry().Debug("no config found")
		} else {
			return nil, errors.Wrap(err, "reading config file")
		}
	}

	c := &Config{}

	c.node, err = buildNodeConfig()
	if err != nil {
		return nil, errors.Wrap(err, "node config")
	}

	c.runtime, err = buildRuntimeConfig()
	if err != nil {
		return nil, errors.Wrap(err, "runtime config")
	}

	c.client, err = buildClientConfig()
	if err != nil {
		return nil, errors.Wrap(err, "client config")
	}

	logging.SetFormatter(viper.GetBool(Cfg_logJSON))

	if viper.GetBool(Cfg_verbose) {
		logging.SetLevel(logrus.DebugLevel)
		logging.WithField("level", "debug").Debug("setting log level")
	}

	return c, nil
}

type Config struct {
	node    *Node
	runtime *Runtime
	client  *Client
}

func (c *Config) Node() *Node {
	return c.node
}

func (c *Config) Runtime() *Runtime {
	return c.runtime
}

func (c *Config) Client() *Client {
	return c.client
}
