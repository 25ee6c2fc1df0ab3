package config

import (
	"time"

	"github.com/spf13/viper"
)

type Client struct {
	DaemonAddr string
	Timeout    time.Duration
	Output     string
}

const (
	Cfg_client_timeout = "client.timeout"
	Cfg_client_output  = "client.output"
)

var (
	clientDefaults = map[string]interface{}{
		Cfg_client_timeout: "10s",
		Cfg_client_output:  "yaml",
	}
)

func init() {
	for k, v := range clientDefaults {
		viper.SetDefault(k, v)
	}
}

func buildClientConfig() (*Client, error) {
	return &Client{
		DaemonAddr: viper.GetString(Cfg_daemonAddr),
		Timeout:    viper.GetDuration(Cfg_client_timeout),
		Output:     viper.GetString(Cfg_client_output),
	}, nil
}
