package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	StoreMemory = "memory"
	StorePebble = "pebble"
)

type Node struct {
	Store         string
	Repo          string
	ListenAddr    string
	BlockInterval time.Duration
	MaxBatchSize  int
}

const (
	Cfg_node_store         = "node.store"
	Cfg_node_repo          = "node.repo"
	Cfg_node_listenAddr    = "node.listenAddr"
	Cfg_node_blockInterval = "node.blockInterval"
	Cfg_node_maxBatchSize  = "node.maxBatchSize"
)

var (
	nodeDefaults = map[string]interface{}{
		Cfg_node_store:         StorePebble,
		Cfg_node_repo:          "$HOME/.runtimed/data",
		Cfg_node_listenAddr:    "127.0.0.1:8713",
		Cfg_node_blockInterval: "1s",
		Cfg_node_maxBatchSize:  100,
	}
)

func init() {
	for k, v := range nodeDefaults {
		viper.SetDefault(k, v)
	}
}

func buildNodeConfig() (*Node, error) {
	c := &Node{
		Store:         viper.GetString(Cfg_node_store),
		Repo:          os.ExpandEnv(viper.GetString(Cfg_node_repo)),
		ListenAddr:    viper.GetString(Cfg_node_listenAddr),
		BlockInterval: viper.GetDuration(Cfg_node_blockInterval),
		MaxBatchSize:  viper.GetInt(Cfg_node_maxBatchSize),
	}

	switch c.Store {
	case StoreMemory, StorePebble:
	default:
		return nil, errors.Errorf("unknown store type %q", c.Store)
	}

	if c.BlockInterval <= 0 {
		return nil, errors.New("block interval must be positive")
	}

	if c.MaxBatchSize <= 0 {
		return nil, errors.New("max batch size must be positive")
	}

	return c, nil
}
