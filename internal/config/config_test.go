package config

import (
	"bytes"
	"testing"
	"time"

	"github.com/multiformats/go-multibase"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"

	"github.com/tcfw/runtimed/pkg/block"
	"github.com/tcfw/runtimed/pkg/keymanager"
)

func TestBuildNodeConfig(t *testing.T) {
	defer viper.Set(Cfg_node_store, StorePebble)
	defer viper.Set(Cfg_node_blockInterval, "1s")

	c, err := buildNodeConfig()
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, time.Second, c.BlockInterval)
	assert.Equal(t, 100, c.MaxBatchSize)

	viper.Set(Cfg_node_store, "tape")
	_, err = buildNodeConfig()
	assert.Error(t, err)

	viper.Set(Cfg_node_store, StoreMemory)
	viper.Set(Cfg_node_blockInterval, "0s")
	_, err = buildNodeConfig()
	assert.Error(t, err)
}

func TestBuildRuntimeConfig(t *testing.T) {
	defer viper.Set(Cfg_runtime_id, "")
	defer viper.Set(Cfg_runtime_masterSecret, "")

	ns := block.Namespace{1, 2, 3}
	secret := bytes.Repeat([]byte{5}, keymanager.KeySize)
	enc, err := multibase.Encode(multibase.Base58BTC, secret)
	if err != nil {
		t.Fatal(err)
	}

	viper.Set(Cfg_runtime_id, ns.String())
	viper.Set(Cfg_runtime_masterSecret, enc)

	c, err := buildRuntimeConfig()
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, ns, c.ID)
	assert.Equal(t, secret, c.MasterSecret)

	viper.Set(Cfg_runtime_masterSecret, "")
	c, err = buildRuntimeConfig()
	if err != nil {
		t.Fatal(err)
	}
	assert.Nil(t, c.MasterSecret)

	short, _ := multibase.Encode(multibase.Base58BTC, []byte("short"))
	viper.Set(Cfg_runtime_masterSecret, short)
	_, err = buildRuntimeConfig()
	assert.ErrorIs(t, err, keymanager.ErrBadMasterSecret)
}
