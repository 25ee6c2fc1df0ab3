package config

import (
	"github.com/multiformats/go-multibase"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/tcfw/runtimed/pkg/block"
	"github.com/tcfw/runtimed/pkg/keymanager"
)

type Runtime struct {
	ID block.Namespace

	// MasterSecret is nil when not configured
	MasterSecret []byte
}

const (
	Cfg_runtime_id           = "runtime.id"
	Cfg_runtime_masterSecret = "runtime.masterSecret"
)

func buildRuntimeConfig() (*Runtime, error) {
	c := &Runtime{}

	if id := viper.GetString(Cfg_runtime_id); id != "" {
		ns, err := block.ParseNamespace(id)
		if err != nil {
			return nil, errors.Wrap(err, "parsing runtime id")
		}
		c.ID = ns
	}

	secret := viper.GetString(Cfg_runtime_masterSecret)
	if secret == "" {
		return c, nil
	}

	_, raw, err := multibase.Decode(secret)
	if err != nil {
		return nil, errors.Wrap(err, "decoding master secret")
	}

	if len(raw) != keymanager.KeySize {
		return nil, keymanager.ErrBadMasterSecret
	}
	c.MasterSecret = raw

	return c, nil
}
