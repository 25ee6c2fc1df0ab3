package main

import (
	"crypto/rand"
	"os"

	"github.com/multiformats/go-multibase"
	"gopkg.in/yaml.v3"

	"github.com/tcfw/runtimed/internal/config"
	"github.com/tcfw/runtimed/pkg/block"
	"github.com/tcfw/runtimed/pkg/keymanager"
)

// Prints a runtimed.yaml with a fresh runtime id and key manager master secret
func main() {
	var ns block.Namespace
	if _, err := rand.Read(ns[:]); err != nil {
		panic(err)
	}

	secret := make([]byte, keymanager.KeySize)
	if _, err := rand.Read(secret); err != nil {
		panic(err)
	}

	enc, err := multibase.Encode(multibase.Base58BTC, secret)
	if err != nil {
		panic(err)
	}

	cfg := map[string]interface{}{
		"runtime": map[string]interface{}{
			"id":           ns.String(),
			"masterSecret": enc,
		},
		"node": map[string]interface{}{
			"store":      config.StorePebble,
			"listenAddr": "127.0.0.1:8713",
		},
	}

	e := yaml.NewEncoder(os.Stdout)
	e.SetIndent(2)
	if err := e.Encode(cfg); err != nil {
		panic(err)
	}
	e.Close()
}
