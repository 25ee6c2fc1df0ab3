package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"

	"github.com/tcfw/runtimed/internal/config"
	"github.com/tcfw/runtimed/pkg/block"
	"github.com/tcfw/runtimed/pkg/client"
	"github.com/tcfw/runtimed/pkg/hash"
	"github.com/tcfw/runtimed/pkg/transaction"
)

const (
	outputYAML = "yaml"
	outputJSON = "json"
)

func printOutput(v interface{}) error {
	switch f := viper.GetString(config.Cfg_client_output); f {
	case outputJSON:
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML, "":
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return errors.Errorf("unknown output format %q", f)
	}
}

type blockView struct {
	Round           uint64 `json:"round" yaml:"round"`
	Hash            string `json:"hash" yaml:"hash"`
	Namespace       string `json:"namespace" yaml:"namespace"`
	PreviousHash    string `json:"previous_hash" yaml:"previous_hash"`
	TransactionHash string `json:"transaction_hash" yaml:"transaction_hash"`
	StateRoot       string `json:"state_root" yaml:"state_root"`
}

func newBlockView(h *block.Header, id hash.Hash) *blockView {
	return &blockView{
		Round:           h.RoundNumber(),
		Hash:            id.String(),
		Namespace:       h.Namespace.String(),
		PreviousHash:    h.PreviousHash.String(),
		TransactionHash: h.TransactionHash.String(),
		StateRoot:       h.StateRoot.String(),
	}
}

type txnView struct {
	Round     uint64      `json:"round" yaml:"round"`
	Index     uint32      `json:"index" yaml:"index"`
	BlockHash string      `json:"block_hash" yaml:"block_hash"`
	Method    string      `json:"method,omitempty" yaml:"method,omitempty"`
	Args      interface{} `json:"args,omitempty" yaml:"args,omitempty"`
	Result    interface{} `json:"result,omitempty" yaml:"result,omitempty"`
	Error     string      `json:"error,omitempty" yaml:"error,omitempty"`
}

func newTxnView(t *client.TransactionSnapshot) *txnView {
	v := &txnView{
		Round:     t.Round,
		Index:     t.Index,
		BlockHash: t.BlockHash.String(),
	}

	v.Method, v.Args = decodeCall(t.Input)
	v.Result, v.Error = decodeResult(t.Output)

	return v
}

func decodeResult(output []byte) (interface{}, string) {
	var res interface{}
	if err := client.ParseCallOutput(output, &res); err != nil {
		return nil, err.Error()
	}

	return res, ""
}

func decodeCall(input []byte) (string, interface{}) {
	call, err := transaction.DecodeCall(input)
	if err != nil {
		return "", fmt.Sprintf("%x", input)
	}

	var args interface{}
	if err := msgpack.Unmarshal(call.Args, &args); err != nil {
		return call.Method, fmt.Sprintf("%x", []byte(call.Args))
	}

	return call.Method, args
}
