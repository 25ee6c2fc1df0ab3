package node

import (
	"context"
	"crypto/rand"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/tcfw/runtimed/internal/config"
	"github.com/tcfw/runtimed/internal/runtime/keyvalue"
	"github.com/tcfw/runtimed/internal/storage"
	"github.com/tcfw/runtimed/internal/utils/logging"
	"github.com/tcfw/runtimed/pkg/block"
	"github.com/tcfw/runtimed/pkg/keymanager"
	"github.com/tcfw/runtimed/pkg/mkvs"
	"github.com/tcfw/runtimed/pkg/runtime"
	storageIface "github.com/tcfw/runtimed/pkg/storage"
)

type NodeOption func(*Node) error

func WithStore(s storageIface.Store) NodeOption {
	return func(n *Node) error {
		n.store = s
		return nil
	}
}

func WithTree(t mkvs.Tree) NodeOption {
	return func(n *Node) error {
		n.tree = t
		return nil
	}
}

func WithDispatcher(d *runtime.TxnDispatcher) NodeOption {
	return func(n *Node) error {
		n.dispatcher = d
		return nil
	}
}

func WithRuntimeID(id block.Namespace) NodeOption {
	return func(n *Node) error {
		n.runtimeID = id
		return nil
	}
}

// WithBlockInterval sets how often pending calls are batched into a block
func WithBlockInterval(d time.Duration) NodeOption {
	return func(n *Node) error {
		if d <= 0 {
			return errors.New("block interval must be positive")
		}
		n.blockInterval = d
		return nil
	}
}

func WithMaxBatchSize(size int) NodeOption {
	return func(n *Node) error {
		if size <= 0 || size > storageIface.MaxBlockTxCount {
			return errors.Errorf("batch size must be between 1 and %d", storageIface.MaxBlockTxCount)
		}
		n.maxBatchSize = size
		return nil
	}
}

func WithLogger(l *logrus.Entry) NodeOption {
	return func(n *Node) error {
		n.logger = l
		return nil
	}
}

// WithDefaultOptions wires the store, state, key manager and key value
// runtime described by cfg
func WithDefaultOptions(ctx context.Context, cfg *config.Config) NodeOption {
	return func(n *Node) error {
		n.logger = logging.Named("node")

		ncfg := cfg.Node()

		switch ncfg.Store {
		case config.StoreMemory:
			n.store = storageIface.NewMemStore()
			n.tree = mkvs.NewMemTree()
		case config.StorePebble:
			s, t, err := storage.Open(ncfg.Repo, nil)
			if err != nil {
				return errors.Wrap(err, "initing storage")
			}
			n.store = s
			n.tree = t
			n.closers = append(n.closers, s)
		default:
			return errors.Errorf("unknown store %q", ncfg.Store)
		}

		secret := cfg.Runtime().MasterSecret
		if secret == nil {
			n.logger.Warn("no key manager master secret configured, confidential state will not survive a restart")

			secret = make([]byte, keymanager.KeySize)
			if _, err := rand.Read(secret); err != nil {
				return errors.Wrap(err, "generating master secret")
			}
		}

		km, err := keymanager.NewLocalClient(secret)
		if err != nil {
			return errors.Wrap(err, "initing key manager")
		}

		d := runtime.NewTxnDispatcher()
		keyvalue.Register(d, km)
		n.dispatcher = d

		n.runtimeID = cfg.Runtime().ID
		n.blockInterval = ncfg.BlockInterval
		n.maxBatchSize = ncfg.MaxBatchSize

		return nil
	}
}
