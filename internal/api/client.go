package api

import (
	"context"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	apipb "github.com/tcfw/runtimed/api"
	"github.com/tcfw/runtimed/internal/config"
	"github.com/tcfw/runtimed/pkg/block"
	"github.com/tcfw/runtimed/pkg/client"
)

type Client struct {
	cc *grpc.ClientConn
}

func (a *Client) Close() error {
	return a.cc.Close()
}

func (a *Client) Runtime() apipb.RuntimeClientClient {
	return apipb.NewRuntimeClientClient(a.cc)
}

func (a *Client) Storage() apipb.StorageClient {
	return apipb.NewStorageClient(a.cc)
}

// TxnClient returns a client of runtimeID sharing this connection
func (a *Client) TxnClient(runtimeID block.Namespace, opts ...client.Option) (*client.Client, error) {
	return client.New(a.Runtime(), a.Storage(), runtimeID, opts...)
}

// Dial connects to the daemon at addr
func Dial(ctx context.Context, addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(apipb.Codec{})),
	}, opts...)

	cc, err := grpc.DialContext(ctx, addr, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "connecting to daemon")
	}

	return &Client{cc: cc}, nil
}

func NewClient() (*Client, error) {
	return Dial(context.Background(), viper.GetString(config.Cfg_daemonAddr))
}
