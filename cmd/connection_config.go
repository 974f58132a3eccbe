package cmd

import (
	"time"

	"github.com/nats-io/nats.go"
)

type ConnectionConfig struct {
	User     string `json:"user"`
	Password string `json:"password"`
	NatsUrl  string `json:"nats-url"`
	Name     string `json:"name,omitempty"`
}

func (config *ConnectionConfig) Connect() (*nats.Conn, error) {
	url := config.NatsUrl
	if url == "" {
		url = nats.DefaultURL
	}
	opts := []nats.Option{
		nats.Name(config.Name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
	}
	if config.User != "" {
		opts = append(opts, nats.UserInfo(config.User, config.Password))
	}
	return nats.Connect(url, opts...)
}
