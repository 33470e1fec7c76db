// Package idgen issues order and sale numbers.
package idgen

import (
	"tienda/config"
	"tienda/internal/domain/service"

	"github.com/bwmarrin/snowflake"
	"github.com/pkg/errors"
)

type snowflakeGenerator struct {
	node *snowflake.Node
}

// New creates a generator for the configured node. Each running API instance needs its own node.
func New(cfg *config.Config) (service.NumberGenerator, error) {
	node, err := snowflake.NewNode(cfg.Snowflake.Node)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid snowflake node %d", cfg.Snowflake.Node)
	}

	return &snowflakeGenerator{node: node}, nil
}

func (g *snowflakeGenerator) Next() int64 {
	return g.node.Generate().Int64()
}
