// Package cache implements the "cache" server node over go-redis/v9,
// grounded on the teacher's internal/database/redis.go client wiring.
package cache

import (
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Narcis13/workscript-sub004/internal/node"
)

// Node performs get/set/delete operations against a shared redis.Client.
type Node struct {
	client *redis.Client
}

func New(client *redis.Client) *Node { return &Node{client: client} }

func (n *Node) Metadata() node.Metadata {
	return node.Metadata{
		ID:            "cache",
		Name:          "Cache",
		Version:       "1.0.0",
		Description:   "Reads or writes a key in the shared Redis cache.",
		ExpectedEdges: []string{"hit", "miss", "done", "error"},
		AIHints: node.AIHints{
			Purpose:   "Memoize expensive lookups across executions.",
			WhenToUse: "Before a costly node, to short-circuit on a cache hit.",
		},
	}
}

func (n *Node) Execute(ctx *node.ExecutionContext, config map[string]any) (node.EdgeMap, error) {
	op, _ := config["op"].(string)
	key, _ := config["key"].(string)

	switch op {
	case "get":
		val, err := n.client.Get(ctx.Ctx, key).Result()
		if err == redis.Nil {
			return node.One("miss", nil), nil
		}
		if err != nil {
			return node.OneErr("error", func() (any, error) { return nil, err }), nil
		}
		return node.One("hit", map[string]any{"value": val}), nil

	case "set":
		ttlSeconds, _ := config["ttlSeconds"].(float64)
		err := n.client.Set(ctx.Ctx, key, fmt.Sprintf("%v", config["value"]), time.Duration(ttlSeconds)*time.Second).Err()
		if err != nil {
			return node.OneErr("error", func() (any, error) { return nil, err }), nil
		}
		return node.One("done", nil), nil

	case "delete":
		err := n.client.Del(ctx.Ctx, key).Err()
		if err != nil {
			return node.OneErr("error", func() (any, error) { return nil, err }), nil
		}
		return node.One("done", nil), nil

	default:
		return node.One("error", map[string]any{"message": "unknown cache op: " + op}), nil
	}
}
