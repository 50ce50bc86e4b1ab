// Package queue implements the "enqueue" server node over hibiken/asynq,
// grounded on the teacher's internal/nodes/workflow/task_queue_node.go.
package queue

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"

	"github.com/Narcis13/workscript-sub004/internal/node"
)

// Node enqueues a background task on a shared asynq.Client.
type Node struct {
	client *asynq.Client
}

func New(client *asynq.Client) *Node { return &Node{client: client} }

func (n *Node) Metadata() node.Metadata {
	return node.Metadata{
		ID:            "enqueue",
		Name:          "Enqueue",
		Version:       "1.0.0",
		Description:   "Enqueues a background task on the shared task queue.",
		ExpectedEdges: []string{"queued", "error"},
	}
}

func (n *Node) Execute(ctx *node.ExecutionContext, config map[string]any) (node.EdgeMap, error) {
	taskType, _ := config["taskType"].(string)
	payload, _ := config["payload"].(map[string]any)

	data, err := json.Marshal(payload)
	if err != nil {
		return node.One("error", map[string]any{"message": err.Error()}), nil
	}

	task := asynq.NewTask(taskType, data)

	opts := []asynq.Option{}
	if maxRetry, ok := config["maxRetry"].(float64); ok {
		opts = append(opts, asynq.MaxRetry(int(maxRetry)))
	}
	if queueName, ok := config["queue"].(string); ok && queueName != "" {
		opts = append(opts, asynq.Queue(queueName))
	}
	if delaySeconds, ok := config["delaySeconds"].(float64); ok && delaySeconds > 0 {
		opts = append(opts, asynq.ProcessIn(time.Duration(delaySeconds)*time.Second))
	}

	info, err := n.client.EnqueueContext(ctx.Ctx, task, opts...)
	if err != nil {
		return node.One("error", map[string]any{"message": err.Error()}), nil
	}
	return node.One("queued", map[string]any{"taskId": info.ID, "queue": info.Queue}), nil
}
