// Package storage implements the "s3" server node over
// aws-sdk-go-v2/service/s3, grounded on the teacher's
// internal/nodes/integrations/aws_node.go (the S3GetObject/S3PutObject
// branch of its operation switch), narrowed to the put/get/delete
// operations the workflow node contract needs.
package storage

import (
	"bytes"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/Narcis13/workscript-sub004/internal/node"
)

// Node performs object operations against a shared s3.Client.
type Node struct {
	client *s3.Client
}

func New(client *s3.Client) *Node { return &Node{client: client} }

func (n *Node) Metadata() node.Metadata {
	return node.Metadata{
		ID:            "s3",
		Name:          "S3 Object",
		Version:       "1.0.0",
		Description:   "Gets, puts, or deletes an object in S3-compatible object storage.",
		ExpectedEdges: []string{"done", "notFound", "error"},
	}
}

func (n *Node) Execute(ctx *node.ExecutionContext, config map[string]any) (node.EdgeMap, error) {
	op, _ := config["op"].(string)
	bucket, _ := config["bucket"].(string)
	key, _ := config["key"].(string)

	switch op {
	case "get":
		out, err := n.client.GetObject(ctx.Ctx, &s3.GetObjectInput{Bucket: &bucket, Key: &key})
		if err != nil {
			if isNotFound(err) {
				return node.One("notFound", nil), nil
			}
			return node.One("error", map[string]any{"message": err.Error()}), nil
		}
		defer out.Body.Close()
		body, err := io.ReadAll(out.Body)
		if err != nil {
			return node.One("error", map[string]any{"message": err.Error()}), nil
		}
		return node.One("done", map[string]any{"body": string(body)}), nil

	case "put":
		body, _ := config["body"].(string)
		_, err := n.client.PutObject(ctx.Ctx, &s3.PutObjectInput{
			Bucket: &bucket,
			Key:    &key,
			Body:   bytes.NewReader([]byte(body)),
		})
		if err != nil {
			return node.One("error", map[string]any{"message": err.Error()}), nil
		}
		return node.One("done", nil), nil

	case "delete":
		_, err := n.client.DeleteObject(ctx.Ctx, &s3.DeleteObjectInput{Bucket: &bucket, Key: &key})
		if err != nil {
			return node.One("error", map[string]any{"message": err.Error()}), nil
		}
		return node.One("done", nil), nil

	default:
		return node.One("error", map[string]any{"message": "unknown s3 op: " + op}), nil
	}
}

func isNotFound(err error) bool {
	return strings.Contains(err.Error(), "NoSuchKey") || strings.Contains(err.Error(), "NotFound")
}
