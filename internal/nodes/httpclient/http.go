// Package httpclient implements the "http" universal node. It stays on
// net/http deliberately: none of the example repos import a third-party
// HTTP client (only server-side frameworks like fiber), so there is
// nothing in the corpus to ground a replacement on — see DESIGN.md.
package httpclient

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Narcis13/workscript-sub004/internal/node"
)

// Node performs a single HTTP request.
type Node struct {
	client *http.Client
}

func New() *Node { return &Node{client: &http.Client{Timeout: 30 * time.Second}} }

func (n *Node) Metadata() node.Metadata {
	return node.Metadata{
		ID:            "http",
		Name:          "HTTP Request",
		Version:       "1.0.0",
		Description:   "Makes an HTTP request and routes on status class.",
		ExpectedEdges: []string{"success", "clientError", "serverError", "error"},
	}
}

func (n *Node) Execute(ctx *node.ExecutionContext, config map[string]any) (node.EdgeMap, error) {
	method, _ := config["method"].(string)
	if method == "" {
		method = http.MethodGet
	}
	url, _ := config["url"].(string)
	bodyStr, _ := config["body"].(string)

	req, err := http.NewRequestWithContext(ctx.Ctx, method, url, strings.NewReader(bodyStr))
	if err != nil {
		return node.One("error", map[string]any{"message": err.Error()}), nil
	}
	if headers, ok := config["headers"].(map[string]any); ok {
		for k, v := range headers {
			req.Header.Set(k, toString(v))
		}
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return node.One("error", map[string]any{"message": err.Error()}), nil
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return node.One("error", map[string]any{"message": err.Error()}), nil
	}

	data := map[string]any{"status": resp.StatusCode, "body": string(respBody)}
	switch {
	case resp.StatusCode >= 500:
		return node.One("serverError", data), nil
	case resp.StatusCode >= 400:
		return node.One("clientError", data), nil
	default:
		return node.One("success", data), nil
	}
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
