// Package database implements the "database" server node over GORM,
// grounded on the teacher's internal/nodes/database/gorm_node.go. It
// supports two queryType branches, select and exec, against a shared
// *gorm.DB; any other queryType is rejected.
package database

import (
	"github.com/Narcis13/workscript-sub004/internal/apperrors"
	"github.com/Narcis13/workscript-sub004/internal/node"
	"gorm.io/gorm"
)

// Node runs a query against a shared *gorm.DB connection.
type Node struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Node { return &Node{db: db} }

func (n *Node) Metadata() node.Metadata {
	return node.Metadata{
		ID:            "database",
		Name:          "Database",
		Version:       "1.0.0",
		Description:   "Runs a raw SQL query or a row-scan query against the configured database.",
		ExpectedEdges: []string{"rows", "done", "error"},
	}
}

func (n *Node) Execute(ctx *node.ExecutionContext, config map[string]any) (node.EdgeMap, error) {
	queryType, _ := config["queryType"].(string)
	query, _ := config["query"].(string)
	args, _ := config["args"].([]any)

	db := n.db.WithContext(ctx.Ctx)

	switch queryType {
	case "select":
		var rows []map[string]any
		if err := db.Raw(query, args...).Scan(&rows).Error; err != nil {
			return node.One("error", errData(err)), nil
		}
		return node.One("rows", map[string]any{"rows": rows}), nil

	case "exec":
		result := db.Exec(query, args...)
		if result.Error != nil {
			return node.One("error", errData(result.Error)), nil
		}
		return node.One("done", map[string]any{"rowsAffected": result.RowsAffected}), nil

	default:
		return nil, apperrors.NewValidation("database node: unsupported queryType " + queryType)
	}
}

func errData(err error) map[string]any {
	return map[string]any{"message": err.Error()}
}
