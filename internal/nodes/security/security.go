// Package security implements the "jwt" and "hash" universal nodes,
// grounded on the teacher's internal/auth/service.go token issuance and
// password hashing.
package security

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/Narcis13/workscript-sub004/internal/node"
)

// JWTNode signs or verifies a JWT using a shared HMAC secret.
type JWTNode struct {
	secret []byte
}

func NewJWTNode(secret string) *JWTNode { return &JWTNode{secret: []byte(secret)} }

func (n *JWTNode) Metadata() node.Metadata {
	return node.Metadata{
		ID:            "jwt",
		Name:          "JWT",
		Version:       "1.0.0",
		Description:   "Signs a claims map into a JWT, or verifies a token and extracts its claims.",
		ExpectedEdges: []string{"signed", "valid", "invalid"},
	}
}

func (n *JWTNode) Execute(ctx *node.ExecutionContext, config map[string]any) (node.EdgeMap, error) {
	op, _ := config["op"].(string)

	switch op {
	case "sign":
		claimsIn, _ := config["claims"].(map[string]any)
		claims := jwt.MapClaims{}
		for k, v := range claimsIn {
			claims[k] = v
		}
		if _, ok := claims["exp"]; !ok {
			ttl, _ := config["ttlSeconds"].(float64)
			if ttl == 0 {
				ttl = 3600
			}
			claims["exp"] = time.Now().Add(time.Duration(ttl) * time.Second).Unix()
		}
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		signed, err := token.SignedString(n.secret)
		if err != nil {
			return nil, err
		}
		return node.One("signed", map[string]any{"token": signed}), nil

	case "verify":
		tokenString, _ := config["token"].(string)
		parsed, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return n.secret, nil
		})
		if err != nil || !parsed.Valid {
			return node.One("invalid", map[string]any{}), nil
		}
		claims, _ := parsed.Claims.(jwt.MapClaims)
		return node.One("valid", map[string]any{"claims": map[string]any(claims)}), nil

	default:
		return nil, fmt.Errorf("jwt node: unsupported op %q", op)
	}
}

// HashNode hashes or compares a password with bcrypt.
type HashNode struct{}

func (HashNode) Metadata() node.Metadata {
	return node.Metadata{
		ID:            "hash",
		Name:          "Hash",
		Version:       "1.0.0",
		Description:   "Hashes a plaintext value with bcrypt, or compares one against an existing hash.",
		ExpectedEdges: []string{"hashed", "match", "mismatch"},
	}
}

func (HashNode) Execute(ctx *node.ExecutionContext, config map[string]any) (node.EdgeMap, error) {
	op, _ := config["op"].(string)

	switch op {
	case "hash":
		plain, _ := config["value"].(string)
		hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		return node.One("hashed", map[string]any{"hash": string(hashed)}), nil

	case "compare":
		plain, _ := config["value"].(string)
		hash, _ := config["hash"].(string)
		if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)); err != nil {
			return node.One("mismatch", nil), nil
		}
		return node.One("match", nil), nil

	default:
		return nil, fmt.Errorf("hash node: unsupported op %q", op)
	}
}
