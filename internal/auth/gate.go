package auth

import (
	"context"
	"log"
	"net/http"
	"strings"

	"shortscript/internal/model"
)

// Provisioner 确保用户行存在，LedgerService 实现该接口
type Provisioner interface {
	EnsureUserExists(ctx context.Context, userID, email string) (*model.User, error)
}

// Gate 从请求中解析 bearer token，校验后返回对应的用户
type Gate struct {
	verifier TokenVerifier
	users    Provisioner
}

func NewGate(verifier TokenVerifier, users Provisioner) *Gate {
	return &Gate{verifier: verifier, users: users}
}

// BearerToken 解析 "Bearer <token>"，格式不对时返回 false
func BearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	if token == "" {
		return "", false
	}
	return token, true
}

// Authenticate 返回请求对应的用户
//
// 没有 token 或 token 校验失败时返回 (nil, nil)，由调用方转成 401；
// 只有存储层错误才会返回 error
func (g *Gate) Authenticate(r *http.Request) (*model.User, error) {
	token, ok := BearerToken(r.Header.Get("Authorization"))
	if !ok {
		return nil, nil
	}

	identity, err := g.verifier.Verify(r.Context(), token)
	if err != nil || identity == nil {
		log.Printf("[AuthGate] token 校验失败: %v", err)
		return nil, nil
	}

	return g.users.EnsureUserExists(r.Context(), identity.UserID, identity.Email)
}
