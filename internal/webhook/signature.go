// Package webhook 校验 n8n 等自动化系统的回调请求
package webhook

import (
	"crypto/subtle"
	"log"
)

const (
	SignatureHeader       = "X-N8N-Signature"
	LegacySignatureHeader = "X-Webhook-Secret"
)

type Config struct {
	Secret  string
	DevMode bool
}

// Verifier 共享密钥校验
//
// n8n 回调不签名请求体，只在请求头里带上共享密钥，所以 body 不参与比较
type Verifier struct {
	secret  []byte
	devMode bool
}

func NewVerifier(cfg Config) *Verifier {
	return &Verifier{secret: []byte(cfg.Secret), devMode: cfg.DevMode}
}

// Verify 校验请求头中的签名
//
//   - 未配置密钥：开发环境放行（打印警告），其他环境拒绝
//   - 配置了密钥但没带签名：拒绝
//   - 长度不同直接拒绝，长度相同时做恒定时间比较
func (v *Verifier) Verify(body []byte, signature string) bool {
	if len(v.secret) == 0 {
		if v.devMode {
			log.Println("[Webhook] 未配置 N8N_WEBHOOK_SECRET，开发环境跳过签名校验")
			return true
		}
		log.Println("[Webhook] 未配置 N8N_WEBHOOK_SECRET，拒绝回调")
		return false
	}

	if signature == "" {
		return false
	}

	sig := []byte(signature)
	if len(sig) != len(v.secret) {
		return false
	}
	return subtle.ConstantTimeCompare(sig, v.secret) == 1
}
