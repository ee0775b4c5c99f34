package auth

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrUnknownKey   = errors.New("unknown signing key")
)

// Identity 通过校验的调用方身份
type Identity struct {
	UserID string
	Email  string
}

// TokenVerifier 校验 bearer token
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// KeySource 提供 kid -> RSA 公钥
type KeySource interface {
	Keys(ctx context.Context) (map[string]*rsa.PublicKey, error)
}

// FirebaseVerifier 校验 Firebase ID token（RS256）
//
// 校验签名、aud == projectID、iss == https://securetoken.google.com/<projectID>、sub 非空
type FirebaseVerifier struct {
	projectID string
	keys      KeySource
}

func NewFirebaseVerifier(projectID string, keys KeySource) *FirebaseVerifier {
	return &FirebaseVerifier{projectID: projectID, keys: keys}
}

type firebaseClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

func (v *FirebaseVerifier) Verify(ctx context.Context, raw string) (*Identity, error) {
	if v.projectID == "" {
		return nil, fmt.Errorf("%w: firebase project id not configured", ErrInvalidToken)
	}

	keys, err := v.keys.Keys(ctx)
	if err != nil {
		return nil, err
	}

	claims := &firebaseClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		kid, _ := t.Header["kid"].(string)
		key, ok := keys[kid]
		if !ok {
			return nil, ErrUnknownKey
		}
		return key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithAudience(v.projectID),
		jwt.WithIssuer("https://securetoken.google.com/"+v.projectID),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(30*time.Second),
	)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: empty subject", ErrInvalidToken)
	}

	return &Identity{UserID: claims.Subject, Email: claims.Email}, nil
}

// ============================================================================
// Google 公钥
// ============================================================================

var maxAgePattern = regexp.MustCompile(`max-age=(\d+)`)

// certRetryBackoff 证书刷新失败后，旧证书继续使用的时长
const certRetryBackoff = time.Minute

// GoogleCertSource 从 Google 拉取 securetoken 的 x509 证书，按 Cache-Control 缓存
type GoogleCertSource struct {
	url    string
	client *http.Client

	mu        sync.RWMutex
	keys      map[string]*rsa.PublicKey
	expiresAt time.Time
	now       func() time.Time
}

func NewGoogleCertSource(url string, client *http.Client) *GoogleCertSource {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &GoogleCertSource{url: url, client: client, now: time.Now}
}

func (s *GoogleCertSource) Keys(ctx context.Context) (map[string]*rsa.PublicKey, error) {
	s.mu.RLock()
	if s.keys != nil && s.now().Before(s.expiresAt) {
		keys := s.keys
		s.mu.RUnlock()
		return keys, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	// 等锁期间可能已被其他请求刷新
	if s.keys != nil && s.now().Before(s.expiresAt) {
		return s.keys, nil
	}

	keys, ttl, err := s.fetch(ctx)
	if err != nil {
		if s.keys != nil {
			// 拉取失败时继续使用旧证书，退避一段时间再重试，避免每个请求都排队等待拉取
			log.Printf("[AuthGate] 刷新 Google 证书失败，继续使用旧证书: %v", err)
			s.expiresAt = s.now().Add(certRetryBackoff)
			return s.keys, nil
		}
		return nil, err
	}

	s.keys = keys
	s.expiresAt = s.now().Add(ttl)
	return keys, nil
}

func (s *GoogleCertSource) fetch(ctx context.Context) (map[string]*rsa.PublicKey, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, 0, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("拉取证书失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, 0, fmt.Errorf("拉取证书失败: status=%d", resp.StatusCode)
	}

	var certs map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&certs); err != nil {
		return nil, 0, fmt.Errorf("解析证书失败: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(certs))
	for kid, pem := range certs {
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(pem))
		if err != nil {
			return nil, 0, fmt.Errorf("解析证书 %s 失败: %w", kid, err)
		}
		keys[kid] = key
	}

	ttl := time.Hour
	if m := maxAgePattern.FindStringSubmatch(resp.Header.Get("Cache-Control")); m != nil {
		if seconds, err := strconv.Atoi(m[1]); err == nil && seconds > 0 {
			ttl = time.Duration(seconds) * time.Second
		}
	}

	return keys, ttl, nil
}

// StaticKeySource 固定公钥，用于测试和自建签发方
type StaticKeySource map[string]*rsa.PublicKey

func (s StaticKeySource) Keys(context.Context) (map[string]*rsa.PublicKey, error) {
	return s, nil
}
