package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testProjectID = "demo-project"

func newKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}

func validClaims() jwt.MapClaims {
	now := time.Now()
	return jwt.MapClaims{
		"iss":   "https://securetoken.google.com/" + testProjectID,
		"aud":   testProjectID,
		"sub":   "uid-123",
		"email": "user@example.com",
		"iat":   now.Add(-time.Minute).Unix(),
		"exp":   now.Add(time.Hour).Unix(),
	}
}

func sign(t *testing.T, key *rsa.PrivateKey, kid string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kid
	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return signed
}

func TestFirebaseVerifier_Valid(t *testing.T) {
	key := newKey(t)
	verifier := NewFirebaseVerifier(testProjectID, StaticKeySource{"k1": &key.PublicKey})

	identity, err := verifier.Verify(context.Background(), sign(t, key, "k1", validClaims()))
	require.NoError(t, err)
	assert.Equal(t, "uid-123", identity.UserID)
	assert.Equal(t, "user@example.com", identity.Email)
}

func TestFirebaseVerifier_Rejects(t *testing.T) {
	key := newKey(t)
	other := newKey(t)
	verifier := NewFirebaseVerifier(testProjectID, StaticKeySource{"k1": &key.PublicKey})

	cases := []struct {
		name  string
		token func() string
	}{
		{"garbage", func() string { return "not-a-jwt" }},
		{"unknown kid", func() string { return sign(t, key, "k2", validClaims()) }},
		{"wrong key", func() string { return sign(t, other, "k1", validClaims()) }},
		{"wrong audience", func() string {
			c := validClaims()
			c["aud"] = "another-project"
			return sign(t, key, "k1", c)
		}},
		{"wrong issuer", func() string {
			c := validClaims()
			c["iss"] = "https://example.com"
			return sign(t, key, "k1", c)
		}},
		{"expired", func() string {
			c := validClaims()
			c["exp"] = time.Now().Add(-time.Hour).Unix()
			return sign(t, key, "k1", c)
		}},
		{"missing exp", func() string {
			c := validClaims()
			delete(c, "exp")
			return sign(t, key, "k1", c)
		}},
		{"empty subject", func() string {
			c := validClaims()
			c["sub"] = ""
			return sign(t, key, "k1", c)
		}},
		{"hmac algorithm", func() string {
			token := jwt.NewWithClaims(jwt.SigningMethodHS256, validClaims())
			token.Header["kid"] = "k1"
			signed, err := token.SignedString([]byte("secret"))
			require.NoError(t, err)
			return signed
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			identity, err := verifier.Verify(context.Background(), tc.token())
			assert.ErrorIs(t, err, ErrInvalidToken)
			assert.Nil(t, identity)
		})
	}
}

func TestFirebaseVerifier_NoProject(t *testing.T) {
	key := newKey(t)
	verifier := NewFirebaseVerifier("", StaticKeySource{"k1": &key.PublicKey})

	_, err := verifier.Verify(context.Background(), sign(t, key, "k1", validClaims()))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func publicKeyPEM(t *testing.T, key *rsa.PrivateKey) string {
	t.Helper()
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	return string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))
}

func TestGoogleCertSource_CachesByMaxAge(t *testing.T) {
	key := newKey(t)
	var hits int32
	var failing atomic.Bool

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if failing.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Cache-Control", "public, max-age=600, must-revalidate")
		_ = json.NewEncoder(w).Encode(map[string]string{"k1": publicKeyPEM(t, key)})
	}))
	defer server.Close()

	now := time.Now()
	source := NewGoogleCertSource(server.URL, server.Client())
	source.now = func() time.Time { return now }

	keys, err := source.Keys(context.Background())
	require.NoError(t, err)
	require.Contains(t, keys, "k1")
	assert.Zero(t, key.PublicKey.N.Cmp(keys["k1"].N))

	_, err = source.Keys(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))

	// 过期后重新拉取，失败时继续使用旧证书
	now = now.Add(11 * time.Minute)
	failing.Store(true)
	keys, err = source.Keys(context.Background())
	require.NoError(t, err)
	assert.Contains(t, keys, "k1")
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))

	// 退避期内不再请求源站
	for i := 0; i < 5; i++ {
		keys, err = source.Keys(context.Background())
		require.NoError(t, err)
		assert.Contains(t, keys, "k1")
	}
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))

	// 退避结束后再试一次，源站恢复后按 max-age 重新缓存
	now = now.Add(certRetryBackoff + time.Second)
	failing.Store(false)
	_, err = source.Keys(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))

	now = now.Add(5 * time.Minute)
	_, err = source.Keys(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestGoogleCertSource_FirstFetchFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := NewGoogleCertSource(server.URL, server.Client()).Keys(context.Background())
	assert.Error(t, err)
}

func TestFirebaseVerifier_WithCertSource(t *testing.T) {
	key := newKey(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"k1": publicKeyPEM(t, key)})
	}))
	defer server.Close()

	verifier := NewFirebaseVerifier(testProjectID, NewGoogleCertSource(server.URL, server.Client()))
	identity, err := verifier.Verify(context.Background(), sign(t, key, "k1", validClaims()))
	require.NoError(t, err)
	assert.Equal(t, "uid-123", identity.UserID)
}
