package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"studio/internal/domain"
)

func TestSignVerifyJWT(t *testing.T) {
	token, err := SignJWT("secret", TokenClaims{Sub: "user-1", Tier: "pro", Exp: time.Now().Add(time.Hour).Unix()})
	if err != nil {
		t.Fatalf("SignJWT error = %v", err)
	}
	claims, err := VerifyJWT("secret", token)
	if err != nil {
		t.Fatalf("VerifyJWT error = %v", err)
	}
	if claims.Sub != "user-1" || claims.Tier != "pro" {
		t.Fatalf("claims = %+v", claims)
	}

	if _, err := VerifyJWT("other", token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("wrong secret error = %v, want ErrInvalidToken", err)
	}
	expired, _ := SignJWT("secret", TokenClaims{Sub: "user-1", Exp: time.Now().Add(-time.Minute).Unix()})
	if _, err := VerifyJWT("secret", expired); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expired error = %v, want ErrTokenExpired", err)
	}
	if _, err := VerifyJWT("secret", "a.b"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("malformed error = %v, want ErrInvalidToken", err)
	}
}

func TestAuthJWTStoresUserAndTier(t *testing.T) {
	tests := []struct {
		name string
		tier string
		want domain.Tier
	}{
		{name: "business", tier: "business", want: domain.TierBusiness},
		{name: "unknown tier is free", tier: "gold", want: domain.TierFree},
		{name: "missing tier is free", tier: "", want: domain.TierFree},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var gotUser string
			var gotTier domain.Tier
			handler := AuthJWT("secret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotUser = UserIDFromContext(r.Context())
				gotTier = TierFromContext(r.Context())
			}))
			token, _ := SignJWT("secret", TokenClaims{Sub: "user-9", Tier: tc.tier})
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			if gotUser != "user-9" || gotTier != tc.want {
				t.Fatalf("user, tier = %q, %q, want user-9, %q", gotUser, gotTier, tc.want)
			}
		})
	}
}

func TestAuthJWTRejects(t *testing.T) {
	handler := AuthJWT("secret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler should not run")
	}))
	for _, header := range []string{"", "Basic abc", "Bearer ", "Bearer not.a.token"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%q: status = %d, want 401", header, rec.Code)
		}
		var body errorBody
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil || body.Error.Code != "unauthorized" {
			t.Fatalf("%q: body = %+v, err = %v", header, body, err)
		}
	}
}

func TestTierFromEmptyContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := TierFromContext(req.Context()); got != domain.TierFree {
		t.Fatalf("TierFromContext = %q, want free", got)
	}
}

func TestRequestIDAndLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	handler := RequestID(Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("abc"))
	})))

	req := httptest.NewRequest(http.MethodPost, "/v1/watermarks/extract", nil)
	req.Header.Set("X-Request-ID", "not-a-uuid")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	rid := rec.Header().Get("X-Request-ID")
	if rid == "" || rid == "not-a-uuid" {
		t.Fatalf("X-Request-ID = %q, want generated uuid", rid)
	}
	line := buf.String()
	for _, want := range []string{`"status":201`, `"bytes":3`, `"request_id":"` + rid + `"`} {
		if !strings.Contains(line, want) {
			t.Fatalf("log line %s missing %s", line, want)
		}
	}
}

func TestCORS(t *testing.T) {
	handler := CORS([]string{"https://app.example.com"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodOptions, "/v1/assets/download", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Expose-Headers"); !strings.Contains(got, "X-Provenance-Checksum") {
		t.Fatalf("expose headers = %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatalf("unexpected allow origin for unlisted origin")
	}
}
