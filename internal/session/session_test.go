package session

import (
	"context"
	"errors"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"

	"github.com/fairyhunter13/product-catalog-editor/internal/catalog"
	"github.com/fairyhunter13/product-catalog-editor/internal/catalog/catalogtest"
	"github.com/fairyhunter13/product-catalog-editor/internal/model"
)

func signed(t *testing.T, claims gojwt.MapClaims) catalog.Credential {
	t.Helper()
	s, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return catalog.Credential(s)
}

func TestParseClaims(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	c, ok := ParseClaims(string(signed(t, gojwt.MapClaims{"sub": "op-1", "exp": exp.Unix()})))
	if !ok || c.Subject != "op-1" || !c.ExpiresAt.Equal(exp) {
		t.Fatalf("unexpected claims: %+v ok=%v", c, ok)
	}
	if _, ok := ParseClaims("opaque-token"); ok {
		t.Fatalf("opaque token parsed as JWT")
	}
}

func TestBearerToken(t *testing.T) {
	cred, err := BearerToken("Bearer abc")
	if err != nil || cred != "abc" {
		t.Fatalf("unexpected: %q %v", cred, err)
	}
	for _, h := range []string{"", "Bearer ", "Basic abc", "abc"} {
		if _, err := BearerToken(h); !errors.Is(err, ErrNoCredential) {
			t.Fatalf("expected ErrNoCredential for %q", h)
		}
	}
}

func TestStoreOpenAndLoad(t *testing.T) {
	svc := catalogtest.New(model.Product{ID: "1", Name: "Mouse", Price: "25", Stock: 1, Category: "c"})
	st := NewStore(svc, Options{IdleTimeout: time.Minute})
	sess, err := st.Open(signed(t, gojwt.MapClaims{"sub": "op-1"}))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if sess.ID == "" || sess.Subject != "op-1" || sess.Editor == nil || sess.Notices == nil {
		t.Fatalf("incomplete session: %+v", sess)
	}
	if err := sess.Editor.Load(context.Background(), false); err != nil {
		t.Fatalf("load: %v", err)
	}
	got, ok := st.Get(sess.ID)
	if !ok || got != sess || len(got.Editor.Rows()) != 1 {
		t.Fatalf("session not retrievable")
	}
	if !st.Close(sess.ID) || st.Close(sess.ID) {
		t.Fatalf("close should succeed exactly once")
	}
	if _, ok := st.Get(sess.ID); ok {
		t.Fatalf("closed session still retrievable")
	}
}

func TestStoreRejectsMissingAndExpiredTokens(t *testing.T) {
	st := NewStore(catalogtest.New(), Options{})
	if _, err := st.Open(""); !errors.Is(err, ErrNoCredential) {
		t.Fatalf("expected ErrNoCredential, got %v", err)
	}
	old := signed(t, gojwt.MapClaims{"exp": time.Now().Add(-time.Minute).Unix()})
	if _, err := st.Open(old); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
	if st.Len() != 0 {
		t.Fatalf("rejected tokens must not create sessions")
	}
}

func TestSessionsExpire(t *testing.T) {
	now := time.Now()
	st := NewStore(catalogtest.New(), Options{IdleTimeout: 10 * time.Minute})
	st.now = func() time.Time { return now }

	idle, _ := st.Open("opaque")
	short, _ := st.Open(signed(t, gojwt.MapClaims{"exp": now.Add(time.Minute).Unix()}))
	if st.Len() != 2 {
		t.Fatalf("expected 2 sessions")
	}

	now = now.Add(2 * time.Minute)
	if _, ok := st.Get(short.ID); ok {
		t.Fatalf("token-expired session still served")
	}
	if _, ok := st.Get(idle.ID); !ok {
		t.Fatalf("idle session expired too early")
	}

	now = now.Add(11 * time.Minute)
	if n := st.Sweep(); n != 1 || st.Len() != 0 {
		t.Fatalf("expected idle session swept, removed=%d len=%d", n, st.Len())
	}
}

func TestStoreSweeperStops(t *testing.T) {
	st := NewStore(catalogtest.New(), Options{IdleTimeout: time.Nanosecond})
	_, _ = st.Open("opaque")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	st.Start(ctx, 10*time.Millisecond)
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && st.Len() > 0 {
		time.Sleep(10 * time.Millisecond)
	}
	if st.Len() != 0 {
		t.Fatalf("sweeper did not remove idle session")
	}
}
