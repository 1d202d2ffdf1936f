package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mmynk/tontine/internal/auth"
)

func TestRun(t *testing.T) {
	t.Setenv("DB_PATH", filepath.Join(t.TempDir(), "ctl.db"))
	t.Setenv("JWT_SECRET", "ctl-secret")
	ctx := context.Background()

	t.Run("token", func(t *testing.T) {
		var out bytes.Buffer
		if err := run(ctx, []string{"token", "-user", "alice"}, &out); err != nil {
			t.Fatalf("token failed: %v", err)
		}
		claims, err := auth.NewJWTManager("ctl-secret", time.Hour).Validate(strings.TrimSpace(out.String()))
		if err != nil {
			t.Fatalf("issued token does not validate: %v", err)
		}
		if claims.UserID != "alice" {
			t.Errorf("expected alice, got %q", claims.UserID)
		}
	})

	t.Run("wallet", func(t *testing.T) {
		var out bytes.Buffer
		if err := run(ctx, []string{"wallet", "open", "-id", "wallet-alice", "-balance", "5000"}, &out); err != nil {
			t.Fatalf("wallet open failed: %v", err)
		}
		out.Reset()
		if err := run(ctx, []string{"wallet", "show", "-id", "wallet-alice"}, &out); err != nil {
			t.Fatalf("wallet show failed: %v", err)
		}
		if !strings.Contains(out.String(), "wallet-alice balance 5000") {
			t.Errorf("unexpected output %q", out.String())
		}
		if !strings.Contains(out.String(), "open:wallet-alice") {
			t.Errorf("expected the opening entry in %q", out.String())
		}
	})

	t.Run("usage", func(t *testing.T) {
		if err := run(ctx, []string{"groups"}, &bytes.Buffer{}); err != errUsage {
			t.Errorf("expected usage error, got %v", err)
		}
	})
}
