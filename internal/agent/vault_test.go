package agent

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newVaultServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *VaultClient) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv, NewVaultClient(srv.URL, "main")
}

func TestVaultFundAccount(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	_, client := newVaultServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]string{"ok": "tx-123"})
	})

	txRef, err := client.FundAccount(context.Background(), big.NewInt(70_000000), "sub", "0xowner")
	if err != nil {
		t.Fatalf("fund: %v", err)
	}
	if txRef != "tx-123" {
		t.Fatalf("txRef = %q, want tx-123", txRef)
	}
	if gotPath != "/vaults/main/fund" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotBody["amount"] != "70000000" {
		t.Fatalf("amount = %v, want string 70000000", gotBody["amount"])
	}
}

func TestVaultErrorPayloadSurfacesVerbatim(t *testing.T) {
	_, client := newVaultServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"err": "insufficient margin"})
	})

	_, err := client.WithdrawFromAccount(context.Background(), big.NewInt(1), "0xowner")
	if err == nil || err.Error() != "insufficient margin" {
		t.Fatalf("err = %v, want verbatim insufficient margin", err)
	}
}

func TestVaultUserMarginBalance(t *testing.T) {
	_, client := newVaultServer(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/margin/0xowner") {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"balance": "42000000"})
	})

	bal, err := client.UserMarginBalance(context.Background(), "0xowner")
	if err != nil {
		t.Fatalf("margin: %v", err)
	}
	if bal.Cmp(big.NewInt(42_000000)) != 0 {
		t.Fatalf("balance = %s, want 42000000", bal)
	}
}

func TestVaultUserStakes(t *testing.T) {
	_, client := newVaultServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":3,"amount":"100000000","span":86400,"created_at":1700000000,"accrued_fees":"250"}]`))
	})

	stakes, err := client.GetUserStakes(context.Background(), "0xowner")
	if err != nil {
		t.Fatalf("stakes: %v", err)
	}
	if len(stakes) != 1 {
		t.Fatalf("stakes = %d, want 1", len(stakes))
	}
	s := stakes[0]
	if s.ID != 3 || s.SpanSeconds != 86400 {
		t.Fatalf("stake = %+v", s)
	}
	if s.Amount.Cmp(big.NewInt(100000000)) != 0 || s.AccruedFees.Cmp(big.NewInt(250)) != 0 {
		t.Fatalf("amounts = %s / %s", s.Amount, s.AccruedFees)
	}
}

func TestParseScaledEmptyIsZero(t *testing.T) {
	v, err := parseScaled("")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if v.Sign() != 0 {
		t.Fatalf("v = %s, want 0", v)
	}
	if _, err := parseScaled("12.5"); err == nil {
		t.Fatal("expected error for non-integer amount")
	}
}
