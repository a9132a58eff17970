package exchange

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signedBody(t *testing.T, r *http.Request) bool {
	t.Helper()
	q := r.URL.Query()
	signature := q.Get("signature")
	q.Del("signature")
	// The signature covers the encoded query without the signature itself.
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write([]byte(q.Encode()))
	return signature == hex.EncodeToString(mac.Sum(nil))
}

func TestRecentDeposits(t *testing.T) {
	var gotPath string
	var gotKey string
	var gotStart string
	var validSig bool

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("X-API-KEY")
		gotStart = r.URL.Query().Get("startTime")
		validSig = signedBody(t, r)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"txId":"tx-1","amount":"100.50","asset":"USDT","network":"TRC20","status":1,"address":"addr","insertTime":1700000000000,"confirmations":3},
			{"txId":"tx-2","amount":"5.00","asset":"USDT","network":"TRC20","status":0,"address":"addr","insertTime":1700000001000,"confirmations":0}
		]`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, APIKey: "test-key", SecretKey: testSecret})
	events, err := c.RecentDeposits(context.Background(), 1699999999999)
	require.NoError(t, err)

	assert.Equal(t, "/v1/capital/deposits", gotPath)
	assert.Equal(t, "test-key", gotKey)
	assert.Equal(t, "1699999999999", gotStart)
	assert.True(t, validSig, "query signature did not verify")

	require.Len(t, events, 2)
	assert.Equal(t, "tx-1", events[0].TxID)
	assert.Equal(t, 100.50, events[0].Amount)
	assert.Equal(t, int64(1700000000000), events[0].InsertTime)
	assert.True(t, events[0].Settled(1))
	assert.False(t, events[1].Settled(1))
}

func TestRecentDepositsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, SecretKey: testSecret})
	_, err := c.RecentDeposits(context.Background(), 0)
	assert.Error(t, err)
}

func TestFindDeposit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"txId":"tx-1","amount":"42.00","status":1,"insertTime":1700000000000,"confirmations":2}]`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, SecretKey: testSecret, Lookback: time.Hour})

	ev, err := c.FindDeposit(context.Background(), "tx-1")
	require.NoError(t, err)
	require.NotNil(t, ev)
	assert.Equal(t, 42.00, ev.Amount)

	missing, err := c.FindDeposit(context.Background(), "tx-unknown")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSettledThreshold(t *testing.T) {
	ev := DepositEvent{Status: StatusSuccess, Confirmations: 1}
	assert.True(t, ev.Settled(1))
	assert.False(t, ev.Settled(2))

	pending := DepositEvent{Status: StatusPending, Confirmations: 10}
	assert.False(t, pending.Settled(1))
}
