package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cryptoKingdom88/memeCoinBackend/tradingService/models"
)

func sampleParams() *models.TradeParams {
	return &models.TradeParams{
		Mint:        "Mint111",
		AmountSol:   0.01,
		SlippageBps: 500,
		TokenType:   models.TokenTypeSOL,
		GasFeeStrategy: models.GasFeeStrategy{
			StrategyType:  models.GasStrategyGlobal,
			GlobalCULimit: 1100000,
			GlobalCUPrice: 180000,
		},
		RecentBlockhash: "Hash111",
	}
}

func TestRequestBodyFlattensParams(t *testing.T) {
	dex := models.PumpFunParams{
		BondingCurveAccount: "Curve111",
		TokenTotalSupply:    1_000_000_000_000_000,
		VirtualSolReserves:  30_000_000_000,
	}

	body, err := RequestBody(dex, sampleParams())
	require.NoError(t, err)

	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &fields))
	assert.Equal(t, "PumpFun", fields["dex_type"])
	assert.Equal(t, "Curve111", fields["bonding_curve_account"])
	assert.Equal(t, "Mint111", fields["mint"])
	assert.Equal(t, "Hash111", fields["recent_blockhash"])
	assert.Equal(t, "SOL", fields["token_type"])
	assert.NotContains(t, fields, "durable_nonce")

	gas, ok := fields["gas_fee_strategy"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "global", gas["strategy_type"])
	assert.Contains(t, gas, "global_buy_tip")

	// 1e15 must survive as an exact integer
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var generic map[string]interface{}
	require.NoError(t, dec.Decode(&generic))
	assert.Equal(t, json.Number("1000000000000000"), generic["token_total_supply"])

	_, err = RequestBody(nil, sampleParams())
	assert.Error(t, err)
}

func TestBuySuccess(t *testing.T) {
	var gotPath string
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"success":true,"signature":"Sig111","message":"ok"}`))
	}))
	defer srv.Close()

	resp, err := NewClient(srv.URL+"/", time.Second).Buy(context.Background(), models.PumpSwapParams{Pool: "Pool111"}, sampleParams())
	require.NoError(t, err)
	assert.True(t, resp.Confirmed())
	assert.Equal(t, "Sig111", resp.Signature)
	assert.Equal(t, "/api/buy", gotPath)
	assert.Equal(t, "PumpSwap", got["dex_type"])
	assert.Equal(t, "Pool111", got["pool"])
}

func TestSellCarriesTokenAmount(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/sell", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"success":true,"signature":"Sig222","message":"ok"}`))
	}))
	defer srv.Close()

	params := sampleParams()
	params.AmountSol = 0
	params.AmountTokens = 123456
	params.CloseOutputTokenAta = true

	resp, err := NewClient(srv.URL, time.Second).Sell(context.Background(), models.MeteoraDammV2Params{Pool: "P"}, params)
	require.NoError(t, err)
	assert.True(t, resp.Confirmed())
	assert.Equal(t, float64(123456), got["amount_tokens"])
	assert.Equal(t, true, got["close_output_token_ata"])
	assert.Equal(t, "MeteoraDammV2", got["dex_type"])
}

func TestTradeRejections(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr bool
		message string
	}{
		{"proxy reports failure", http.StatusOK, `{"success":false,"message":"slippage exceeded"}`, false, "slippage exceeded"},
		{"success without signature", http.StatusOK, `{"success":true,"message":"queued"}`, false, "queued"},
		{"error status with body", http.StatusInternalServerError, `{"success":true,"signature":"S","message":""}`, false, "proxy returned status 500"},
		{"error status without json", http.StatusBadGateway, `bad gateway`, true, ""},
		{"garbage on 200", http.StatusOK, `not json`, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			resp, err := NewClient(srv.URL, time.Second).Buy(context.Background(), models.PumpFunParams{}, sampleParams())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.False(t, resp.Confirmed())
			assert.Equal(t, tt.message, resp.Message)
		})
	}
}

func TestTradeTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, time.Second).Buy(context.Background(), models.PumpFunParams{}, sampleParams())
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`{"status":"ok","service":"trade-proxy"}`))
	}))
	defer srv.Close()

	health, err := NewClient(srv.URL, time.Second).Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "trade-proxy", health.Service)

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer down.Close()
	_, err = NewClient(down.URL, time.Second).Health(context.Background())
	assert.Error(t, err)
}
