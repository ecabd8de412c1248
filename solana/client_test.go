package solana

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cryptoKingdom88/memeCoinBackend/tradingService/models"
)

// rpcServer answers JSON-RPC calls with canned results keyed by method
func rpcServer(t *testing.T, results map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     json.RawMessage `json:"id"`
			Method string          `json:"method"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		result, ok := results[req.Method]
		w.Header().Set("Content-Type", "application/json")
		if !ok {
			fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%s,"error":{"code":-32601,"message":"method not found"}}`, req.ID)
			return
		}
		fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%s,"result":%s}`, req.ID, result)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func keyFromByte(b byte) solana.PublicKey {
	raw := make([]byte, solana.PublicKeyLength)
	for i := range raw {
		raw[i] = b
	}
	return solana.PublicKeyFromBytes(raw)
}

func accountInfoResult(data []byte) string {
	return fmt.Sprintf(`{"context":{"slot":1},"value":{"data":["%s","base64"],"executable":false,"lamports":1000,"owner":"11111111111111111111111111111111","rentEpoch":0}}`,
		base64.StdEncoding.EncodeToString(data))
}

func TestLatestBlockhash(t *testing.T) {
	hash := keyFromByte(9).String()
	srv := rpcServer(t, map[string]string{
		"getLatestBlockhash": fmt.Sprintf(`{"context":{"slot":1},"value":{"blockhash":"%s","lastValidBlockHeight":100}}`, hash),
	})

	got, err := NewClient(srv.URL).LatestBlockhash(context.Background())
	require.NoError(t, err)
	assert.Equal(t, hash, got)
}

func TestAccountData(t *testing.T) {
	data := []byte{1, 2, 3, 4}
	srv := rpcServer(t, map[string]string{"getAccountInfo": accountInfoResult(data)})

	got, err := NewClient(srv.URL).AccountData(context.Background(), keyFromByte(1).String())
	require.NoError(t, err)
	assert.Equal(t, data, got)

	_, err = NewClient(srv.URL).AccountData(context.Background(), "not-base58!")
	assert.Error(t, err)
}

func TestAccountDataMissing(t *testing.T) {
	srv := rpcServer(t, map[string]string{
		"getAccountInfo": `{"context":{"slot":1},"value":null}`,
	})

	got, err := NewClient(srv.URL).AccountData(context.Background(), keyFromByte(1).String())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestTokenBalances(t *testing.T) {
	mintA := keyFromByte(2).String()
	mintB := keyFromByte(3).String()
	account := func(pubkey solana.PublicKey, mint, amount string) string {
		return fmt.Sprintf(`{"pubkey":"%s","account":{"data":{"program":"spl-token","parsed":{"info":{"mint":"%s","owner":"%s","tokenAmount":{"amount":"%s","decimals":6,"uiAmount":1.0,"uiAmountString":"1"}},"type":"account"},"space":165},"executable":false,"lamports":2039280,"owner":"%s","rentEpoch":0}}`,
			pubkey, mint, keyFromByte(1), amount, solana.TokenProgramID)
	}
	srv := rpcServer(t, map[string]string{
		"getTokenAccountsByOwner": fmt.Sprintf(`{"context":{"slot":1},"value":[%s,%s,%s]}`,
			account(keyFromByte(10), mintA, "1500000"),
			account(keyFromByte(11), mintB, "0"),
			account(keyFromByte(12), mintA, "not-a-number"),
		),
	})

	balances, err := NewClient(srv.URL).TokenBalances(context.Background(), keyFromByte(1).String())
	require.NoError(t, err)
	assert.Equal(t, int64(1_500_000), balances[mintA])
	assert.Equal(t, int64(0), balances[mintB])
}

func TestTokenBalancesRPCError(t *testing.T) {
	srv := rpcServer(t, map[string]string{})
	_, err := NewClient(srv.URL).TokenBalances(context.Background(), keyFromByte(1).String())
	assert.Error(t, err)
}

func TestLookupTable(t *testing.T) {
	data := make([]byte, lookupTableHeaderSize)
	addrA, addrB := keyFromByte(4), keyFromByte(5)
	data = append(data, addrA.Bytes()...)
	data = append(data, addrB.Bytes()...)
	tableKey := keyFromByte(6).String()

	srv := rpcServer(t, map[string]string{"getAccountInfo": accountInfoResult(data)})
	table, err := NewClient(srv.URL).LookupTable(context.Background(), tableKey)
	require.NoError(t, err)
	assert.Equal(t, tableKey, table.Key)
	assert.Equal(t, []string{addrA.String(), addrB.String()}, table.Addresses)

	_, err = decodeLookupTable(tableKey, data[:lookupTableHeaderSize+10])
	assert.Error(t, err)
}

type staticLoader struct {
	table *models.LookupTableAccount
	err   error
	asked []string
}

func (s *staticLoader) LookupTable(_ context.Context, pubkey string) (*models.LookupTableAccount, error) {
	s.asked = append(s.asked, pubkey)
	return s.table, s.err
}

func TestLookupTableProvider(t *testing.T) {
	p := NewLookupTableProvider()
	require.NoError(t, p.Initialize(context.Background(), &staticLoader{}, nil))
	assert.Nil(t, p.LookupTable())

	loader := &staticLoader{table: &models.LookupTableAccount{Key: "K", Addresses: []string{"A"}}}
	require.NoError(t, p.Initialize(context.Background(), loader, []string{"first", "second"}))
	assert.Equal(t, []string{"first"}, loader.asked)
	assert.Equal(t, "K", p.LookupTable().Key)

	failing := NewLookupTableProvider()
	assert.Error(t, failing.Initialize(context.Background(), &staticLoader{err: errors.New("rpc")}, []string{"x"}))
	assert.Nil(t, failing.LookupTable())
}

type memoryBlockhashStore struct {
	hash string
	err  error
}

func (m *memoryBlockhashStore) SetRecentBlockhash(_ context.Context, h string) error {
	m.hash = h
	return m.err
}

func (m *memoryBlockhashStore) GetRecentBlockhash(context.Context) (string, error) {
	return m.hash, m.err
}

type countingFetcher struct {
	hash  string
	calls int
}

func (c *countingFetcher) LatestBlockhash(context.Context) (string, error) {
	c.calls++
	return c.hash, nil
}

func TestBlockhashProvider(t *testing.T) {
	store := &memoryBlockhashStore{}
	fetcher := &countingFetcher{hash: "Fresh"}
	p := NewBlockhashProvider(store, fetcher)

	hash, err := p.RecentBlockhash(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Fresh", hash)
	assert.Equal(t, 1, fetcher.calls, "empty cache falls back to RPC")

	_, err = p.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Fresh", store.hash)

	fetcher.hash = "Newer"
	hash, err = p.RecentBlockhash(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Fresh", hash, "cached value wins")
	assert.Equal(t, 2, fetcher.calls)

	store.err = errors.New("connection refused")
	hash, err = p.RecentBlockhash(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Newer", hash)
}
