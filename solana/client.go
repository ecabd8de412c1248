package solana

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/cryptoKingdom88/memeCoinBackend/tradingService/logging"
	"github.com/cryptoKingdom88/memeCoinBackend/tradingService/models"
)

// Address lookup table accounts carry a 56 byte header before the addresses
const lookupTableHeaderSize = 56

// Client wraps the Solana JSON-RPC calls the service needs
type Client struct {
	rpc    *rpc.Client
	logger *logging.Logger
}

// NewClient creates an RPC client for endpoint
func NewClient(endpoint string) *Client {
	return &Client{
		rpc: rpc.NewWithHeaders(endpoint, map[string]string{
			"Content-Type": "application/json",
		}),
		logger: logging.NewLogger("trading-service", "solana-rpc"),
	}
}

// LatestBlockhash returns the most recent finalized blockhash
func (c *Client) LatestBlockhash(ctx context.Context) (string, error) {
	out, err := c.rpc.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return "", fmt.Errorf("getLatestBlockhash: %w", err)
	}
	if out == nil || out.Value == nil {
		return "", errors.New("getLatestBlockhash: empty result")
	}
	return out.Value.Blockhash.String(), nil
}

// AccountData returns the raw account bytes, or nil when the account does not exist
func (c *Client) AccountData(ctx context.Context, pubkey string) ([]byte, error) {
	key, err := solana.PublicKeyFromBase58(pubkey)
	if err != nil {
		return nil, fmt.Errorf("invalid account %q: %w", pubkey, err)
	}

	out, err := c.rpc.GetAccountInfo(ctx, key)
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("getAccountInfo %s: %w", pubkey, err)
	}
	if out == nil || out.Value == nil || out.Value.Data == nil {
		return nil, nil
	}
	return out.Value.Data.GetBinary(), nil
}

// parsedTokenAccount is the jsonParsed shape of an SPL token account
type parsedTokenAccount struct {
	Parsed struct {
		Info struct {
			Mint        string `json:"mint"`
			TokenAmount struct {
				Amount string `json:"amount"`
			} `json:"tokenAmount"`
		} `json:"info"`
	} `json:"parsed"`
}

// TokenBalances returns raw token balances of owner keyed by mint. Accounts
// with unparseable data are skipped.
func (c *Client) TokenBalances(ctx context.Context, owner string) (map[string]int64, error) {
	ownerKey, err := solana.PublicKeyFromBase58(owner)
	if err != nil {
		return nil, fmt.Errorf("invalid owner %q: %w", owner, err)
	}

	out, err := c.rpc.GetTokenAccountsByOwner(ctx, ownerKey,
		&rpc.GetTokenAccountsConfig{ProgramId: solana.TokenProgramID.ToPointer()},
		&rpc.GetTokenAccountsOpts{Encoding: solana.EncodingJSONParsed},
	)
	if err != nil {
		return nil, fmt.Errorf("getTokenAccountsByOwner: %w", err)
	}

	balances := make(map[string]int64)
	if out == nil {
		return balances, nil
	}
	for _, keyed := range out.Value {
		if keyed == nil || keyed.Account.Data == nil {
			continue
		}
		var parsed parsedTokenAccount
		if err := json.Unmarshal(keyed.Account.Data.GetRawJSON(), &parsed); err != nil {
			c.logger.Debug("Skipping unparsed token account", map[string]interface{}{
				"account": keyed.Pubkey.String(),
				"error":   err.Error(),
			})
			continue
		}
		info := parsed.Parsed.Info
		amount, err := strconv.ParseInt(info.TokenAmount.Amount, 10, 64)
		if err != nil || info.Mint == "" {
			continue
		}
		balances[info.Mint] += amount
	}
	return balances, nil
}

// LookupTable reads an address lookup table account
func (c *Client) LookupTable(ctx context.Context, pubkey string) (*models.LookupTableAccount, error) {
	data, err := c.AccountData(ctx, pubkey)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, fmt.Errorf("lookup table %s not found", pubkey)
	}
	return decodeLookupTable(pubkey, data)
}

func decodeLookupTable(key string, data []byte) (*models.LookupTableAccount, error) {
	if len(data) < lookupTableHeaderSize || (len(data)-lookupTableHeaderSize)%solana.PublicKeyLength != 0 {
		return nil, fmt.Errorf("lookup table %s: malformed account data (%d bytes)", key, len(data))
	}

	body := data[lookupTableHeaderSize:]
	addresses := make([]string, 0, len(body)/solana.PublicKeyLength)
	for off := 0; off < len(body); off += solana.PublicKeyLength {
		addresses = append(addresses, solana.PublicKeyFromBytes(body[off:off+solana.PublicKeyLength]).String())
	}
	return &models.LookupTableAccount{Key: key, Addresses: addresses}, nil
}
