package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
)

// Config wires the HTTP client to the mirror node (reads) and the signing
// gateway (submissions).
type Config struct {
	MirrorBaseURL  string
	GatewayBaseURL string
	Operator       Operator
	Timeout        time.Duration
}

// httpClient implements Client against the mirror REST API and the signing
// gateway.
type httpClient struct {
	http     *http.Client
	mirror   string
	gateway  string
	operator Operator
}

// NewClient builds the HTTP-backed ledger client.
func NewClient(cfg Config) Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &httpClient{
		http:     &http.Client{Timeout: timeout},
		mirror:   cfg.MirrorBaseURL,
		gateway:  cfg.GatewayBaseURL,
		operator: cfg.Operator,
	}
}

type balancesResp struct {
	Balances []struct {
		Account string `json:"account"`
		Balance int64  `json:"balance"`
		Tokens  []struct {
			TokenID string `json:"token_id"`
			Balance int64  `json:"balance"`
		} `json:"tokens"`
	} `json:"balances"`
}

// Balance returns the native-asset balance in human units.
func (c *httpClient) Balance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	resp, err := c.balances(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}

	for _, b := range resp.Balances {
		if b.Account == accountID {
			return decimal.New(b.Balance, -NativeDecimals), nil
		}
	}

	return decimal.Zero, nil
}

// TokenBalance returns the raw base-unit token balance, zero when the
// account does not hold (or is not associated with) the token.
func (c *httpClient) TokenBalance(ctx context.Context, accountID, tokenID string) (int64, error) {
	resp, err := c.balances(ctx, accountID)
	if err != nil {
		return 0, err
	}

	for _, b := range resp.Balances {
		if b.Account != accountID {
			continue
		}
		for _, t := range b.Tokens {
			if t.TokenID == tokenID {
				return t.Balance, nil
			}
		}
	}

	return 0, nil
}

func (c *httpClient) balances(ctx context.Context, accountID string) (*balancesResp, error) {
	endpoint := fmt.Sprintf("%s/api/v1/balances?account.id=%s", c.mirror, url.QueryEscape(accountID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build balance request: %w", err)
	}

	var resp balancesResp
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}

type createAccountReq struct {
	Operator       Operator `json:"operator"`
	InitialBalance int64    `json:"initialBalance"`
}

type createAccountResp struct {
	Status     string `json:"status"`
	AccountID  string `json:"accountId"`
	PublicKey  string `json:"publicKey"`
	PrivateKey string `json:"privateKey"`
}

// CreateAccount generates a key pair on the gateway and creates an account
// funded by the configured operator.
func (c *httpClient) CreateAccount(ctx context.Context) (*AccountInfo, error) {
	var resp createAccountResp
	if err := c.post(ctx, "/v1/accounts", createAccountReq{Operator: c.operator}, &resp); err != nil {
		return nil, err
	}

	if resp.Status != StatusSuccess {
		return nil, fmt.Errorf("account creation failed with status %s", resp.Status)
	}

	return &AccountInfo{
		AccountID:  resp.AccountID,
		PublicKey:  resp.PublicKey,
		PrivateKey: resp.PrivateKey,
	}, nil
}

// Session opens a submission session acting as the given operator.
func (c *httpClient) Session(op Operator) Session {
	return &httpSession{client: c, operator: op}
}

type httpSession struct {
	client   *httpClient
	operator Operator
}

type transferReq struct {
	Operator Operator `json:"operator"`
	From     string   `json:"from"`
	To       string   `json:"to"`
	Amount   string   `json:"amount"`
	Memo     string   `json:"memo,omitempty"`
}

func (s *httpSession) Transfer(ctx context.Context, req TransferRequest) (*Receipt, error) {
	var receipt Receipt
	payload := transferReq{
		Operator: s.operator,
		From:     req.From,
		To:       req.To,
		Amount:   req.Amount.String(),
		Memo:     req.Memo,
	}

	if err := s.client.post(ctx, "/v1/transfers", payload, &receipt); err != nil {
		return nil, err
	}

	return &receipt, nil
}

type associateReq struct {
	Operator Operator `json:"operator"`
	TokenID  string   `json:"tokenId"`
}

func (s *httpSession) AssociateToken(ctx context.Context, tokenID string) (*Receipt, error) {
	var receipt Receipt
	payload := associateReq{Operator: s.operator, TokenID: tokenID}

	if err := s.client.post(ctx, "/v1/tokens/associate", payload, &receipt); err != nil {
		return nil, err
	}

	return &receipt, nil
}

type contractExecuteReq struct {
	Operator      Operator `json:"operator"`
	ContractID    string   `json:"contractId"`
	Function      string   `json:"function"`
	Params        []Param  `json:"params"`
	Gas           uint64   `json:"gas"`
	PayableAmount string   `json:"payableAmount,omitempty"`
}

func (s *httpSession) ExecuteContract(ctx context.Context, call ContractCall) (*Receipt, error) {
	payload := contractExecuteReq{
		Operator:   s.operator,
		ContractID: call.ContractID,
		Function:   call.Function,
		Params:     call.Params,
		Gas:        call.Gas,
	}
	if call.PayableAmount.IsPositive() {
		payload.PayableAmount = call.PayableAmount.String()
	}

	var receipt Receipt
	if err := s.client.post(ctx, "/v1/contracts/execute", payload, &receipt); err != nil {
		return nil, err
	}

	return &receipt, nil
}

func (c *httpClient) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode gateway request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.gateway+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

func (c *httpClient) do(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("ledger request %s: %w", req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ledger request %s: unexpected status %d", req.URL.Path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode ledger response %s: %w", req.URL.Path, err)
	}

	return nil
}
