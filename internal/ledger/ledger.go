// Package ledger defines the distributed-ledger client surface the bot
// depends on: account creation, balance queries, and signed submissions.
package ledger

import (
	"context"
	"strconv"

	"github.com/shopspring/decimal"
)

// StatusSuccess is the receipt status marking a successful submission.
// Any other status is a failure and carries the ledger's raw status text.
const StatusSuccess = "SUCCESS"

// NativeDecimals is the minor-unit scale of the native asset (10^8).
const NativeDecimals = 8

// Operator is the identity that signs and pays for one submission. Every
// submission names its operator explicitly; there is no shared mutable
// operator state to swap between users.
type Operator struct {
	AccountID  string
	PrivateKey string
}

// AccountInfo describes a freshly created ledger account.
type AccountInfo struct {
	AccountID  string
	PublicKey  string
	PrivateKey string
}

// Receipt is the consolidated outcome of one submission.
type Receipt struct {
	Status        string `json:"status"`
	TransactionID string `json:"transactionId"`
}

// Succeeded reports whether the receipt carries the success status.
func (r *Receipt) Succeeded() bool {
	return r != nil && r.Status == StatusSuccess
}

// TransferRequest moves native-asset value between two accounts.
type TransferRequest struct {
	From   string
	To     string
	Amount decimal.Decimal
	Memo   string
}

// ParamKind enumerates the contract parameter encodings the bot uses.
type ParamKind string

const (
	ParamUint256      ParamKind = "uint256"
	ParamAddress      ParamKind = "address"
	ParamAddressArray ParamKind = "address[]"
)

// Param is one ABI parameter of a contract call.
type Param struct {
	Kind  ParamKind `json:"kind"`
	Value any       `json:"value"`
}

// Uint256 builds an unsigned integer parameter, carried as a decimal string.
func Uint256(v uint64) Param {
	return Param{Kind: ParamUint256, Value: strconv.FormatUint(v, 10)}
}

// Address builds a single EVM address parameter.
func Address(addr string) Param {
	return Param{Kind: ParamAddress, Value: addr}
}

// AddressArray builds an address-array parameter.
func AddressArray(addrs ...string) Param {
	return Param{Kind: ParamAddressArray, Value: addrs}
}

// ContractCall executes a function on a deployed contract.
type ContractCall struct {
	ContractID string
	Function   string
	Params     []Param
	Gas        uint64
	// PayableAmount is the native-asset value attached to the call, in
	// human units; zero for non-payable functions.
	PayableAmount decimal.Decimal
}

// Client is the read side of the ledger plus the entry point for signed
// submissions.
type Client interface {
	// CreateAccount generates a key pair and creates a new account funded
	// by the configured operator.
	CreateAccount(ctx context.Context) (*AccountInfo, error)
	// Balance returns the native-asset balance in human units.
	Balance(ctx context.Context, accountID string) (decimal.Decimal, error)
	// TokenBalance returns the raw base-unit balance of a token, zero when
	// the account holds none (including when it is not associated).
	TokenBalance(ctx context.Context, accountID, tokenID string) (int64, error)
	// Session opens a submission session acting as the given operator.
	Session(op Operator) Session
}

// Session submits signed transactions on behalf of one operator. Sessions
// are cheap; open one per logical operation and do not share them between
// users.
type Session interface {
	Transfer(ctx context.Context, req TransferRequest) (*Receipt, error)
	ExecuteContract(ctx context.Context, call ContractCall) (*Receipt, error)
	// AssociateToken opts the operator's account into holding the token.
	AssociateToken(ctx context.Context, tokenID string) (*Receipt, error)
}
