package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	telebot "gopkg.in/telebot.v3"

	"github.com/stratuswap/stratus-bot/internal/bot/keyboard"
	"github.com/stratuswap/stratus-bot/internal/domain"
	apperrors "github.com/stratuswap/stratus-bot/internal/errors"
	"github.com/stratuswap/stratus-bot/internal/flow"
	"github.com/stratuswap/stratus-bot/internal/ledger"
	"github.com/stratuswap/stratus-bot/internal/wallet"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeContext implements the small slice of telebot.Context the text-step
// handlers touch. Unused methods panic through the embedded nil interface.
type fakeContext struct {
	telebot.Context
	sender *telebot.User
	text   string
	sent   []string
}

func (f *fakeContext) Sender() *telebot.User { return f.sender }

func (f *fakeContext) Text() string { return f.text }

func (f *fakeContext) Send(what interface{}, _ ...interface{}) error {
	f.sent = append(f.sent, fmt.Sprint(what))
	return nil
}

func newFakeContext(userID int64, text string) *fakeContext {
	return &fakeContext{sender: &telebot.User{ID: userID}, text: text}
}

type fakeMachine struct {
	session      *flow.Session
	beginCalls   int
	advanceCalls int
	clearCalls   int
}

func (m *fakeMachine) Session(_ context.Context, _ int64) (*flow.Session, error) {
	if m.session == nil {
		return nil, flow.ErrSessionNotFound
	}
	return m.session, nil
}

func (m *fakeMachine) Begin(_ context.Context, userID int64, kind flow.Kind) (*flow.Session, error) {
	m.beginCalls++
	m.session = &flow.Session{UserID: userID, Kind: kind, Step: flow.InitialStep(kind), Fields: map[string]string{}}
	return m.session, nil
}

func (m *fakeMachine) Advance(_ context.Context, _ int64, next flow.Step, fields map[string]string) (*flow.Session, error) {
	if m.session == nil {
		return nil, flow.ErrSessionNotFound
	}
	m.advanceCalls++
	m.session.Step = next
	for k, v := range fields {
		m.session.Fields[k] = v
	}
	return m.session, nil
}

func (m *fakeMachine) Refine(_ context.Context, _ int64, kind flow.Kind, next flow.Step) (*flow.Session, error) {
	if m.session == nil {
		return nil, flow.ErrSessionNotFound
	}
	m.session.Kind = kind
	m.session.Step = next
	return m.session, nil
}

func (m *fakeMachine) Clear(_ context.Context, _ int64) error {
	m.clearCalls++
	if m.session == nil {
		return flow.ErrSessionNotFound
	}
	m.session = nil
	return nil
}

type fakeLedger struct {
	balance      decimal.Decimal
	tokenBalance int64
	balanceCalls int
}

func (f *fakeLedger) CreateAccount(_ context.Context) (*ledger.AccountInfo, error) {
	return nil, fmt.Errorf("not supported in this test")
}

func (f *fakeLedger) Balance(_ context.Context, _ string) (decimal.Decimal, error) {
	f.balanceCalls++
	return f.balance, nil
}

func (f *fakeLedger) TokenBalance(_ context.Context, _, _ string) (int64, error) {
	return f.tokenBalance, nil
}

func (f *fakeLedger) Session(_ ledger.Operator) ledger.Session { return nil }

type memRepository struct {
	wallets map[int64]*domain.UserWallet
}

func (r *memRepository) Find(_ context.Context, userID int64) (*domain.UserWallet, error) {
	w, ok := r.wallets[userID]
	if !ok {
		return nil, wallet.ErrNotFound
	}
	clone := *w
	return &clone, nil
}

func (r *memRepository) Save(_ context.Context, w *domain.UserWallet) error {
	r.wallets[w.UserID] = w
	return nil
}

func activatedWallets(t *testing.T, userID int64) *wallet.Service {
	t.Helper()

	repo := &memRepository{wallets: map[int64]*domain.UserWallet{
		userID: {UserID: userID, AccountID: "0.0.7777", KeySuffix: "ab"},
	}}
	return wallet.NewService(repo, testLogger())
}

func TestWithdrawDestinationEndsFlowOnBadAccountID(t *testing.T) {
	userID := int64(42)
	machine := &fakeMachine{session: &flow.Session{
		UserID: userID, Kind: flow.KindWithdraw, Step: flow.StepAwaitingDestination, Fields: map[string]string{},
	}}
	kb := keyboard.NewBuilder(testLogger())

	handler := NewWithdrawDestinationHandler(machine, kb, testLogger())
	c := newFakeContext(userID, "0.0.abc")

	require.NoError(t, handler(c))
	assert.Equal(t, 1, machine.clearCalls)
	assert.Nil(t, machine.session, "session must not survive malformed input")
	assert.Zero(t, machine.advanceCalls)
	require.Len(t, c.sent, 1)
	assert.Contains(t, c.sent[0], "Withdrawal cancelled")
}

func TestWithdrawAmountEndsFlowOnBadAmount(t *testing.T) {
	userID := int64(42)
	machine := &fakeMachine{session: &flow.Session{
		UserID: userID, Kind: flow.KindWithdraw, Step: flow.StepAwaitingAmount,
		Fields: map[string]string{flow.FieldDestination: "0.0.1234"},
	}}
	kb := keyboard.NewBuilder(testLogger())

	handler := NewWithdrawAmountHandler(machine, activatedWallets(t, userID), &fakeLedger{}, kb, testLogger())
	c := newFakeContext(userID, "lots")

	require.NoError(t, handler(c))
	assert.Equal(t, 1, machine.clearCalls)
	assert.Nil(t, machine.session)
	require.Len(t, c.sent, 1)
	assert.Contains(t, c.sent[0], "Invalid amount")
	assert.Contains(t, c.sent[0], "Withdrawal cancelled")
}

func TestWithdrawStartRejectsBalanceBelowFloor(t *testing.T) {
	userID := int64(42)
	machine := &fakeMachine{}
	client := &fakeLedger{balance: decimal.RequireFromString("0.05")}
	kb := keyboard.NewBuilder(testLogger())

	handler := NewWithdrawStartHandler(machine, activatedWallets(t, userID), client, kb, testLogger())
	c := newFakeContext(userID, "/withdraw")

	err := handler(c)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "E110", appErr.Code)

	assert.Equal(t, 1, client.balanceCalls)
	assert.Zero(t, machine.beginCalls, "no flow may be created below the balance floor")
	assert.Empty(t, c.sent, "the destination prompt must not be sent")
}

func TestBuyStartRejectsBalanceBelowFloor(t *testing.T) {
	userID := int64(42)
	machine := &fakeMachine{}
	client := &fakeLedger{balance: decimal.RequireFromString("0.05")}
	kb := keyboard.NewBuilder(testLogger())

	handler := NewBuyStartHandler(machine, activatedWallets(t, userID), client, kb, testLogger())
	c := newFakeContext(userID, "/buy")

	err := handler(c)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "E110", appErr.Code)
	assert.Zero(t, machine.beginCalls)
	assert.Empty(t, c.sent)
}

func TestBuyTokenEndsFlowOnBadTokenID(t *testing.T) {
	userID := int64(42)
	machine := &fakeMachine{session: &flow.Session{
		UserID: userID, Kind: flow.KindBuy, Step: flow.StepAwaitingToken, Fields: map[string]string{},
	}}
	kb := keyboard.NewBuilder(testLogger())

	handler := NewBuyTokenHandler(machine, nil, kb, testLogger())
	c := newFakeContext(userID, "0.0.abc")

	require.NoError(t, handler(c))
	assert.Equal(t, 1, machine.clearCalls)
	assert.Nil(t, machine.session)
	require.Len(t, c.sent, 1)
	assert.Contains(t, c.sent[0], "Purchase cancelled")
}

func TestSellTokenEndsFlowOnBadTokenID(t *testing.T) {
	userID := int64(42)
	machine := &fakeMachine{session: &flow.Session{
		UserID: userID, Kind: flow.KindSell, Step: flow.StepAwaitingToken, Fields: map[string]string{},
	}}
	kb := keyboard.NewBuilder(testLogger())

	handler := NewSellTokenHandler(machine, activatedWallets(t, userID), &fakeLedger{}, nil, kb, testLogger())
	c := newFakeContext(userID, "0.0.abc")

	require.NoError(t, handler(c))
	assert.Equal(t, 1, machine.clearCalls)
	assert.Nil(t, machine.session)
	require.Len(t, c.sent, 1)
	assert.Contains(t, c.sent[0], "Sale cancelled")
}

func TestSellAmountEndsFlowOnBadAmount(t *testing.T) {
	userID := int64(42)
	machine := &fakeMachine{session: &flow.Session{
		UserID: userID, Kind: flow.KindSellManual, Step: flow.StepAwaitingAmount,
		Fields: map[string]string{flow.FieldToken: "0.0.4321", flow.FieldSymbol: "TOK", flow.FieldDecimals: "6"},
	}}
	kb := keyboard.NewBuilder(testLogger())

	handler := NewSellAmountHandler(machine, activatedWallets(t, userID), &fakeLedger{tokenBalance: 1000}, kb, testLogger())
	c := newFakeContext(userID, "banana")

	require.NoError(t, handler(c))
	assert.Equal(t, 1, machine.clearCalls)
	assert.Nil(t, machine.session)
	require.Len(t, c.sent, 1)
	assert.Contains(t, c.sent[0], "Sale cancelled")
}

func TestBuildKeyDocument(t *testing.T) {
	suffix := "302e020100300506032b657004220420aabbccdd302e020100300506032b65"

	doc, err := buildKeyDocument(suffix)
	require.NoError(t, err)
	assert.Equal(t, "hedera_wallet.json", doc.FileName)
	assert.Equal(t, "application/json", doc.MIME)

	raw, err := io.ReadAll(doc.File.FileReader)
	require.NoError(t, err)

	var parsed map[string]string
	require.NoError(t, json.Unmarshal(raw, &parsed))
	assert.Equal(t, suffix, parsed["privateKey"])
}

func TestDownloadKeyRequiresActivatedWallet(t *testing.T) {
	userID := int64(42)
	repo := &memRepository{wallets: map[int64]*domain.UserWallet{}}
	wallets := wallet.NewService(repo, testLogger())
	kb := keyboard.NewBuilder(testLogger())

	handler := NewDownloadKeyHandler(wallets, nil, kb, testLogger())
	c := newFakeContext(userID, "")

	require.NoError(t, handler(c))
	require.Len(t, c.sent, 1)
	assert.Contains(t, c.sent[0], "/start")
}

func TestFormatTokenAmount(t *testing.T) {
	testCases := []struct {
		raw      int64
		decimals int32
		expected string
	}{
		{raw: 2500000, decimals: 6, expected: "2.500"},
		{raw: 150000000, decimals: 8, expected: "1.500"},
		{raw: 1, decimals: 8, expected: "0.000"},
		{raw: 0, decimals: 6, expected: "0.000"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, formatTokenAmount(tc.raw, tc.decimals))
		})
	}
}
