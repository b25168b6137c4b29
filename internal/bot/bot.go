package bot

import (
	"fmt"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/stratuswap/stratus-bot/internal/bot/handlers"
	"github.com/stratuswap/stratus-bot/internal/bot/keyboard"
	apperrors "github.com/stratuswap/stratus-bot/internal/errors"
	"github.com/stratuswap/stratus-bot/internal/flow"
	"github.com/stratuswap/stratus-bot/internal/idempotency"
	"github.com/stratuswap/stratus-bot/internal/jobs"
	"github.com/stratuswap/stratus-bot/internal/ledger"
	"github.com/stratuswap/stratus-bot/internal/pricing"
	"github.com/stratuswap/stratus-bot/internal/swap"
	"github.com/stratuswap/stratus-bot/internal/wallet"
	"github.com/stratuswap/stratus-bot/pkg/config"
)

// Dependencies bundles the services the bot layer routes updates into.
type Dependencies struct {
	Machine     flow.Machine
	Wallets     *wallet.Service
	Ledger      ledger.Client
	Quotes      *pricing.Service
	Sequencer   *swap.Sequencer
	Queue       jobs.Manager
	Idempotency idempotency.Manager
}

// Bot wraps telebot.Bot with the routing and middleware stack.
type Bot struct {
	telebot    *telebot.Bot
	log        *slog.Logger
	cfg        config.Config
	router     *Router
	dispatcher *Dispatcher
	keyboard   *keyboard.Builder
	errHandler *apperrors.Handler
	deps       Dependencies
}

// New builds a telegram bot instance configured according to the
// application settings.
func New(cfg config.Config, log *slog.Logger, deps Dependencies) (*Bot, error) {
	settings := telebot.Settings{
		Token: cfg.Bot.Token,
	}

	if cfg.Bot.Mode == "webhook" {
		settings.Poller = &telebot.Webhook{
			Listen: cfg.Server.Port,
		}
	} else {
		settings.Poller = &telebot.LongPoller{
			Timeout: cfg.Bot.Timeout,
		}
	}

	tb, err := telebot.NewBot(settings)
	if err != nil {
		return nil, fmt.Errorf("initialize telebot: %w", err)
	}

	kb := keyboard.NewBuilder(log)
	dispatcher := NewDispatcher(deps.Machine, log)
	router := NewRouter(dispatcher, log)

	b := &Bot{
		telebot:    tb,
		log:        log,
		cfg:        cfg,
		router:     router,
		dispatcher: dispatcher,
		keyboard:   kb,
		errHandler: apperrors.NewHandler(log, cfg.Sentry.Enabled),
		deps:       deps,
	}

	b.setupRouter()
	b.registerTelebotHandlers()

	return b, nil
}

// Start runs the telegram bot event loop.
func (b *Bot) Start() {
	if b.telebot != nil {
		b.telebot.Start()
	}
}

// Stop gracefully stops the telegram bot.
func (b *Bot) Stop() {
	if b.telebot == nil {
		return
	}

	b.log.Info("stopping telegram bot...")
	b.telebot.Stop()
}

// Telebot exposes the underlying telebot.Bot instance for integrations
// such as health checks and the job worker.
func (b *Bot) Telebot() *telebot.Bot {
	return b.telebot
}

func (b *Bot) setupRouter() {
	b.router.Use(RecoveryMiddleware(b.log, b.errHandler))
	b.router.Use(IdempotencyMiddleware(b.deps.Idempotency, b.log))
	b.router.Use(ErrorHandlingMiddleware(b.errHandler))
	b.router.Use(LoggingMiddleware(b.log))

	d := b.deps
	kb := b.keyboard

	start := handlers.NewStartHandler(d.Wallets, d.Ledger, d.Queue, kb, b.log)
	deposit := handlers.NewDepositHandler(d.Wallets, d.Ledger, kb, b.log)
	withdraw := handlers.NewWithdrawStartHandler(d.Machine, d.Wallets, d.Ledger, kb, b.log)
	buy := handlers.NewBuyStartHandler(d.Machine, d.Wallets, d.Ledger, kb, b.log)
	sell := handlers.NewSellStartHandler(d.Machine, d.Wallets, kb, b.log)
	exportKey := handlers.NewExportKeyHandler(d.Wallets, d.Queue, kb, b.log)
	abort := handlers.NewAbortHandler(d.Machine, kb, b.log)

	b.router.RegisterCommand(CommandStart, start)
	b.router.RegisterCommand(CommandDeposit, deposit)
	b.router.RegisterCommand(CommandWithdraw, withdraw)
	b.router.RegisterCommand(CommandBuy, buy)
	b.router.RegisterCommand(CommandSell, sell)
	b.router.RegisterCommand(CommandKey, exportKey)
	b.router.RegisterCommand(CommandCancel, abort)

	b.router.RegisterCallback(CallbackMenuDeposit, handlers.CallbackHandler(deposit))
	b.router.RegisterCallback(CallbackMenuWithdraw, handlers.CallbackHandler(withdraw))
	b.router.RegisterCallback(CallbackMenuBuy, handlers.CallbackHandler(buy))
	b.router.RegisterCallback(CallbackMenuSell, handlers.CallbackHandler(sell))
	b.router.RegisterCallback(CallbackMenuKey, handlers.CallbackHandler(exportKey))
	b.router.RegisterCallback(CallbackConfirm, handlers.NewConfirmHandler(d.Machine, d.Wallets, d.Sequencer, kb, b.log))
	b.router.RegisterCallback(CallbackAbort, handlers.CallbackHandler(abort))
	b.router.RegisterCallback(CallbackSellAll, handlers.NewSellAllHandler(d.Machine, d.Wallets, d.Sequencer, kb, b.log))
	b.router.RegisterCallback(CallbackSellCustom, handlers.NewSellCustomHandler(d.Machine, kb, b.log))
	b.router.RegisterCallback(CallbackDownloadKey, handlers.NewDownloadKeyHandler(d.Wallets, d.Queue, kb, b.log))

	b.dispatcher.RegisterStepHandler(flow.KindWithdraw, flow.StepAwaitingDestination,
		handlers.NewWithdrawDestinationHandler(d.Machine, kb, b.log))
	b.dispatcher.RegisterStepHandler(flow.KindWithdraw, flow.StepAwaitingAmount,
		handlers.NewWithdrawAmountHandler(d.Machine, d.Wallets, d.Ledger, kb, b.log))
	b.dispatcher.RegisterStepHandler(flow.KindBuy, flow.StepAwaitingToken,
		handlers.NewBuyTokenHandler(d.Machine, d.Quotes, kb, b.log))
	b.dispatcher.RegisterStepHandler(flow.KindBuy, flow.StepAwaitingAmount,
		handlers.NewBuyAmountHandler(d.Machine, d.Wallets, d.Ledger, d.Quotes, b.cfg.Swap.WrappedNative, kb, b.log))
	b.dispatcher.RegisterStepHandler(flow.KindSell, flow.StepAwaitingToken,
		handlers.NewSellTokenHandler(d.Machine, d.Wallets, d.Ledger, d.Quotes, kb, b.log))
	b.dispatcher.RegisterStepHandler(flow.KindSellManual, flow.StepAwaitingAmount,
		handlers.NewSellAmountHandler(d.Machine, d.Wallets, d.Ledger, kb, b.log))

	b.router.SetDefault(func(c telebot.Context) error {
		return c.Send("Pick an action from the menu or send /start.", kb.MainMenu())
	})
}

func (b *Bot) registerTelebotHandlers() {
	b.telebot.Handle(telebot.OnText, b.router.Route)
	b.telebot.Handle(telebot.OnCallback, b.router.Route)
}
