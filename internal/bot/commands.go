package bot

// Telegram command strings.
const (
	CommandStart    = "/start"
	CommandDeposit  = "/deposit"
	CommandWithdraw = "/withdraw"
	CommandBuy      = "/buy"
	CommandSell     = "/sell"
	CommandKey      = "/key"
	CommandCancel   = "/cancel"
)

// Callback data for inline button interactions.
const (
	CallbackMenuDeposit  = "menu_deposit"
	CallbackMenuWithdraw = "menu_withdraw"
	CallbackMenuBuy      = "menu_buy"
	CallbackMenuSell     = "menu_sell"
	CallbackMenuKey      = "menu_key"
	CallbackConfirm      = "flow_confirm"
	CallbackAbort        = "flow_abort"
	CallbackSellAll      = "sell_all"
	CallbackSellCustom   = "sell_custom"
	CallbackDownloadKey  = "download_key"
)
