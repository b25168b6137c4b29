package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/stratuswap/stratus-bot/internal/bot/handlers"
	"github.com/stratuswap/stratus-bot/internal/bot/keyboard"
	apperrors "github.com/stratuswap/stratus-bot/internal/errors"
	"github.com/stratuswap/stratus-bot/internal/idempotency"
	"github.com/stratuswap/stratus-bot/pkg/metrics"
)

// callbackDedupTTL is how long a processed callback press suppresses
// replays of the same button on the same message.
const callbackDedupTTL = 5 * time.Minute

// RecoveryMiddleware catches panics, reports them via the centralized
// handler, and notifies the user.
func RecoveryMiddleware(log *slog.Logger, errHandler *apperrors.Handler) handlers.Middleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					log.Error("panic recovered in handler",
						slog.Any("panic", r), slog.String("stack", string(debug.Stack())))

					userMsg := "⚠️ Something went wrong. Please try again later."
					if errHandler != nil {
						appErr := apperrors.NewStateError(fmt.Sprintf("panic recovered: %v", r))
						if msg, _ := errHandler.Handle(context.Background(), appErr); msg != "" {
							userMsg = msg
						}
					}

					if c != nil {
						if sendErr := c.Send(userMsg); sendErr != nil {
							log.Error("failed to notify user about panic", slog.Any("error", sendErr))
						}
					}

					err = nil
				}
			}()

			return next(c)
		}
	}
}

// IdempotencyMiddleware suppresses duplicate callback presses. Telegram
// redelivers button taps freely; without this guard a double-tapped Confirm
// would submit the same transfer twice.
func IdempotencyMiddleware(manager idempotency.Manager, log *slog.Logger) handlers.Middleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) error {
			callback := c.Callback()
			if manager == nil || callback == nil || c.Sender() == nil {
				return next(c)
			}

			messageID := 0
			if callback.Message != nil {
				messageID = callback.Message.ID
			}

			key := idempotency.GenerateKey(c.Sender().ID, messageID, callback.Data)

			result, err := manager.Execute(context.Background(), key, callbackDedupTTL, func(context.Context) (interface{}, error) {
				return nil, next(c)
			})
			if err != nil {
				if errors.Is(err, idempotency.ErrRequestInProgress) {
					log.Info("suppressed concurrent callback replay",
						slog.Int64("user_id", c.Sender().ID), slog.String("data", callback.Data))
					return nil
				}
				return err
			}

			if result.FromCache {
				log.Info("suppressed duplicate callback press",
					slog.Int64("user_id", c.Sender().ID), slog.String("data", callback.Data))
			}

			return nil
		}
	}
}

// ErrorHandlingMiddleware centralizes error reporting and user messaging
// for handler failures.
func ErrorHandlingMiddleware(errHandler *apperrors.Handler) handlers.Middleware {
	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}

			var appErr *apperrors.AppError
			if errors.As(err, &appErr) {
				metrics.RecordError(appErr.Code, string(appErr.Severity))
			} else {
				metrics.RecordError("unclassified", string(apperrors.SeverityHigh))
			}

			userMsg := "⚠️ Something went wrong. Please try again later."
			if errHandler != nil {
				if msg, _ := errHandler.Handle(context.Background(), err); msg != "" {
					userMsg = msg
				}
			}

			if c != nil {
				_ = c.Send(userMsg)
			}

			return nil
		}
	}
}

// LoggingMiddleware logs basic telemetry about incoming updates and feeds
// the update counters.
func LoggingMiddleware(log *slog.Logger) handlers.Middleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) error {
			start := time.Now()
			userID := int64(0)
			if c != nil && c.Sender() != nil {
				userID = c.Sender().ID
			}

			action := ""
			if c != nil {
				if cb := c.Callback(); cb != nil {
					action = cb.Data
				} else {
					action = c.Text()
				}
			}

			// Free text would blow up label cardinality; only commands and
			// button uniques become metric labels.
			metricAction := "text"
			if c != nil && c.Callback() != nil {
				unique, _, decodeErr := keyboard.DecodeCallback(strings.TrimPrefix(action, "\f"))
				if decodeErr == nil {
					metricAction = unique
				}
			} else if strings.HasPrefix(action, "/") {
				metricAction = action
			}

			log.Info("handling update", slog.Int64("user_id", userID), slog.String("action", action))
			err := next(c)

			status := "ok"
			if err != nil {
				status = "error"
			}
			metrics.RecordUpdate(metricAction, status, time.Since(start))

			log.Info("handled update",
				slog.Int64("user_id", userID),
				slog.String("action", action),
				slog.Duration("duration", time.Since(start)),
				slog.Any("error", err),
			)

			return err
		}
	}
}
