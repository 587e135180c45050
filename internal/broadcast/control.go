package broadcast

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/xela07ax/dashboard-live-prototype/internal/domain"
	"go.uber.org/zap"
)

const (
	resubscribeDelay = time.Second
	subscribeBackoff = 5 * time.Second
)

// ListenControl - «живучая» подписка на сигналы оператора.
// Переподписывается при обрыве, битые сигналы логирует и пропускает.
// Выходит только по отмене ctx.
func ListenControl(
	ctx context.Context,
	rdb *redis.Client,
	logger *zap.Logger,
	channel string,
	onReconnect func() error, // Callback для синхронизации при переподключении
	onSignal func(domain.ControlSignal), // Callback для обработки сигнала
) {
	logger = logger.With(zap.String("mod", "control-listener"), zap.String("chan", channel))

	for {
		pubsub := rdb.Subscribe(ctx, channel)

		// Проверка успешности подписки
		if _, err := pubsub.Receive(ctx); err != nil {
			pubsub.Close()
			if ctx.Err() != nil {
				return
			}
			logger.Error("failed to subscribe", zap.Error(err))
			if !sleepCtx(ctx, subscribeBackoff) {
				return
			}
			continue
		}

		if onReconnect != nil {
			if err := onReconnect(); err != nil {
				logger.Error("sync failed on reconnect", zap.Error(err))
			}
		}
		logger.Info("control listener subscribed")

		consume(ctx, pubsub.Channel(), logger, onSignal)
		pubsub.Close()

		if !sleepCtx(ctx, resubscribeDelay) {
			logger.Info("control listener stopping by context...")
			return
		}
	}
}

// consume читает канал до его закрытия или отмены ctx
func consume(ctx context.Context, ch <-chan *redis.Message, logger *zap.Logger, onSignal func(domain.ControlSignal)) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return // Канал закрыт, идем на переподключение
			}

			sig, err := domain.ParseControlSignal(msg.Payload)
			if err != nil {
				logger.Error("invalid signal format", zap.String("payload", msg.Payload), zap.Error(err))
				continue
			}
			logger.Info("control signal received", zap.Stringer("signal", sig))
			onSignal(sig)
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
