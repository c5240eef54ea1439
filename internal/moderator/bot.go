package moderator

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/contentguard/backend/internal/cache"
	"github.com/contentguard/backend/internal/models"
	"go.uber.org/zap"
)

// Alert describes a burst of harmful decisions
type Alert struct {
	Harmful int           `json:"harmful"`
	Window  time.Duration `json:"window"`
	At      time.Time     `json:"at"`
	LastID  int64         `json:"last_id"`
}

// Bot watches the decision stream and raises an alert when harmful
// decisions pile up inside the sliding window
type Bot struct {
	redis     *cache.RedisClient
	window    time.Duration
	threshold int
	logger    *zap.Logger
	now       func() time.Time
	onAlert   func(Alert)

	mu         sync.Mutex
	harmful    []time.Time
	quietUntil time.Time
}

// NewBot creates a new alert bot instance
func NewBot(redis *cache.RedisClient, window time.Duration, threshold int, logger *zap.Logger) *Bot {
	if window <= 0 {
		window = 5 * time.Minute
	}
	if threshold <= 0 {
		threshold = 10
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bot{
		redis:     redis,
		window:    window,
		threshold: threshold,
		logger:    logger.With(zap.String("component", "moderator")),
		now:       time.Now,
	}
}

// OnAlert registers a callback invoked for every alert
func (b *Bot) OnAlert(fn func(Alert)) {
	b.onAlert = fn
}

// Run listens to decision events until ctx is done
func (b *Bot) Run(ctx context.Context) {
	if b.redis == nil {
		b.logger.Info("alert bot requires Redis; not started")
		return
	}

	ps := b.redis.SubscribeToDecisions(ctx)
	defer ps.Close()

	ch := ps.Channel()
	b.logger.Info("alert bot started",
		zap.Duration("window", b.window),
		zap.Int("threshold", b.threshold))
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			b.handleMessage([]byte(msg.Payload))
		}
	}
}

func (b *Bot) handleMessage(data []byte) {
	var ws models.WSMessage
	if err := json.Unmarshal(data, &ws); err != nil {
		b.logger.Debug("ignoring malformed event", zap.Error(err))
		return
	}

	switch ws.Event {
	case models.EventLogsCleared:
		b.Reset()
	case models.EventDecisionNew:
		raw, _ := json.Marshal(ws.Payload)
		var d models.ModerationDecision
		if err := json.Unmarshal(raw, &d); err != nil {
			b.logger.Debug("ignoring malformed decision", zap.Error(err))
			return
		}
		b.Observe(d)
	}
}

// Observe records one decision and reports whether it triggered an alert
func (b *Bot) Observe(d models.ModerationDecision) bool {
	if !d.IsHarmful() {
		return false
	}

	b.mu.Lock()
	now := b.now()
	cutoff := now.Add(-b.window)
	kept := b.harmful[:0]
	for _, ts := range b.harmful {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	b.harmful = append(kept, now)

	if len(b.harmful) < b.threshold || now.Before(b.quietUntil) {
		b.mu.Unlock()
		return false
	}
	alert := Alert{Harmful: len(b.harmful), Window: b.window, At: now.UTC(), LastID: d.ID}
	b.quietUntil = now.Add(b.window)
	b.mu.Unlock()

	b.logger.Warn("harmful content burst",
		zap.Int("harmful", alert.Harmful),
		zap.Duration("window", alert.Window),
		zap.Int64("last_id", alert.LastID))
	if b.onAlert != nil {
		b.onAlert(alert)
	}
	return true
}

// Reset forgets the window, used when the log is cleared
func (b *Bot) Reset() {
	b.mu.Lock()
	b.harmful = nil
	b.quietUntil = time.Time{}
	b.mu.Unlock()
	b.logger.Info("alert window reset")
}
