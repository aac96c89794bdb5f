package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/exam-portal-api/internal/dto"
	"github.com/noah-isme/exam-portal-api/internal/observability"
)

const (
	activityBufferSize = 16
	activitySeenWindow = 256
)

// ActivityFeed fans recorded activities out to live subscribers on this node and, through Redis
// and NATS, on every other node.
type ActivityFeed interface {
	ActivityPublisher
	Subscribe() (<-chan dto.ActivityResponse, func())
	Start(ctx context.Context)
}

type activityFeed struct {
	redis        *redis.Client
	redisChannel string
	nats         *nats.Conn
	natsSubject  string
	logger       zerolog.Logger
	nodeID       string

	mu          sync.RWMutex
	subscribers map[chan dto.ActivityResponse]struct{}

	seenMu    sync.Mutex
	seen      map[uint]struct{}
	seenOrder []uint
}

type activityEvent struct {
	Source   string               `json:"source"`
	Activity dto.ActivityResponse `json:"activity"`
	SentAt   time.Time            `json:"sent_at"`
}

// NewActivityFeed builds the feed. redisClient and natsConn are optional.
func NewActivityFeed(redisClient *redis.Client, natsConn *nats.Conn, channel string, logger zerolog.Logger) ActivityFeed {
	channel = strings.TrimSpace(channel)
	return &activityFeed{
		redis:        redisClient,
		redisChannel: channel,
		nats:         natsConn,
		natsSubject:  strings.ReplaceAll(channel, ":", "."),
		logger:       logger.With().Str("component", "activity_feed").Logger(),
		nodeID:       uuid.NewString(),
		subscribers:  make(map[chan dto.ActivityResponse]struct{}),
		seen:         make(map[uint]struct{}, activitySeenWindow),
	}
}

func (f *activityFeed) Start(ctx context.Context) {
	if f.redis != nil && f.redisChannel != "" {
		go f.consumeRedis(ctx)
	}
	if f.nats != nil && f.natsSubject != "" {
		f.consumeNATS(ctx)
	}
}

func (f *activityFeed) Publish(ctx context.Context, activity dto.ActivityResponse) {
	f.broadcast(activity)

	if err := f.replicate(ctx, activity); err != nil {
		f.logger.Warn().Err(err).Uint("activity_id", activity.ID).Msg("failed to replicate activity")
	}
}

func (f *activityFeed) Subscribe() (<-chan dto.ActivityResponse, func()) {
	ch := make(chan dto.ActivityResponse, activityBufferSize)

	f.mu.Lock()
	f.subscribers[ch] = struct{}{}
	f.mu.Unlock()
	observability.ActivityStreamClients().Inc()

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subscribers, ch)
			close(ch)
			f.mu.Unlock()
			observability.ActivityStreamClients().Dec()
		})
	}

	return ch, cleanup
}

// broadcast never blocks; a subscriber with a full buffer misses the event.
func (f *activityFeed) broadcast(activity dto.ActivityResponse) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	for ch := range f.subscribers {
		select {
		case ch <- activity:
		default:
		}
	}
}

func (f *activityFeed) replicate(ctx context.Context, activity dto.ActivityResponse) error {
	if f.redis == nil && f.nats == nil {
		return nil
	}

	payload, err := json.Marshal(activityEvent{
		Source:   f.nodeID,
		Activity: activity,
		SentAt:   time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	var errs []error
	if f.redis != nil && f.redisChannel != "" {
		if err := f.redis.Publish(ctx, f.redisChannel, payload).Err(); err != nil {
			errs = append(errs, err)
		}
	}
	if f.nats != nil && f.natsSubject != "" {
		if err := f.nats.Publish(f.natsSubject, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f *activityFeed) consumeRedis(ctx context.Context) {
	pubsub := f.redis.Subscribe(ctx, f.redisChannel)
	defer func() { _ = pubsub.Close() }()

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return
			}
			f.logger.Error().Err(err).Msg("activity redis subscription closed")
			return
		}
		f.handleEvent([]byte(msg.Payload))
	}
}

func (f *activityFeed) consumeNATS(ctx context.Context) {
	sub, err := f.nats.Subscribe(f.natsSubject, func(msg *nats.Msg) {
		f.handleEvent(msg.Data)
	})
	if err != nil {
		f.logger.Error().Err(err).Msg("failed to subscribe to nats activity subject")
		return
	}

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			f.logger.Warn().Err(err).Msg("failed to drain activity nats subscription")
		}
	}()
}

func (f *activityFeed) handleEvent(payload []byte) {
	var event activityEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		f.logger.Warn().Err(err).Msg("invalid activity event payload")
		return
	}

	// Redis and NATS both echo our own publishes back; local subscribers already have them.
	if event.Source == f.nodeID {
		return
	}
	// With both transports configured every remote event arrives twice.
	if !f.markSeen(event.Activity.ID) {
		return
	}

	observability.ActivityEvents().WithLabelValues(string(event.Activity.Type)).Inc()
	f.broadcast(event.Activity)
}

func (f *activityFeed) markSeen(id uint) bool {
	f.seenMu.Lock()
	defer f.seenMu.Unlock()

	if _, ok := f.seen[id]; ok {
		return false
	}
	f.seen[id] = struct{}{}
	f.seenOrder = append(f.seenOrder, id)
	if len(f.seenOrder) > activitySeenWindow {
		oldest := f.seenOrder[0]
		f.seenOrder = f.seenOrder[1:]
		delete(f.seen, oldest)
	}
	return true
}
