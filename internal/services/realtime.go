package services

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const feedChannel = "feed:updates"

// FeedEvent is the payload broadcast over Redis and WebSocket when an
// update is posted.
type FeedEvent struct {
	Type      string    `json:"type"`
	Slug      string    `json:"slug"`
	Project   string    `json:"project"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// FeedHub fans Redis feed events out to local WebSocket subscribers.
// Publishing goes through Redis so every instance sees every post.
type FeedHub struct {
	rdb     *redis.Client
	mu      sync.Mutex
	subs    map[int]chan FeedEvent
	nextID  int
	started sync.Once
}

func NewFeedHub(rdb *redis.Client) *FeedHub {
	return &FeedHub{rdb: rdb, subs: make(map[int]chan FeedEvent)}
}

// Subscribe registers a local listener. The returned cancel func must be
// called when the connection closes.
func (h *FeedHub) Subscribe() (<-chan FeedEvent, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	ch := make(chan FeedEvent, 16)
	h.subs[id] = ch

	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if c, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(c)
		}
	}
}

func (h *FeedHub) fanOut(event FeedEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		// Best-effort: drop the event for slow consumers instead of blocking.
		select {
		case ch <- event:
		default:
		}
	}
}

// PublishUpdate publishes a feed event to Redis; called after a post is stored.
func (h *FeedHub) PublishUpdate(ctx context.Context, event FeedEvent) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return h.rdb.Publish(ctx, feedChannel, data).Err()
}

// StartSubscriber ensures a single shared Redis listener per instance.
func (h *FeedHub) StartSubscriber(ctx context.Context) {
	h.started.Do(func() {
		go h.runSubscriber(ctx)
	})
}

func (h *FeedHub) runSubscriber(ctx context.Context) {
	backoff := time.Second

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		func() {
			pubsub := h.rdb.Subscribe(ctx, feedChannel)
			defer pubsub.Close()

			log.Printf("✅ Feed Redis subscriber started (channel: %s)", feedChannel)

			for {
				msg, err := pubsub.ReceiveMessage(ctx)
				if err != nil {
					log.Printf("feed subscriber error: %v", err)
					time.Sleep(backoff)
					backoff *= 2
					if backoff > 30*time.Second {
						backoff = 30 * time.Second
					}
					return
				}

				backoff = time.Second

				var event FeedEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					log.Printf("failed to unmarshal feed event: %v", err)
					continue
				}

				h.fanOut(event)
			}
		}()
	}
}
