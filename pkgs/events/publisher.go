package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	keys "github.com/y4z1c1/SuiCity-Test3-sub000/pkgs/redis"
)

// Emitter accepts events. Emit must not block the caller on slow consumers.
type Emitter interface {
	Emit(ctx context.Context, event *Event) error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Emit(context.Context, *Event) error { return nil }

// Topics events are routed to.
const (
	TopicEligibility = "eligibility"
	TopicClaim       = "claim"
)

// Publisher handles publishing events to Redis Pub/Sub
type Publisher struct {
	redisClient *redis.Client
	keys        *keys.KeyBuilder

	// Channel mapping for event types
	channelMap map[EventType]string

	eventsPublished atomic.Uint64
	publishErrors   atomic.Uint64
}

// NewPublisher creates a new Redis event publisher
func NewPublisher(redisClient *redis.Client, kb *keys.KeyBuilder) (*Publisher, error) {
	if redisClient == nil || kb == nil {
		return nil, fmt.Errorf("invalid publisher configuration")
	}

	p := &Publisher{
		redisClient: redisClient,
		keys:        kb,
		channelMap:  make(map[EventType]string),
	}
	p.initChannelMap()
	return p, nil
}

// initChannelMap sets up the mapping from event types to Redis channels
func (p *Publisher) initChannelMap() {
	eligibility := p.keys.EventChannel(TopicEligibility)
	claim := p.keys.EventChannel(TopicClaim)

	p.channelMap[EventEligibilityScored] = eligibility
	p.channelMap[EventOwnershipConflict] = eligibility
	p.channelMap[EventSourceFetchFailed] = eligibility

	p.channelMap[EventClaimSigned] = claim
	p.channelMap[EventChangeNameSigned] = claim
	p.channelMap[EventMessageSigned] = claim
}

// Emit publishes a single event immediately
func (p *Publisher) Emit(ctx context.Context, event *Event) error {
	channel := p.Channel(event.Type)
	data, err := event.ToJSON()
	if err != nil {
		p.publishErrors.Add(1)
		return fmt.Errorf("failed to serialize event: %w", err)
	}

	if err := p.redisClient.Publish(ctx, channel, string(data)).Err(); err != nil {
		p.publishErrors.Add(1)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.eventsPublished.Add(1)
	return nil
}

// Channel returns the Redis channel for an event type
func (p *Publisher) Channel(eventType EventType) string {
	if channel, ok := p.channelMap[eventType]; ok {
		return channel
	}
	return p.keys.EventChannel("misc")
}

// GetMetrics returns publisher metrics
func (p *Publisher) GetMetrics() map[string]interface{} {
	return map[string]interface{}{
		"events_published": p.eventsPublished.Load(),
		"publish_errors":   p.publishErrors.Load(),
	}
}

// Subscribe creates a subscription to the channels carrying eventTypes, or
// to every event channel when none are given. The returned channel closes
// when ctx is done.
func (p *Publisher) Subscribe(ctx context.Context, eventTypes []EventType) (<-chan *Event, error) {
	seen := make(map[string]bool)
	channels := make([]string, 0, len(eventTypes))
	for _, eventType := range eventTypes {
		channel := p.Channel(eventType)
		if !seen[channel] {
			seen[channel] = true
			channels = append(channels, channel)
		}
	}

	var pubsub *redis.PubSub
	if len(channels) == 0 {
		pubsub = p.redisClient.PSubscribe(ctx, p.keys.EventChannel("*"))
	} else {
		pubsub = p.redisClient.Subscribe(ctx, channels...)
	}
	// Wait for the subscription to be confirmed so no event is missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	wanted := make(map[EventType]bool, len(eventTypes))
	for _, t := range eventTypes {
		wanted[t] = true
	}

	eventChan := make(chan *Event, 100)
	go func() {
		defer close(eventChan)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var event Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					log.WithError(err).Warn("Failed to parse event from Redis")
					continue
				}
				if len(wanted) > 0 && !wanted[event.Type] {
					continue
				}
				select {
				case eventChan <- &event:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return eventChan, nil
}
