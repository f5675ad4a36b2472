package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/orionchat/registry"
)

const eventChannel = "registry:events"

// EventService fans registry events out to connected clients through redis
// pub/sub, so every server instance sees every event.
type EventService struct {
	rdb *redis.Client
}

func NewEventService(redisClient *redis.Client) *EventService {
	return &EventService{
		rdb: redisClient,
	}
}

func (s *EventService) Publish(ctx context.Context, event registry.Event) error {

	jsonstr, err := json.Marshal(event)
	if err != nil {
		return err
	}

	err = s.rdb.Publish(ctx, eventChannel, jsonstr).Err()
	if err != nil {
		return err
	}

	return nil
}

// Realtime streams events to output until ctx is done. userIDs received on
// input narrow the stream to those users; an empty set means everything.
func (s *EventService) Realtime(ctx context.Context, input <-chan []string, output chan<- registry.Event) {

	pubsub := s.rdb.Subscribe(ctx, eventChannel)
	defer pubsub.Close()

	messages := pubsub.Channel()
	filter := map[string]struct{}{}

	for {
		select {
		case <-ctx.Done():
			return
		case userIDs, ok := <-input:
			if !ok {
				return
			}
			filter = map[string]struct{}{}
			for _, id := range userIDs {
				filter[id] = struct{}{}
			}
		case msg, ok := <-messages:
			if !ok {
				return
			}
			var event registry.Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				slog.ErrorContext(ctx, "failed to decode registry event",
					slog.String("error", err.Error()),
					slog.String("module", "events"),
				)
				continue
			}
			if len(filter) > 0 {
				if _, listening := filter[event.UserID]; !listening {
					continue
				}
			}
			select {
			case output <- event:
			case <-ctx.Done():
				return
			}
		}
	}
}
