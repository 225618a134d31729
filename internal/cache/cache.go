// Package cache journals match events to redis so every action in a
// match is replayable and observable outside the server process.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/DeibyRamirez/Backend-BatallaCartas/internal/engine"
)

var rdb *redis.Client

// journalTTL keeps finished-match journals around long enough for
// post-game review before redis reclaims them.
const journalTTL = 24 * time.Hour

// Connect initializes the shared client from a redis URL.
func Connect(ctx context.Context, url string) error {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	rdb = client
	logrus.Info("redis connection established")
	return nil
}

// Close releases the client.
func Close() {
	if rdb != nil {
		_ = rdb.Close()
	}
}

// journalEntry is the stored form of one match event.
type journalEntry struct {
	At    time.Time    `json:"at"`
	Event engine.Event `json:"event"`
}

// PublishMatchEvent appends an event to the match's journal list and
// publishes it on the match channel. Journal failures are logged, never
// surfaced: the journal is an audit trail, not a dependency of play.
func PublishMatchEvent(ctx context.Context, code string, ev engine.Event) {
	if rdb == nil {
		return
	}
	entry, err := json.Marshal(journalEntry{At: time.Now().UTC(), Event: ev})
	if err != nil {
		logrus.WithError(err).Warn("failed to marshal match event for journal")
		return
	}
	key := "match:" + code + ":journal"
	pipe := rdb.Pipeline()
	pipe.RPush(ctx, key, entry)
	pipe.Expire(ctx, key, journalTTL)
	pipe.Publish(ctx, "match:"+code, entry)
	if _, err := pipe.Exec(ctx); err != nil {
		logrus.WithError(err).WithField("match", code).Warn("failed to journal match event")
	}
}

// MatchJournal returns every journaled event for a match in order.
func MatchJournal(ctx context.Context, code string) ([]engine.Event, error) {
	if rdb == nil {
		return nil, engine.NewDependencyError("journal")
	}
	raw, err := rdb.LRange(ctx, "match:"+code+":journal", 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read journal: %w", err)
	}
	events := make([]engine.Event, 0, len(raw))
	for _, r := range raw {
		var e journalEntry
		if err := json.Unmarshal([]byte(r), &e); err != nil {
			return nil, fmt.Errorf("decode journal entry: %w", err)
		}
		events = append(events, e.Event)
	}
	return events, nil
}
