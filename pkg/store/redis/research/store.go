package research

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/de-tools/bacc-research/pkg/models/store"
	"github.com/de-tools/bacc-research/pkg/store/research"
)

const defaultPrefix = "research"

type researchStore struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// NewStore keeps each session as a JSON document under <prefix>:<sessionId>
// and indexes sessions in the sorted set <prefix>:sessions by creation time.
func NewStore(client *redis.Client, prefix string) (research.Store, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &researchStore{
		client: client,
		prefix: prefix,
		now:    time.Now,
	}, nil
}

func (s *researchStore) key(sessionID string) string {
	return s.prefix + ":" + sessionID
}

func (s *researchStore) indexKey() string {
	return s.prefix + ":sessions"
}

// Upsert runs as an optimistic transaction on the session key. A concurrent
// writer to the same session makes it fail with redis.TxFailedErr.
func (s *researchStore) Upsert(ctx context.Context, update store.ResearchUpdate) (*store.ResearchRecord, error) {
	if update.SessionID == "" {
		return nil, research.ErrMissingSessionID
	}

	key := s.key(update.SessionID)
	var out store.ResearchRecord

	txf := func(tx *redis.Tx) error {
		now := s.now().UTC()

		raw, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
			out = store.NewResearchRecord(update, now)
		case err != nil:
			return fmt.Errorf("get %s: %w", key, err)
		default:
			var rec store.ResearchRecord
			if err := json.Unmarshal(raw, &rec); err != nil {
				return fmt.Errorf("decode %s: %w", key, err)
			}
			rec.Apply(update, now)
			out = rec
		}

		data, err := json.Marshal(out)
		if err != nil {
			return fmt.Errorf("encode %s: %w", key, err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			pipe.ZAddNX(ctx, s.indexKey(), redis.Z{
				Score:  float64(out.CreatedAt.UnixMilli()),
				Member: update.SessionID,
			})
			return nil
		})
		return err
	}

	if err := s.client.Watch(ctx, txf, key); err != nil {
		return nil, fmt.Errorf("upsert session %s: %w", update.SessionID, err)
	}
	return &out, nil
}

func (s *researchStore) Get(ctx context.Context, sessionID string) (*store.ResearchRecord, error) {
	raw, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, research.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", sessionID, err)
	}

	var rec store.ResearchRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", sessionID, err)
	}
	return &rec, nil
}

func (s *researchStore) List(ctx context.Context) ([]store.ResearchRecord, error) {
	ids, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	records := make([]store.ResearchRecord, 0, len(ids))
	if len(ids) == 0 {
		return records, nil
	}

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, s.key(id))
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("load sessions: %w", err)
	}

	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var rec store.ResearchRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("decode session %s: %w", ids[i], err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func (s *researchStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *researchStore) Close(context.Context) error {
	return s.client.Close()
}
