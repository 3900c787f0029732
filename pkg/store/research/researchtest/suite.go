// Package researchtest holds behaviour checks shared by every research.Store
// implementation.
package researchtest

import (
	"context"
	"testing"

	"github.com/de-tools/bacc-research/pkg/models/store"
	"github.com/de-tools/bacc-research/pkg/store/research"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run exercises upsert, get and list against a fresh store per subtest.
func Run(t *testing.T, newStore func(t *testing.T) research.Store) {
	t.Run("missing session id", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Upsert(context.Background(), store.ResearchUpdate{})
		assert.ErrorIs(t, err, research.ErrMissingSessionID)
	})

	t.Run("first write creates record with defaults", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		rec, err := s.Upsert(ctx, store.ResearchUpdate{SessionID: "session-a"})
		require.NoError(t, err)
		assert.Equal(t, "session-a", rec.SessionID)
		assert.Empty(t, rec.CalculatorData)
		assert.Empty(t, rec.SurveyData)
		assert.Empty(t, rec.Metadata)
		assert.Empty(t, rec.CompletionStatus)
		assert.False(t, rec.CreatedAt.IsZero())
		assert.False(t, rec.UpdatedAt.Before(rec.CreatedAt))
	})

	t.Run("second write replaces data and merges metadata", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		first, err := s.Upsert(ctx, store.ResearchUpdate{
			SessionID: "session-b",
			CalculatorData: map[string]store.CalculatorEntry{
				"rank":     {Input: "E-4", Timestamp: "2025-01-01T00:00:00Z"},
				"location": {Input: "Low Cost", Timestamp: "2025-01-01T00:00:01Z"},
			},
			SurveyData: map[string]store.SurveyEntry{
				"q1": {Response: "Yes", QuestionText: "Do you use CDCs?"},
			},
			Metadata:         store.Answers{"device": "mobile", "referrer": "email"},
			CompletionStatus: store.Answers{"calculator": true},
		})
		require.NoError(t, err)

		second, err := s.Upsert(ctx, store.ResearchUpdate{
			SessionID: "session-b",
			CalculatorData: map[string]store.CalculatorEntry{
				"costShare": {Input: 25.0, Result: 1050.0, Timestamp: "2025-01-01T00:01:00Z"},
			},
			Metadata:         store.Answers{"device": "desktop"},
			CompletionStatus: store.Answers{"survey": true},
		})
		require.NoError(t, err)

		assert.Equal(t, map[string]store.CalculatorEntry{
			"costShare": {Input: 25.0, Result: 1050.0, Timestamp: "2025-01-01T00:01:00Z"},
		}, second.CalculatorData)
		assert.Empty(t, second.SurveyData)
		assert.Equal(t, store.Answers{"device": "desktop", "referrer": "email"}, second.Metadata)
		assert.Equal(t, store.Answers{"calculator": true, "survey": true}, second.CompletionStatus)
		assert.Equal(t, first.CreatedAt.Unix(), second.CreatedAt.Unix())
		assert.False(t, second.UpdatedAt.Before(first.UpdatedAt))

		got, err := s.Get(ctx, "session-b")
		require.NoError(t, err)
		assert.Equal(t, second.CalculatorData, got.CalculatorData)
		assert.Equal(t, second.Metadata, got.Metadata)
	})

	t.Run("get unknown session", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Get(context.Background(), "nope")
		assert.ErrorIs(t, err, research.ErrNotFound)
	})

	t.Run("list returns one record per session", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		for _, id := range []string{"s1", "s2", "s1", "s3"} {
			_, err := s.Upsert(ctx, store.ResearchUpdate{SessionID: id})
			require.NoError(t, err)
		}

		records, err := s.List(ctx)
		require.NoError(t, err)
		require.Len(t, records, 3)

		ids := make([]string, 0, len(records))
		for _, r := range records {
			ids = append(ids, r.SessionID)
		}
		assert.ElementsMatch(t, []string{"s1", "s2", "s3"}, ids)
	})

	t.Run("ping", func(t *testing.T) {
		s := newStore(t)
		assert.NoError(t, s.Ping(context.Background()))
	})
}
