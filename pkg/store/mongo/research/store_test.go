package research

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/de-tools/bacc-research/pkg/models/store"
	"github.com/de-tools/bacc-research/pkg/services/export"
	baccmongo "github.com/de-tools/bacc-research/pkg/store/mongo"
	"github.com/de-tools/bacc-research/pkg/store/research"
)

func TestNewStore(t *testing.T) {
	t.Run("nil client", func(t *testing.T) {
		s, err := NewStore(context.Background(), nil, "db", "")
		assert.Error(t, err)
		assert.Nil(t, s)
	})
}

// setStage returns the fields of the single $set stage.
func setStage(t *testing.T, p bson.D) map[string]interface{} {
	t.Helper()
	require.Len(t, p, 1)
	require.Equal(t, "$set", p[0].Key)
	fields := p[0].Value.(bson.D)
	out := make(map[string]interface{}, len(fields))
	for _, f := range fields {
		out[f.Key] = f.Value
	}
	return out
}

func setField(key string, value interface{}) bson.D {
	return bson.D{{Key: "$setField", Value: bson.D{
		{Key: "field", Value: literal(key)},
		{Key: "input", Value: literal(bson.D{})},
		{Key: "value", Value: literal(value)},
	}}}
}

func TestBuildUpdate(t *testing.T) {
	now := time.Date(2025, 6, 13, 0, 0, 0, 0, time.UTC)

	t.Run("merges metadata keys and replaces data", func(t *testing.T) {
		pipeline := buildUpdate(store.ResearchUpdate{
			SessionID: "s1",
			CalculatorData: map[string]store.CalculatorEntry{
				"rank": {Input: "E-5"},
			},
			Metadata:         store.Answers{"step": 2.0, "device": "mobile"},
			CompletionStatus: store.Answers{"survey": true},
		}, now)
		require.Len(t, pipeline, 1)

		set := setStage(t, pipeline[0])
		assert.Equal(t, bson.D{{Key: "$mergeObjects", Value: bson.A{
			literal(bson.D{}),
			setField("rank", store.CalculatorEntry{Input: "E-5"}),
		}}}, set["calculatorData"])
		assert.Equal(t, bson.D{{Key: "$mergeObjects", Value: bson.A{
			ifNull("$metadata"),
			setField("device", "mobile"),
			setField("step", 2.0),
		}}}, set["metadata"])
		assert.Equal(t, bson.D{{Key: "$mergeObjects", Value: bson.A{
			ifNull("$completionStatus"),
			setField("survey", true),
		}}}, set["completionStatus"])
		assert.Equal(t, bson.D{{Key: "$ifNull", Value: bson.A{"$createdAt", now}}}, set["createdAt"])
		assert.Equal(t, now, set["updatedAt"])
	})

	t.Run("empty maps keep existing metadata", func(t *testing.T) {
		set := setStage(t, buildUpdate(store.ResearchUpdate{SessionID: "s2"}, now)[0])

		assert.Equal(t, bson.D{{Key: "$mergeObjects", Value: bson.A{ifNull("$metadata")}}}, set["metadata"])
		assert.Equal(t, bson.D{{Key: "$mergeObjects", Value: bson.A{literal(bson.D{})}}}, set["surveyData"])
	})

	t.Run("dotted and dollar keys stay literal", func(t *testing.T) {
		set := setStage(t, buildUpdate(store.ResearchUpdate{
			SessionID: "s3",
			Metadata:  store.Answers{"screen.width": 1024.0, "$ref": "landing"},
		}, now)[0])

		assert.NotContains(t, set, "metadata.screen.width")
		assert.Equal(t, bson.D{{Key: "$mergeObjects", Value: bson.A{
			ifNull("$metadata"),
			setField("$ref", "landing"),
			setField("screen.width", 1024.0),
		}}}, set["metadata"])
	})

	t.Run("pipeline encodes", func(t *testing.T) {
		pipeline := buildUpdate(store.ResearchUpdate{
			SessionID: "s4",
			SurveyData: map[string]store.SurveyEntry{
				"q1": {Response: []interface{}{"a", "b"}, QuestionText: "Pick"},
			},
		}, now)

		_, err := bson.Marshal(bson.D{{Key: "u", Value: pipeline}})
		assert.NoError(t, err)
	})
}

// roundTrip stores rec the way the collection does and reads it back through
// the client registry.
func roundTrip(t *testing.T, rec store.ResearchRecord) store.ResearchRecord {
	t.Helper()
	raw, err := bson.Marshal(rec)
	require.NoError(t, err)

	var decoded store.ResearchRecord
	require.NoError(t, bson.UnmarshalWithRegistry(baccmongo.Registry(), raw, &decoded))
	return decoded
}

func TestDecodeMatchesMemoryStore(t *testing.T) {
	ctx := context.Background()
	mem := research.NewMemoryStore()

	_, err := mem.Upsert(ctx, store.ResearchUpdate{
		SessionID: "session-a",
		Metadata:  store.Answers{"device": "mobile"},
	})
	require.NoError(t, err)
	want, err := mem.Upsert(ctx, store.ResearchUpdate{
		SessionID: "session-a",
		CalculatorData: map[string]store.CalculatorEntry{
			"rank": {Input: "E-5", Result: 1050.0, Timestamp: "2025-06-13T09:05:00Z"},
		},
		SurveyData: map[string]store.SurveyEntry{
			"current_hurdles": {
				Response:     []interface{}{"Cost", "Waitlist"},
				QuestionText: "What are your current hurdles?",
			},
		},
		Metadata:         store.Answers{"screens": []interface{}{"calculator", "survey"}},
		CompletionStatus: store.Answers{"survey": true},
	})
	require.NoError(t, err)

	got := roundTrip(t, *want)

	t.Run("arrays decode as plain slices", func(t *testing.T) {
		assert.IsType(t, []interface{}{}, got.SurveyData["current_hurdles"].Response)
		assert.Equal(t, want.SurveyData, got.SurveyData)
		assert.Equal(t, want.CalculatorData, got.CalculatorData)
		assert.Equal(t, want.Metadata, got.Metadata)
		assert.Equal(t, want.CompletionStatus, got.CompletionStatus)
	})

	t.Run("research export is identical", func(t *testing.T) {
		var fromMemory, fromMongo bytes.Buffer
		require.NoError(t, export.WriteResearch(&fromMemory, []store.ResearchRecord{*want}))
		require.NoError(t, export.WriteResearch(&fromMongo, []store.ResearchRecord{got}))

		assert.Equal(t, fromMemory.String(), fromMongo.String())
		assert.Contains(t, fromMongo.String(), "Survey,current_hurdles,Cost; Waitlist,What are your current hurdles?,,")
	})
}
