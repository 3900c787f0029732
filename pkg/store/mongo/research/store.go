package research

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/de-tools/bacc-research/pkg/models/store"
	"github.com/de-tools/bacc-research/pkg/store/research"
)

const DefaultCollection = "research_data"

type researchStore struct {
	client     *mongo.Client
	collection *mongo.Collection
	now        func() time.Time
}

// NewStore binds the store to a collection and ensures the unique index on
// sessionId exists.
func NewStore(ctx context.Context, client *mongo.Client, database, collection string) (research.Store, error) {
	if client == nil {
		return nil, fmt.Errorf("mongo client is nil")
	}
	if database == "" {
		return nil, fmt.Errorf("mongo database is empty")
	}
	if collection == "" {
		collection = DefaultCollection
	}

	coll := client.Database(database).Collection(collection)
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "sessionId", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("sessionId_unique"),
	})
	if err != nil {
		return nil, fmt.Errorf("create sessionId index: %w", err)
	}

	return &researchStore{
		client:     client,
		collection: coll,
		now:        time.Now,
	}, nil
}

func (s *researchStore) Upsert(ctx context.Context, update store.ResearchUpdate) (*store.ResearchRecord, error) {
	if update.SessionID == "" {
		return nil, research.ErrMissingSessionID
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var rec store.ResearchRecord
	err := s.collection.FindOneAndUpdate(
		ctx,
		bson.M{"sessionId": update.SessionID},
		buildUpdate(update, s.now().UTC()),
		opts,
	).Decode(&rec)
	if err != nil {
		return nil, fmt.Errorf("upsert session %s: %w", update.SessionID, err)
	}
	return &rec, nil
}

func (s *researchStore) Get(ctx context.Context, sessionID string) (*store.ResearchRecord, error) {
	var rec store.ResearchRecord
	err := s.collection.FindOne(ctx, bson.M{"sessionId": sessionID}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, research.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", sessionID, err)
	}
	return &rec, nil
}

func (s *researchStore) List(ctx context.Context) ([]store.ResearchRecord, error) {
	cursor, err := s.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find research records: %w", err)
	}

	records := make([]store.ResearchRecord, 0)
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("decode research records: %w", err)
	}
	return records, nil
}

func (s *researchStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *researchStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// buildUpdate returns an update pipeline that replaces calculatorData and
// surveyData and shallow-merges metadata and completionStatus. Every client
// key goes through $setField so keys holding "." or a leading "$" are stored
// as-is instead of being read as paths or operators. Requires MongoDB 5.0+.
func buildUpdate(u store.ResearchUpdate, now time.Time) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "calculatorData", Value: mergeLiteral(literal(bson.D{}), u.CalculatorData)},
			{Key: "surveyData", Value: mergeLiteral(literal(bson.D{}), u.SurveyData)},
			{Key: "metadata", Value: mergeLiteral(ifNull("$metadata"), u.Metadata)},
			{Key: "completionStatus", Value: mergeLiteral(ifNull("$completionStatus"), u.CompletionStatus)},
			{Key: "createdAt", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$createdAt", now}}}},
			{Key: "updatedAt", Value: now},
		}}},
	}
}

// mergeLiteral merges one single-key document per entry into base. Entries
// are sorted by key so the pipeline is deterministic.
func mergeLiteral[M ~map[string]V, V any](base bson.D, values M) bson.D {
	docs := bson.A{base}
	for _, k := range slices.Sorted(maps.Keys(values)) {
		docs = append(docs, bson.D{{Key: "$setField", Value: bson.D{
			{Key: "field", Value: literal(k)},
			{Key: "input", Value: literal(bson.D{})},
			{Key: "value", Value: literal(values[k])},
		}}})
	}
	return bson.D{{Key: "$mergeObjects", Value: docs}}
}

func ifNull(path string) bson.D {
	return bson.D{{Key: "$ifNull", Value: bson.A{path, literal(bson.D{})}}}
}

func literal(v interface{}) bson.D {
	return bson.D{{Key: "$literal", Value: v}}
}
