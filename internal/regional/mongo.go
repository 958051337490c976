package regional

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/dasper/backend/internal/models"
)

const regionalCollection = "regional_cost"

// MongoStore reads cost profiles from the regional_cost collection and falls
// back to the static table when a city is missing or the database is down.
type MongoStore struct {
	client   *mongo.Client
	coll     *mongo.Collection
	fallback *StaticStore
	logger   zerolog.Logger
}

func NewMongoStore(ctx context.Context, uri, database string, logger zerolog.Logger) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return &MongoStore{
		client:   client,
		coll:     client.Database(database).Collection(regionalCollection),
		fallback: NewStaticStore(),
		logger:   logger,
	}, nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) Profile(ctx context.Context, city string) (models.RegionalCostProfile, error) {
	needle := strings.TrimSpace(city)
	if needle == "" {
		return DefaultProfile, nil
	}

	filter := bson.M{"city": bson.M{"$regex": needle, "$options": "i"}}
	var p models.RegionalCostProfile
	err := s.coll.FindOne(ctx, filter).Decode(&p)
	if err == nil {
		return p, nil
	}
	if err != mongo.ErrNoDocuments {
		s.logger.Warn().Err(err).Str("city", city).Msg("regional lookup failed, using static table")
	}
	return s.fallback.Profile(ctx, city)
}

func (s *MongoStore) List(ctx context.Context) ([]models.RegionalCostProfile, error) {
	cur, err := s.coll.Find(ctx, bson.M{})
	if err != nil {
		s.logger.Warn().Err(err).Msg("regional list failed, using static table")
		return s.fallback.List(ctx)
	}
	defer cur.Close(ctx)

	var out []models.RegionalCostProfile
	if err := cur.All(ctx, &out); err != nil {
		return s.fallback.List(ctx)
	}
	if len(out) == 0 {
		return s.fallback.List(ctx)
	}
	return out, nil
}
