package store

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/scenegraph/pkg/errors"
	"github.com/matzehuels/scenegraph/pkg/story"
)

// CollectionScenarios is the collection holding scenario documents.
const CollectionScenarios = "scenarios"

// MongoStore keeps scenarios in MongoDB, one document per scenario keyed by
// _id. Scene edits are applied with positional updates so that concurrent
// edits of different scenes do not overwrite each other.
type MongoStore struct {
	client  *mongo.Client
	coll    *mongo.Collection
	timeout time.Duration
}

// MongoConfig configures [NewMongoStore].
type MongoConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// NewMongoStore connects to MongoDB and verifies the connection.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Database == "" {
		cfg.Database = "scenegraph"
	}

	connectCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "connect mongo")
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "ping mongo")
	}
	return NewMongoStoreFromClient(client, cfg.Database, cfg.Timeout), nil
}

// NewMongoStoreFromClient wraps an already connected client.
func NewMongoStoreFromClient(client *mongo.Client, database string, timeout time.Duration) *MongoStore {
	return &MongoStore{
		client:  client,
		coll:    client.Database(database).Collection(CollectionScenarios),
		timeout: timeout,
	}
}

func (s *MongoStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

func (s *MongoStore) Load(ctx context.Context, id string) (*story.Scenario, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var sc story.Scenario
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&sc)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, mongoErr(err, "load scenario %q", id)
	}
	for i := range sc.Scenes {
		if sc.Scenes[i].Choices == nil {
			sc.Scenes[i].Choices = []story.Choice{}
		}
	}
	return &sc, nil
}

func (s *MongoStore) Save(ctx context.Context, sc *story.Scenario) error {
	if sc.ID == "" {
		return errors.New(errors.ErrCodeInvalidScenario, "scenario has no id")
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": sc.ID}, sc, options.Replace().SetUpsert(true))
	if err != nil {
		return mongoErr(err, "save scenario %q", sc.ID)
	}
	return nil
}

// SaveScene first tries to replace the matching array element and falls back
// to appending when the scenario has no scene with that id.
func (s *MongoStore) SaveScene(ctx context.Context, scenarioID string, scene story.Scene) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	ts := now()
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": scenarioID, "scenes.id": scene.ID},
		bson.M{"$set": bson.M{"scenes.$[s]": scene, "updated_at": ts}},
		options.Update().SetArrayFilters(options.ArrayFilters{
			Filters: []any{bson.M{"s.id": scene.ID}},
		}),
	)
	if err != nil {
		return mongoErr(err, "save scene %q", scene.ID)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	res, err = s.coll.UpdateOne(ctx,
		bson.M{"_id": scenarioID},
		bson.M{"$push": bson.M{"scenes": scene}, "$set": bson.M{"updated_at": ts}},
	)
	if err != nil {
		return mongoErr(err, "append scene %q", scene.ID)
	}
	if res.MatchedCount == 0 {
		return notFound(scenarioID)
	}
	return nil
}

func (s *MongoStore) DeleteScene(ctx context.Context, scenarioID, sceneID string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": scenarioID, "scenes.id": sceneID},
		bson.M{"$pull": bson.M{"scenes": bson.M{"id": sceneID}}, "$set": bson.M{"updated_at": now()}},
	)
	if err != nil {
		return mongoErr(err, "delete scene %q", sceneID)
	}
	if res.MatchedCount > 0 {
		return nil
	}
	n, err := s.coll.CountDocuments(ctx, bson.M{"_id": scenarioID})
	if err != nil {
		return mongoErr(err, "delete scene %q", sceneID)
	}
	if n == 0 {
		return notFound(scenarioID)
	}
	return sceneNotFound(scenarioID, sceneID)
}

func (s *MongoStore) List(ctx context.Context) ([]Summary, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	opts := options.Find().
		SetProjection(bson.M{
			"title":       1,
			"description": 1,
			"updated_at":  1,
			"scene_count": bson.M{"$size": bson.M{"$ifNull": bson.A{"$scenes", bson.A{}}}},
		}).
		SetSort(bson.D{{Key: "updated_at", Value: -1}, {Key: "_id", Value: 1}})

	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, mongoErr(err, "list scenarios")
	}
	defer cur.Close(ctx)

	var out []Summary
	if err := cur.All(ctx, &out); err != nil {
		return nil, mongoErr(err, "decode scenarios")
	}
	if out == nil {
		out = []Summary{}
	}
	return out, nil
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func mongoErr(err error, format string, args ...any) error {
	code := errors.ErrCodeNetwork
	if stderrors.Is(err, context.DeadlineExceeded) || mongo.IsTimeout(err) {
		code = errors.ErrCodeTimeout
	}
	return errors.Wrap(code, err, "%s", fmt.Sprintf(format, args...))
}

var _ Store = (*MongoStore)(nil)
