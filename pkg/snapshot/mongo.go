package snapshot

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/matzehuels/layerstack/pkg/errors"
	"github.com/matzehuels/layerstack/pkg/sample"
)

// Mongo defaults.
const (
	DefaultDatabase   = "layerstack"
	CollectionName    = "snapshots"
	mongoCloseTimeout = 5 * time.Second
)

// MongoStore keeps snapshots in a MongoDB collection, one document per name:
//
//	{_id: <name>, sample: <outbound JSON>, layers: <n>, updated_at: <time>}
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

type mongoRecord struct {
	Name      string    `bson:"_id"`
	Sample    string    `bson:"sample"`
	Layers    int       `bson:"layers"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// NewMongoStore connects to uri and verifies the connection. An empty
// database selects [DefaultDatabase].
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	if database == "" {
		database = DefaultDatabase
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &MongoStore{client: client, coll: client.Database(database).Collection(CollectionName)}, nil
}

func (s *MongoStore) Save(ctx context.Context, name string, st *sample.Stack) error {
	if err := errors.ValidateSnapshotName(name); err != nil {
		return err
	}
	doc, err := encode(st)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	rec := mongoRecord{
		Name:      name,
		Sample:    string(doc),
		Layers:    st.Len(),
		UpdatedAt: time.Now().UTC(),
	}
	_, err = s.coll.ReplaceOne(ctx, bson.M{"_id": name}, rec, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save snapshot %s: %w", name, err)
	}
	return nil
}

func (s *MongoStore) Get(ctx context.Context, name string) (*sample.Stack, error) {
	if err := errors.ValidateSnapshotName(name); err != nil {
		return nil, err
	}
	var rec mongoRecord
	err := s.coll.FindOne(ctx, bson.M{"_id": name}).Decode(&rec)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound(name)
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot %s: %w", name, err)
	}
	return decode(name, []byte(rec.Sample))
}

func (s *MongoStore) List(ctx context.Context) ([]Info, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetProjection(bson.M{"sample": 0})
	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	var out []Info
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	return out, nil
}

func (s *MongoStore) Delete(ctx context.Context, name string) error {
	if err := errors.ValidateSnapshotName(name); err != nil {
		return err
	}
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": name})
	if err != nil {
		return fmt.Errorf("delete snapshot %s: %w", name, err)
	}
	if res.DeletedCount == 0 {
		return notFound(name)
	}
	return nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), mongoCloseTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
