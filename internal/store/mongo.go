package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Lumos-Labs-HQ/datagen/internal/generator"
	"github.com/Lumos-Labs-HQ/datagen/internal/types"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Mongo keeps users, schemas and datasets in three collections. Dataset
// records are stored as ordered documents so field order survives a round trip.
type Mongo struct {
	client   *mongo.Client
	users    *mongo.Collection
	schemas  *mongo.Collection
	datasets *mongo.Collection
}

func NewMongo(ctx context.Context, url, database string) (*Mongo, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(url))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	db := client.Database(database)
	m := &Mongo{
		client:   client,
		users:    db.Collection("users"),
		schemas:  db.Collection("schemas"),
		datasets: db.Collection("datasets"),
	}
	if err := m.ensureIndexes(ctx); err != nil {
		client.Disconnect(context.Background())
		return nil, err
	}

	log.Printf("[STORAGE] MongoDB storage initialized (database %s)", database)
	return m, nil
}

func (m *Mongo) ensureIndexes(ctx context.Context) error {
	indexes := []struct {
		coll  *mongo.Collection
		model mongo.IndexModel
	}{
		{m.users, mongo.IndexModel{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)}},
		{m.users, mongo.IndexModel{Keys: bson.D{{Key: "tokenHash", Value: 1}}}},
		{m.users, mongo.IndexModel{Keys: bson.D{{Key: "apiKeyHash", Value: 1}}}},
		{m.schemas, mongo.IndexModel{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}}},
		{m.datasets, mongo.IndexModel{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "schemaId", Value: 1}}}},
	}
	for _, idx := range indexes {
		if _, err := idx.coll.Indexes().CreateOne(ctx, idx.model); err != nil {
			return fmt.Errorf("failed to create index on %s: %w", idx.coll.Name(), err)
		}
	}
	return nil
}

func (m *Mongo) Close() error {
	return m.client.Disconnect(context.Background())
}

func insertErr(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}

func findErr(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

func replace(ctx context.Context, coll *mongo.Collection, id string, doc any) error {
	res, err := coll.ReplaceOne(ctx, bson.D{{Key: "_id", Value: id}}, doc)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func remove(ctx context.Context, coll *mongo.Collection, id string) error {
	res, err := coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *Mongo) CreateUser(ctx context.Context, u *types.User) error {
	_, err := m.users.InsertOne(ctx, u)
	return insertErr(err)
}

func (m *Mongo) findUser(ctx context.Context, filter bson.D) (*types.User, error) {
	var u types.User
	if err := m.users.FindOne(ctx, filter).Decode(&u); err != nil {
		return nil, findErr(err)
	}
	return &u, nil
}

func (m *Mongo) GetUser(ctx context.Context, id string) (*types.User, error) {
	return m.findUser(ctx, bson.D{{Key: "_id", Value: id}})
}

func (m *Mongo) GetUserByEmail(ctx context.Context, email string) (*types.User, error) {
	return m.findUser(ctx, bson.D{{Key: "email", Value: email}})
}

func (m *Mongo) GetUserByTokenHash(ctx context.Context, hash string) (*types.User, error) {
	if hash == "" {
		return nil, ErrNotFound
	}
	return m.findUser(ctx, bson.D{{Key: "tokenHash", Value: hash}})
}

func (m *Mongo) GetUserByAPIKeyHash(ctx context.Context, hash string) (*types.User, error) {
	if hash == "" {
		return nil, ErrNotFound
	}
	return m.findUser(ctx, bson.D{{Key: "apiKeyHash", Value: hash}})
}

func (m *Mongo) UpdateUser(ctx context.Context, u *types.User) error {
	return replace(ctx, m.users, u.ID, u)
}

func (m *Mongo) IncrementUsage(ctx context.Context, id string, datasets, apiCalls int, lastCall *time.Time) error {
	update := bson.D{{Key: "$inc", Value: bson.D{
		{Key: "usage.datasetsCreated", Value: datasets},
		{Key: "usage.apiCallsMade", Value: apiCalls},
	}}}
	if lastCall != nil {
		update = append(update, bson.E{Key: "$set", Value: bson.D{{Key: "usage.lastApiCall", Value: *lastCall}}})
	}

	res, err := m.users.UpdateOne(ctx, bson.D{{Key: "_id", Value: id}}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *Mongo) CreateSchema(ctx context.Context, s *types.Schema) error {
	_, err := m.schemas.InsertOne(ctx, s)
	return insertErr(err)
}

func (m *Mongo) GetSchema(ctx context.Context, id string) (*types.Schema, error) {
	var s types.Schema
	if err := m.schemas.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&s); err != nil {
		return nil, findErr(err)
	}
	return &s, nil
}

func (m *Mongo) ListSchemas(ctx context.Context, userID string) ([]*types.Schema, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := m.schemas.Find(ctx, bson.D{{Key: "userId", Value: userID}}, opts)
	if err != nil {
		return nil, err
	}
	list := []*types.Schema{}
	if err := cur.All(ctx, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (m *Mongo) CountSchemas(ctx context.Context, userID string) (int, error) {
	n, err := m.schemas.CountDocuments(ctx, bson.D{{Key: "userId", Value: userID}})
	return int(n), err
}

func (m *Mongo) UpdateSchema(ctx context.Context, s *types.Schema) error {
	return replace(ctx, m.schemas, s.ID, s)
}

func (m *Mongo) DeleteSchema(ctx context.Context, id string) error {
	return remove(ctx, m.schemas, id)
}

// datasetDoc is the stored shape of a dataset: metadata inline, records as
// ordered documents.
type datasetDoc struct {
	types.Dataset `bson:",inline"`
	Records       []bson.D `bson:"data,omitempty"`
}

func toDatasetDoc(d *types.Dataset) datasetDoc {
	doc := datasetDoc{Dataset: d.Summary()}
	if d.Data != nil {
		doc.Records = make([]bson.D, len(d.Data))
		for i, rec := range d.Data {
			keys := rec.Keys()
			row := make(bson.D, 0, len(keys))
			for _, k := range keys {
				v, _ := rec.Get(k)
				row = append(row, bson.E{Key: k, Value: v})
			}
			doc.Records[i] = row
		}
	}
	return doc
}

func (doc datasetDoc) dataset() *types.Dataset {
	d := doc.Dataset
	if doc.Records != nil {
		d.Data = make([]generator.Record, len(doc.Records))
		for i, row := range doc.Records {
			var rec generator.Record
			for _, e := range row {
				rec.Set(e.Key, fromBSON(e.Value))
			}
			d.Data[i] = rec
		}
	}
	return &d
}

// fromBSON maps decoded BSON values back onto the value set records use.
func fromBSON(v any) any {
	switch x := v.(type) {
	case bson.DateTime:
		return x.Time().UTC()
	case int32:
		return int64(x)
	case bson.D:
		m := make(map[string]any, len(x))
		for _, e := range x {
			m[e.Key] = fromBSON(e.Value)
		}
		return m
	case bson.M:
		m := make(map[string]any, len(x))
		for k, item := range x {
			m[k] = fromBSON(item)
		}
		return m
	case bson.A:
		list := make([]any, len(x))
		for i, item := range x {
			list[i] = fromBSON(item)
		}
		return list
	default:
		return v
	}
}

func (m *Mongo) CreateDataset(ctx context.Context, d *types.Dataset) error {
	_, err := m.datasets.InsertOne(ctx, toDatasetDoc(d))
	return insertErr(err)
}

func (m *Mongo) GetDataset(ctx context.Context, id string) (*types.Dataset, error) {
	var doc datasetDoc
	if err := m.datasets.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&doc); err != nil {
		return nil, findErr(err)
	}
	return doc.dataset(), nil
}

func (m *Mongo) ListDatasets(ctx context.Context, userID string) ([]*types.Dataset, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "generatedAt", Value: -1}}).
		SetProjection(bson.D{{Key: "data", Value: 0}})
	cur, err := m.datasets.Find(ctx, bson.D{{Key: "userId", Value: userID}}, opts)
	if err != nil {
		return nil, err
	}
	list := []*types.Dataset{}
	if err := cur.All(ctx, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (m *Mongo) CountDatasets(ctx context.Context, userID, schemaID string) (int, error) {
	n, err := m.datasets.CountDocuments(ctx, bson.D{
		{Key: "userId", Value: userID},
		{Key: "schemaId", Value: schemaID},
	})
	return int(n), err
}

func (m *Mongo) UpdateDataset(ctx context.Context, d *types.Dataset) error {
	return replace(ctx, m.datasets, d.ID, toDatasetDoc(d))
}

func (m *Mongo) DeleteDataset(ctx context.Context, id string) error {
	return remove(ctx, m.datasets, id)
}
