// Package mongo adapts MongoDB to the store.Store document interface.
//
// Nested collection paths ("users/{id}/customExercises") are flattened
// into one MongoDB collection per path shape, with the parent document
// id kept in a "_parent" field that never leaves this package. Live
// subscriptions are backed by change streams, which require the server
// to run as a replica set.
package mongo

import (
	"context"
	"strings"
	"sync"
	"time"

	"gymsocial/internal/store"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const parentField = "_parent"

type mongoStore struct {
	db *mongo.Database
}

// NewStore wraps a mongo database as a store.Store.
func NewStore(db *mongo.Database) store.Store {
	return &mongoStore{db: db}
}

// target resolves a collection path to the backing mongo collection
// and the parent filter for nested paths.
type target struct {
	coll   *mongo.Collection
	parent string // empty for root collections
}

func (s *mongoStore) resolve(path string) target {
	segments := strings.Split(path, "/")
	if len(segments) < 3 {
		return target{coll: s.db.Collection(segments[0])}
	}
	// users/{id}/customExercises -> collection "users_customExercises"
	return target{
		coll:   s.db.Collection(segments[0] + "_" + segments[2]),
		parent: segments[1],
	}
}

func (s *mongoStore) Get(ctx context.Context, collection, id string) (store.Snapshot, error) {
	t := s.resolve(collection)
	filter := bson.M{"_id": id}
	if t.parent != "" {
		filter[parentField] = t.parent
	}
	var raw bson.M
	if err := t.coll.FindOne(ctx, filter).Decode(&raw); err != nil {
		if err == mongo.ErrNoDocuments {
			return store.Snapshot{}, store.ErrNotFound
		}
		return store.Snapshot{}, err
	}
	return toSnapshot(raw), nil
}

func (s *mongoStore) Query(ctx context.Context, q store.Query) ([]store.Snapshot, error) {
	if len(q.InValues) > store.MaxInValues {
		return nil, store.ErrTooManyInValues
	}
	t := s.resolve(q.Collection)

	cursor, err := t.coll.Find(ctx, buildFilter(t, q), buildFindOptions(q))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var raws []bson.M
	if err := cursor.All(ctx, &raws); err != nil {
		return nil, err
	}
	snapshots := make([]store.Snapshot, 0, len(raws))
	for _, raw := range raws {
		snapshots = append(snapshots, toSnapshot(raw))
	}
	return snapshots, nil
}

func (s *mongoStore) Insert(ctx context.Context, collection string, doc store.Document) (string, error) {
	t := s.resolve(collection)
	id := primitive.NewObjectID().Hex()
	stored := toBSON(doc)
	stored["_id"] = id
	if t.parent != "" {
		stored[parentField] = t.parent
	}
	if _, err := t.coll.InsertOne(ctx, stored); err != nil {
		return "", err
	}
	return id, nil
}

func (s *mongoStore) Set(ctx context.Context, collection, id string, doc store.Document, merge bool) error {
	t := s.resolve(collection)
	stored := toBSON(doc)
	if t.parent != "" {
		stored[parentField] = t.parent
	}
	filter := bson.M{"_id": id}
	if merge {
		update := bson.M{"$set": stored}
		_, err := t.coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
		return err
	}
	stored["_id"] = id
	_, err := t.coll.ReplaceOne(ctx, filter, stored, options.Replace().SetUpsert(true))
	return err
}

func (s *mongoStore) Delete(ctx context.Context, collection, id string) error {
	t := s.resolve(collection)
	filter := bson.M{"_id": id}
	if t.parent != "" {
		filter[parentField] = t.parent
	}
	result, err := t.coll.DeleteOne(ctx, filter)
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Subscribe delivers the query's full result set on attach and again
// after every change-stream event on the backing collection. Requery
// on event keeps the delivery shape identical to the memory store and
// sidesteps partial-update bookkeeping.
func (s *mongoStore) Subscribe(ctx context.Context, q store.Query, h store.Handler) (store.CancelFunc, error) {
	if len(q.InValues) > store.MaxInValues {
		return nil, store.ErrTooManyInValues
	}
	t := s.resolve(q.Collection)

	streamCtx, cancelStream := context.WithCancel(ctx)
	stream, err := t.coll.Watch(streamCtx, mongo.Pipeline{})
	if err != nil {
		cancelStream()
		return nil, err
	}

	deliver := func() {
		snapshots, err := s.Query(streamCtx, q)
		if err != nil {
			if streamCtx.Err() == nil {
				log.Errorf("subscription requery on %s: %s", q.Collection, err)
			}
			return
		}
		h(snapshots)
	}

	go func() {
		defer stream.Close(context.Background())
		deliver()
		for stream.Next(streamCtx) {
			deliver()
		}
		if err := stream.Err(); err != nil && streamCtx.Err() == nil {
			log.Errorf("change stream on %s closed: %s", q.Collection, err)
		}
	}()

	var once sync.Once
	return func() { once.Do(cancelStream) }, nil
}

func buildFilter(t target, q store.Query) bson.M {
	filter := bson.M{}
	if t.parent != "" {
		filter[parentField] = t.parent
	}
	for field, want := range q.Eq {
		filter[field] = want
	}
	if q.InField != "" {
		filter[q.InField] = bson.M{"$in": q.InValues}
	}
	if q.PrefixField != "" {
		// Prefix match as a half-open range, the way key-ordered
		// document stores express it.
		filter[q.PrefixField] = bson.M{
			"$gte": q.Prefix,
			"$lt":  q.Prefix + "￿",
		}
	}
	return filter
}

func buildFindOptions(q store.Query) *options.FindOptions {
	opts := options.Find()
	if q.OrderBy != "" {
		dir := 1
		if q.Descending {
			dir = -1
		}
		opts.SetSort(bson.D{{Key: q.OrderBy, Value: dir}})
	}
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}
	return opts
}

// toSnapshot converts a decoded bson document into the store's
// normalized shape: bson maps become plain maps, bson arrays become
// []any, date values become time.Time.
func toSnapshot(raw bson.M) store.Snapshot {
	id, _ := raw["_id"].(string)
	data := make(store.Document, len(raw))
	for k, v := range raw {
		if k == "_id" || k == parentField {
			continue
		}
		data[k] = fromBSONValue(v)
	}
	return store.Snapshot{ID: id, Data: data}
}

func fromBSONValue(v any) any {
	switch tv := v.(type) {
	case bson.M:
		out := make(store.Document, len(tv))
		for k, e := range tv {
			out[k] = fromBSONValue(e)
		}
		return out
	case bson.D:
		out := make(store.Document, len(tv))
		for _, e := range tv {
			out[e.Key] = fromBSONValue(e.Value)
		}
		return out
	case primitive.A:
		out := make([]any, len(tv))
		for i, e := range tv {
			out[i] = fromBSONValue(e)
		}
		return out
	case primitive.DateTime:
		return tv.Time().UTC()
	case int32:
		return int(tv)
	default:
		return v
	}
}

// toBSON prepares a store document for writing: nested documents and
// slices are converted element-wise, ServerTimestamp sentinels are
// stamped with the write time.
func toBSON(doc store.Document) bson.M {
	out := make(bson.M, len(doc))
	for k, v := range doc {
		out[k] = toBSONValue(v)
	}
	return out
}

func toBSONValue(v any) any {
	if v == store.ServerTimestamp {
		return time.Now().UTC()
	}
	switch tv := v.(type) {
	case store.Document:
		return toBSON(tv)
	case []any:
		out := make(bson.A, len(tv))
		for i, e := range tv {
			out[i] = toBSONValue(e)
		}
		return out
	default:
		return v
	}
}
