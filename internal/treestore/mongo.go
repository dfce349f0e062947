package treestore

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore implements Store on MongoDB. The first path segment selects a
// collection, the second the document _id, and deeper segments address
// fields inside the document's "value" via dot notation. Subscriptions use
// change streams, so this backend requires a replica set.
type MongoStore struct {
	db *mongo.Database
}

// NewMongoStore creates a MongoStore on the given database.
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{db: db}
}

type mongoNode struct {
	ID    string      `bson:"_id"`
	Value interface{} `bson:"value"`
}

// addr breaks a tree path into collection, document id and field segments.
func addr(path string) (coll, id string, fields []string, err error) {
	segs := splitPath(path)
	if len(segs) == 0 {
		return "", "", nil, fmt.Errorf("empty tree path")
	}
	coll = segs[0]
	if len(segs) > 1 {
		id = segs[1]
	}
	if len(segs) > 2 {
		fields = segs[2:]
	}
	return coll, id, fields, nil
}

func fieldPath(fields []string) string {
	return "value." + strings.Join(fields, ".")
}

// bsonToPlain rewrites bson.D/bson.M/bson.A values into plain maps and
// slices so they JSON-encode the same way every other backend does.
func bsonToPlain(v interface{}) interface{} {
	switch t := v.(type) {
	case bson.D:
		m := make(map[string]interface{}, len(t))
		for _, e := range t {
			m[e.Key] = bsonToPlain(e.Value)
		}
		return m
	case bson.M:
		m := make(map[string]interface{}, len(t))
		for k, val := range t {
			m[k] = bsonToPlain(val)
		}
		return m
	case bson.A:
		a := make([]interface{}, len(t))
		for i, val := range t {
			a[i] = bsonToPlain(val)
		}
		return a
	default:
		return v
	}
}

// Get implements Store.
func (s *MongoStore) Get(ctx context.Context, path string, v interface{}) error {
	node, err := s.read(ctx, path)
	if err != nil {
		return err
	}
	return decodeInto(node, v)
}

// read returns the raw value at path, nil when missing.
func (s *MongoStore) read(ctx context.Context, path string) (interface{}, error) {
	coll, id, fields, err := addr(path)
	if err != nil {
		return nil, err
	}
	if id == "" {
		cursor, err := s.db.Collection(coll).Find(ctx, bson.M{})
		if err != nil {
			return nil, err
		}
		defer cursor.Close(ctx)
		result := make(map[string]interface{})
		for cursor.Next(ctx) {
			var node mongoNode
			if err := cursor.Decode(&node); err != nil {
				return nil, err
			}
			result[node.ID] = bsonToPlain(node.Value)
		}
		if err := cursor.Err(); err != nil {
			return nil, err
		}
		if len(result) == 0 {
			return nil, nil
		}
		return result, nil
	}

	var node mongoNode
	err = s.db.Collection(coll).FindOne(ctx, bson.M{"_id": id}).Decode(&node)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	value := bsonToPlain(node.Value)
	for _, seg := range fields {
		m, ok := value.(map[string]interface{})
		if !ok {
			return nil, nil
		}
		value = m[seg]
	}
	return value, nil
}

// Set implements Store.
func (s *MongoStore) Set(ctx context.Context, path string, v interface{}) error {
	value, err := normalize(v)
	if err != nil {
		return err
	}
	coll, id, fields, err := addr(path)
	if err != nil {
		return err
	}
	if id == "" {
		return fmt.Errorf("cannot set collection-level path %q", path)
	}
	opts := options.Update().SetUpsert(true)
	if len(fields) == 0 {
		_, err = s.db.Collection(coll).UpdateOne(ctx, bson.M{"_id": id},
			bson.M{"$set": bson.M{"value": value}}, opts)
		return err
	}
	_, err = s.db.Collection(coll).UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{fieldPath(fields): value}}, opts)
	return err
}

// Update implements Store.
func (s *MongoStore) Update(ctx context.Context, path string, values map[string]interface{}) error {
	base := strings.Trim(path, "/")
	for child, v := range values {
		if err := s.Set(ctx, base+"/"+child, v); err != nil {
			return err
		}
	}
	return nil
}

// Delete implements Store.
func (s *MongoStore) Delete(ctx context.Context, path string) error {
	coll, id, fields, err := addr(path)
	if err != nil {
		return err
	}
	switch {
	case id == "":
		_, err = s.db.Collection(coll).DeleteMany(ctx, bson.M{})
	case len(fields) == 0:
		_, err = s.db.Collection(coll).DeleteOne(ctx, bson.M{"_id": id})
	default:
		_, err = s.db.Collection(coll).UpdateOne(ctx, bson.M{"_id": id},
			bson.M{"$unset": bson.M{fieldPath(fields): ""}})
	}
	return err
}

// Push implements Store. Mongo has no server-generated ordered keys, so the
// key comes from the shared push-ID generator.
func (s *MongoStore) Push(ctx context.Context, path string, v interface{}) (string, error) {
	key := NewPushID()
	if err := s.Set(ctx, strings.Trim(path, "/")+"/"+key, v); err != nil {
		return "", err
	}
	return key, nil
}

// QueryEqual implements Store.
func (s *MongoStore) QueryEqual(ctx context.Context, path, child string, value interface{}, v interface{}) error {
	want, err := normalize(value)
	if err != nil {
		return err
	}
	coll, id, _, err := addr(path)
	if err != nil {
		return err
	}
	if id != "" {
		return fmt.Errorf("child queries are only supported at collection level, got %q", path)
	}
	field := "value." + strings.ReplaceAll(strings.Trim(child, "/"), "/", ".")
	cursor, err := s.db.Collection(coll).Find(ctx, bson.M{field: want})
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)
	result := make(map[string]interface{})
	for cursor.Next(ctx) {
		var node mongoNode
		if err := cursor.Decode(&node); err != nil {
			return err
		}
		result[node.ID] = bsonToPlain(node.Value)
	}
	if err := cursor.Err(); err != nil {
		return err
	}
	return decodeInto(result, v)
}

type mongoSub struct {
	cancel context.CancelFunc
	once   sync.Once
}

// Close implements Subscription.
func (sub *mongoSub) Close() {
	sub.once.Do(sub.cancel)
}

// Subscribe implements Store with a change stream on the path's collection,
// re-reading the full value at the path after every relevant event.
func (s *MongoStore) Subscribe(ctx context.Context, path string, fn SnapshotFunc) (Subscription, error) {
	coll, id, _, err := addr(path)
	if err != nil {
		return nil, err
	}
	pipeline := mongo.Pipeline{}
	if id != "" {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: bson.M{"documentKey._id": id}}})
	}

	subCtx, cancel := context.WithCancel(context.Background())
	stream, err := s.db.Collection(coll).Watch(subCtx, pipeline)
	if err != nil {
		cancel()
		return nil, err
	}
	sub := &mongoSub{cancel: cancel}

	go func() {
		defer stream.Close(context.Background())
		fn(s.snapshotJSON(subCtx, path))
		for stream.Next(subCtx) {
			fn(s.snapshotJSON(subCtx, path))
		}
		if err := stream.Err(); err != nil && subCtx.Err() == nil {
			log.Printf("treestore: change stream on %s ended: %v", path, err)
		}
	}()
	return sub, nil
}

func (s *MongoStore) snapshotJSON(ctx context.Context, path string) []byte {
	node, err := s.read(ctx, path)
	if err != nil {
		log.Printf("treestore: snapshot read of %s failed: %v", path, err)
		return []byte("null")
	}
	data, err := json.Marshal(node)
	if err != nil {
		return []byte("null")
	}
	return data
}
