package docstore

import (
	"context"
	"fmt"
	"time"

	"github.com/civicdeck/backend/internal/common"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore implements Store on top of a MongoDB database. Documents are
// stored with the application id as _id; the data map is stored as the
// document body.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoStore connects to MongoDB, pings it, and returns a store bound to
// the named database.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return &MongoStore{client: client, db: client.Database(database)}, nil
}

// NewMongoStoreFromClient wraps an already connected client. Used by tests
// and by callers that manage the client lifecycle themselves.
func NewMongoStoreFromClient(client *mongo.Client, database string) *MongoStore {
	return &MongoStore{client: client, db: client.Database(database)}
}

// Close disconnects the underlying client.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) Collection(name string) Collection {
	return &mongoCollection{col: s.db.Collection(name)}
}

func (s *MongoStore) NewBatch() Batch {
	return &mongoBatch{store: s}
}

// RunTransaction runs fn inside a session transaction. The driver retries
// the callback on transient transaction errors, which supplies the
// optimistic-concurrency retry the model layer relies on.
func (s *MongoStore) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	sess, err := s.client.StartSession()
	if err != nil {
		return common.WrapStorage("start session", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		tx := &mongoTx{store: s}
		if err := fn(sc, tx); err != nil {
			return nil, err
		}
		return nil, tx.apply(sc)
	})
	return err
}

type mongoCollection struct {
	col *mongo.Collection
}

func (c *mongoCollection) Name() string { return c.col.Name() }

func (c *mongoCollection) NewID() string { return uuid.NewString() }

func (c *mongoCollection) Get(ctx context.Context, id string) (*Doc, error) {
	var raw bson.M
	err := c.col.FindOne(ctx, bson.M{"_id": id}).Decode(&raw)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, common.WrapStorage("get "+c.Name(), err)
	}
	return docFromRaw(id, raw), nil
}

func (c *mongoCollection) Set(ctx context.Context, id string, data map[string]any) error {
	_, err := c.col.ReplaceOne(ctx, bson.M{"_id": id}, bson.M(data), options.Replace().SetUpsert(true))
	if err != nil {
		return common.WrapStorage("set "+c.Name(), err)
	}
	return nil
}

func (c *mongoCollection) MergeSet(ctx context.Context, id string, data map[string]any) error {
	_, err := c.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M(data)}, options.Update().SetUpsert(true))
	if err != nil {
		return common.WrapStorage("merge set "+c.Name(), err)
	}
	return nil
}

func (c *mongoCollection) Delete(ctx context.Context, id string) error {
	_, err := c.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return common.WrapStorage("delete "+c.Name(), err)
	}
	return nil
}

func (c *mongoCollection) Query(ctx context.Context, q Query) ([]*Doc, error) {
	filter := bson.M{}
	for _, w := range q.Where {
		expr, err := whereExpr(w)
		if err != nil {
			return nil, err
		}
		filter[mongoField(w.Field)] = expr
	}

	opts := options.Find()
	if len(q.OrderBy) > 0 {
		sort := bson.D{}
		for _, o := range q.OrderBy {
			dir := 1
			if o.Desc {
				dir = -1
			}
			sort = append(sort, bson.E{Key: mongoField(o.Field), Value: dir})
		}
		opts.SetSort(sort)

		// StartAfter is emulated as an exclusive range bound on the first
		// sort key; compound cursors are not supported by this driver.
		if len(q.StartAfter) > 0 {
			first := q.OrderBy[0]
			op := "$gt"
			if first.Desc {
				op = "$lt"
			}
			filter[mongoField(first.Field)] = bson.M{op: q.StartAfter[0]}
		}
		if q.Limit > 0 {
			opts.SetLimit(int64(q.Limit))
		}
	}

	cur, err := c.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, common.WrapStorage("query "+c.Name(), err)
	}
	defer cur.Close(ctx)

	var docs []*Doc
	for cur.Next(ctx) {
		var raw bson.M
		if err := cur.Decode(&raw); err != nil {
			return nil, common.WrapStorage("decode "+c.Name(), err)
		}
		id, _ := raw["_id"].(string)
		docs = append(docs, docFromRaw(id, raw))
	}
	if err := cur.Err(); err != nil {
		return nil, common.WrapStorage("query "+c.Name(), err)
	}
	return docs, nil
}

// whereExpr maps a driver-neutral operator to its bson expression.
//
// array-contains relies on MongoDB equality semantics: an equality match on
// an array field matches documents whose array contains the value.
func whereExpr(w Where) (any, error) {
	switch w.Op {
	case "==", "array-contains":
		return w.Value, nil
	case "!=":
		return bson.M{"$ne": w.Value}, nil
	case "<":
		return bson.M{"$lt": w.Value}, nil
	case "<=":
		return bson.M{"$lte": w.Value}, nil
	case ">":
		return bson.M{"$gt": w.Value}, nil
	case ">=":
		return bson.M{"$gte": w.Value}, nil
	case "in":
		return bson.M{"$in": w.Value}, nil
	default:
		return nil, fmt.Errorf("unsupported query operator %q", w.Op)
	}
}

// mongoField maps the application-level id field to the document identity.
func mongoField(f string) string {
	if f == "id" {
		return "_id"
	}
	return f
}

func docFromRaw(id string, raw bson.M) *Doc {
	data := make(map[string]any, len(raw))
	for k, v := range raw {
		if k == "_id" {
			continue
		}
		data[k] = v
	}
	return &Doc{ID: id, Data: data}
}

type stagedWrite struct {
	collection string
	id         string
	data       map[string]any
	merge      bool
}

// mongoBatch stages writes and commits them inside one transaction, which
// gives the all-or-nothing guarantee batches promise.
type mongoBatch struct {
	store  *MongoStore
	writes []stagedWrite
}

func (b *mongoBatch) Set(collection, id string, data map[string]any) {
	b.writes = append(b.writes, stagedWrite{collection: collection, id: id, data: data})
}

func (b *mongoBatch) MergeSet(collection, id string, data map[string]any) {
	b.writes = append(b.writes, stagedWrite{collection: collection, id: id, data: data, merge: true})
}

func (b *mongoBatch) Commit(ctx context.Context) error {
	return b.store.RunTransaction(ctx, func(ctx context.Context, tx Tx) error {
		t := tx.(*mongoTx)
		t.writes = append(t.writes, b.writes...)
		return nil
	})
}

type mongoTx struct {
	store  *MongoStore
	writes []stagedWrite
}

func (t *mongoTx) Get(ctx context.Context, collection, id string) (*Doc, error) {
	return t.store.Collection(collection).Get(ctx, id)
}

func (t *mongoTx) MergeSet(collection, id string, data map[string]any) {
	t.writes = append(t.writes, stagedWrite{collection: collection, id: id, data: data, merge: true})
}

func (t *mongoTx) apply(ctx context.Context) error {
	for _, w := range t.writes {
		col := t.store.Collection(w.collection)
		var err error
		if w.merge {
			err = col.MergeSet(ctx, w.id, w.data)
		} else {
			err = col.Set(ctx, w.id, w.data)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
