package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"iuem_fetcher/internal/domain"
)

const (
	postsCollection    = "posts"
	runStateCollection = "run_state"
)

type Store struct {
	client   *mongo.Client
	posts    *mongo.Collection
	runState *mongo.Collection
}

func Open(ctx context.Context, uri, database string) (*Store, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	db := client.Database(database)
	s := &Store{
		client:   client,
		posts:    db.Collection(postsCollection),
		runState: db.Collection(runStateCollection),
	}

	_, err = s.posts.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "category", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "source", Value: 1}}},
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("create indexes: %w", err)
	}

	return s, nil
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// UpsertBatch sends one ordered bulk write per batch. Supplied fields are
// $set, createdAt is only written when the document is inserted.
func (s *Store) UpsertBatch(ctx context.Context, posts []domain.Post) error {
	if len(posts) == 0 {
		return nil
	}

	models := make([]mongo.WriteModel, 0, len(posts))
	for _, p := range posts {
		fields, err := p.Fields()
		if err != nil {
			return fmt.Errorf("encode post %s: %w", p.ID, err)
		}
		fields["updatedAt"] = p.UpdatedAt

		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": p.ID}).
			SetUpdate(bson.M{
				"$set":         fields,
				"$setOnInsert": bson.M{"createdAt": p.CreatedAt},
			}).
			SetUpsert(true))
	}

	if _, err := s.posts.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(true)); err != nil {
		return fmt.Errorf("bulk upsert: %w", err)
	}
	return nil
}

func (s *Store) DeleteBatch(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := s.posts.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}}); err != nil {
		return fmt.Errorf("delete posts: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*domain.Post, error) {
	var p domain.Post
	err := s.posts.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) Find(ctx context.Context, q domain.Query) ([]domain.Post, error) {
	filter := bson.M{}
	if q.Category != "" {
		filter["category"] = q.Category
	}
	if q.Source != "" {
		filter["source"] = q.Source
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}

	cursor, err := s.posts.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}

	var posts []domain.Post
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, fmt.Errorf("decode posts: %w", err)
	}
	return posts, nil
}

func (s *Store) GetRunState(ctx context.Context, source string) (*domain.RunState, error) {
	var state domain.RunState
	err := s.runState.FindOne(ctx, bson.M{"_id": source}).Decode(&state)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return &domain.RunState{Source: source}, nil
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func (s *Store) UpdateRunState(ctx context.Context, state *domain.RunState) error {
	_, err := s.runState.ReplaceOne(ctx,
		bson.M{"_id": state.Source},
		state,
		options.Replace().SetUpsert(true),
	)
	return err
}
