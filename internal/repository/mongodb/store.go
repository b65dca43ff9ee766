// Package mongodb stores daily snapshots in three MongoDB collections. Writes
// run in multi-document transactions, so the server must be a replica set.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
	"go.uber.org/zap"

	"github.com/mamadbah2/flocktracker/internal/domain/models"
	"github.com/mamadbah2/flocktracker/internal/repository"
)

const (
	countsCollection    = "daily_counts"
	breedersCollection  = "breeders"
	juvenilesCollection = "juveniles"
)

type dailyCountDoc struct {
	ID        string    `bson:"_id"`
	Date      string    `bson:"date"`
	Breed     string    `bson:"breed"`
	Stage     string    `bson:"stage"`
	Count     int64     `bson:"count"`
	CreatedAt time.Time `bson:"created_at"`
}

type breedersDoc struct {
	ID              string `bson:"_id"`
	DailyCountID    string `bson:"daily_count_id"`
	models.Breeders `bson:",inline"`
}

type juvenilesDoc struct {
	ID              string `bson:"_id"`
	DailyCountID    string `bson:"daily_count_id"`
	models.Juvenile `bson:",inline"`
}

// Store implements repository.Store on MongoDB.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	now    func() time.Time
	logger *zap.Logger
}

// NewStore connects to uri, verifies the connection and creates the indexes.
func NewStore(ctx context.Context, uri, dbName string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	s := &Store{client: client, db: client.Database(dbName), now: time.Now, logger: logger}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	logger.Info("mongodb store ready", zap.String("database", dbName))
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.db.Collection(countsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "date", Value: 1},
			{Key: "breed", Value: 1},
			{Key: "stage", Value: 1},
		},
		Options: options.Index().SetUnique(true).SetName("date_breed_stage"),
	})
	if err != nil {
		return fmt.Errorf("failed to create daily count index: %w", err)
	}

	for _, name := range []string{breedersCollection, juvenilesCollection} {
		_, err := s.db.Collection(name).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    bson.D{{Key: "daily_count_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("daily_count_id"),
		})
		if err != nil {
			return fmt.Errorf("failed to create %s index: %w", name, err)
		}
	}
	return nil
}

func (s *Store) ReplaceDay(ctx context.Context, date models.Date, rows []models.DailyCount) ([]string, error) {
	prepared, err := repository.Prepare(date, rows, s.now())
	if err != nil {
		return nil, err
	}

	var counts, breeders, juveniles []interface{}
	ids := make([]string, 0, len(prepared))
	for _, r := range prepared {
		counts = append(counts, dailyCountDoc{
			ID: r.ID, Date: string(r.Date), Breed: r.Breed, Stage: r.Stage,
			Count: int64(r.Count), CreatedAt: r.CreatedAt,
		})
		if r.Breeders != nil {
			breeders = append(breeders, breedersDoc{ID: repository.NewID(), DailyCountID: r.ID, Breeders: *r.Breeders})
		}
		if r.Juveniles != nil {
			juveniles = append(juveniles, juvenilesDoc{ID: repository.NewID(), DailyCountID: r.ID, Juvenile: *r.Juveniles})
		}
		ids = append(ids, r.ID)
	}

	err = s.inTransaction(ctx, func(sc mongo.SessionContext) error {
		old, err := s.db.Collection(countsCollection).Distinct(sc, "_id", bson.M{"date": string(date)})
		if err != nil {
			return fmt.Errorf("list day rows: %w", err)
		}
		if len(old) > 0 {
			children := bson.M{"daily_count_id": bson.M{"$in": old}}
			if _, err := s.db.Collection(breedersCollection).DeleteMany(sc, children); err != nil {
				return fmt.Errorf("delete breeders: %w", err)
			}
			if _, err := s.db.Collection(juvenilesCollection).DeleteMany(sc, children); err != nil {
				return fmt.Errorf("delete juveniles: %w", err)
			}
			if _, err := s.db.Collection(countsCollection).DeleteMany(sc, bson.M{"date": string(date)}); err != nil {
				return fmt.Errorf("delete day: %w", err)
			}
		}

		for name, docs := range map[string][]interface{}{
			countsCollection:    counts,
			breedersCollection:  breeders,
			juvenilesCollection: juveniles,
		} {
			if len(docs) == 0 {
				continue
			}
			if _, err := s.db.Collection(name).InsertMany(sc, docs); err != nil {
				return fmt.Errorf("insert %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, repository.Fail("replace day", err)
	}
	return ids, nil
}

func (s *Store) Range(ctx context.Context, q models.RangeQuery) ([]models.DailyCount, error) {
	filter := bson.M{"date": bson.M{"$gte": string(q.Start), "$lte": string(q.End)}}
	if q.Breed != "" {
		filter["breed"] = q.Breed
	}
	var rows []models.DailyCount
	err := s.inTransaction(ctx, func(sc mongo.SessionContext) error {
		var err error
		rows, err = s.find(sc, filter)
		return err
	})
	if err != nil {
		return nil, repository.Fail("query range", err)
	}
	return rows, nil
}

func (s *Store) Latest(ctx context.Context) ([]models.DailyCount, error) {
	var rows []models.DailyCount
	err := s.inTransaction(ctx, func(sc mongo.SessionContext) error {
		date, err := s.latestDate(sc)
		if err != nil {
			return err
		}
		rows, err = s.find(sc, bson.M{"date": string(date)})
		return err
	})
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, repository.Fail("query latest", err)
	}
	return rows, nil
}

func (s *Store) Get(ctx context.Context, id string) (models.DailyCount, error) {
	var rows []models.DailyCount
	err := s.inTransaction(ctx, func(sc mongo.SessionContext) error {
		var err error
		rows, err = s.find(sc, bson.M{"_id": id})
		return err
	})
	if err != nil {
		return models.DailyCount{}, repository.Fail("get daily count", err)
	}
	if len(rows) == 0 {
		return models.DailyCount{}, repository.ErrNotFound
	}
	return rows[0], nil
}

func (s *Store) LatestDate(ctx context.Context) (models.Date, error) {
	date, err := s.latestDate(ctx)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return "", repository.Fail("query latest date", err)
	}
	return date, err
}

func (s *Store) DeleteAll(ctx context.Context) (int, error) {
	var n int64
	err := s.inTransaction(ctx, func(sc mongo.SessionContext) error {
		for _, name := range []string{breedersCollection, juvenilesCollection} {
			if _, err := s.db.Collection(name).DeleteMany(sc, bson.M{}); err != nil {
				return fmt.Errorf("delete %s: %w", name, err)
			}
		}
		res, err := s.db.Collection(countsCollection).DeleteMany(sc, bson.M{})
		if err != nil {
			return fmt.Errorf("delete %s: %w", countsCollection, err)
		}
		n = res.DeletedCount
		return nil
	})
	if err != nil {
		return 0, repository.Fail("delete all", err)
	}
	s.logger.Info("deleted all snapshots", zap.Int64("rows", n))
	return int(n), nil
}

// Close closes the MongoDB connection.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) inTransaction(ctx context.Context, fn func(sc mongo.SessionContext) error) error {
	sess, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(ctx)

	// Snapshot reads so a transaction never sees half of a concurrent write.
	opts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())
	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	}, opts)
	return err
}

func (s *Store) latestDate(ctx context.Context) (models.Date, error) {
	var doc dailyCountDoc
	opts := options.FindOne().SetSort(bson.D{{Key: "date", Value: -1}})
	err := s.db.Collection(countsCollection).FindOne(ctx, bson.M{}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", repository.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("find latest: %w", err)
	}
	return models.Date(doc.Date), nil
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.DailyCount, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "date", Value: 1},
		{Key: "breed", Value: 1},
		{Key: "stage", Value: 1},
	})
	cur, err := s.db.Collection(countsCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find daily counts: %w", err)
	}
	var docs []dailyCountDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode daily counts: %w", err)
	}
	if len(docs) == 0 {
		return nil, nil
	}

	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	children := bson.M{"daily_count_id": bson.M{"$in": ids}}

	var bdocs []breedersDoc
	if err := s.findAll(ctx, breedersCollection, children, &bdocs); err != nil {
		return nil, err
	}
	var jdocs []juvenilesDoc
	if err := s.findAll(ctx, juvenilesCollection, children, &jdocs); err != nil {
		return nil, err
	}

	breeders := make(map[string]models.Breeders, len(bdocs))
	for _, b := range bdocs {
		breeders[b.DailyCountID] = b.Breeders
	}
	juveniles := make(map[string]models.Juvenile, len(jdocs))
	for _, j := range jdocs {
		juveniles[j.DailyCountID] = j.Juvenile
	}

	out := make([]models.DailyCount, 0, len(docs))
	for _, d := range docs {
		r := models.DailyCount{
			ID: d.ID, Date: models.Date(d.Date), Breed: d.Breed, Stage: d.Stage,
			Count: models.Count(d.Count), CreatedAt: d.CreatedAt,
		}
		if b, ok := breeders[d.ID]; ok {
			r.Breeders = &b
		}
		if j, ok := juveniles[d.ID]; ok {
			r.Juveniles = &j
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *Store) findAll(ctx context.Context, collection string, filter bson.M, into interface{}) error {
	cur, err := s.db.Collection(collection).Find(ctx, filter)
	if err != nil {
		return fmt.Errorf("find %s: %w", collection, err)
	}
	if err := cur.All(ctx, into); err != nil {
		return fmt.Errorf("decode %s: %w", collection, err)
	}
	return nil
}

var _ repository.Store = (*Store)(nil)
