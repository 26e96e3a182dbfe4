package session

import (
	"context"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/maximthomas/gortas-session/pkg/log"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	mongoDefaultDatabase   = "gortas"
	mongoDefaultCollection = "sessions"
	mongoOpTimeout         = 1 * time.Second
)

type mongoSessionRepository struct {
	client     *mongo.Client
	db         string
	collection string
}

type mongoRepoSession struct {
	Session   `bson:",inline"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// parseMongoSavePath splits database and collection query params off a mongodb:// uri
func parseMongoSavePath(savePath string) (uri, db, col string, err error) {
	u, err := url.Parse(savePath)
	if err != nil {
		return "", "", "", errors.Wrap(ErrBadSavePath, err.Error())
	}
	if u.Scheme != "mongodb" && u.Scheme != "mongodb+srv" {
		return "", "", "", errors.Wrapf(ErrBadSavePath, "unsupported scheme %q", u.Scheme)
	}
	q := u.Query()
	db, col = q.Get("database"), q.Get("collection")
	if db == "" {
		db = mongoDefaultDatabase
	}
	if col == "" {
		col = mongoDefaultCollection
	}
	q.Del("database")
	q.Del("collection")
	u.RawQuery = q.Encode()
	return u.String(), db, col, nil
}

func newMongoSessionRepository(savePath string, ttl time.Duration) (*mongoSessionRepository, error) {
	uri, db, col, err := parseMongoSavePath(savePath)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), cleanupIntervalSeconds*time.Second)
	defer cancel()
	log.WithField("module", "session.mongo").Infof("connecting to mongo, database: %s, collection: %s", db, col)
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(err, "error connecting to mongo")
	}
	if err = client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(err, "mongo is not reachable")
	}
	rep := &mongoSessionRepository{
		client:     client,
		db:         db,
		collection: col,
	}

	idxOpt := options.Index().SetExpireAfterSeconds(int32(ttl / time.Second))
	mod := mongo.IndexModel{
		Keys:    bson.M{"updatedAt": 1},
		Options: idxOpt,
	}
	if _, err = rep.getCollection().Indexes().CreateOne(ctx, mod); err != nil {
		return nil, errors.Wrap(err, "error creating session ttl index")
	}
	return rep, nil
}

func (sr *mongoSessionRepository) CreateSession(ctx context.Context, session Session) (Session, error) {
	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	session.CreatedAt = time.Now()

	ctx, cancel := context.WithTimeout(ctx, mongoOpTimeout)
	defer cancel()
	repoSession := mongoRepoSession{Session: session, UpdatedAt: session.CreatedAt}
	if _, err := sr.getCollection().InsertOne(ctx, &repoSession); err != nil {
		return session, errors.Wrap(err, "error creating session")
	}
	return session, nil
}

func (sr *mongoSessionRepository) DeleteSession(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, mongoOpTimeout)
	defer cancel()
	err := sr.getCollection().FindOneAndDelete(ctx, bson.M{"id": id}).Err()
	if err == mongo.ErrNoDocuments {
		return ErrSessionNotFound
	}
	return err
}

func (sr *mongoSessionRepository) GetSession(ctx context.Context, id string) (Session, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoOpTimeout)
	defer cancel()

	var repoSession mongoRepoSession
	err := sr.getCollection().FindOne(ctx, bson.M{"id": id}).Decode(&repoSession)
	if err == mongo.ErrNoDocuments {
		return Session{}, ErrSessionNotFound
	}
	if err != nil {
		return Session{}, errors.Wrap(err, "error reading session")
	}
	return repoSession.Session, nil
}

func (sr *mongoSessionRepository) UpdateSession(ctx context.Context, session Session) error {
	ctx, cancel := context.WithTimeout(ctx, mongoOpTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{"properties": session.Properties, "updatedAt": time.Now()}}
	res, err := sr.getCollection().UpdateOne(ctx, bson.M{"id": session.ID}, update)
	if err != nil {
		return errors.Wrap(err, "error updating session")
	}
	if res.MatchedCount == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (sr *mongoSessionRepository) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), mongoOpTimeout)
	defer cancel()
	return sr.client.Disconnect(ctx)
}

func (sr *mongoSessionRepository) getCollection() *mongo.Collection {
	return sr.client.Database(sr.db).Collection(sr.collection)
}
