package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

var (
	ErrNotFound     = errors.New("document not found")
	ErrDuplicateKey = errors.New("duplicate key")
)

const (
	usersCollection         = "users"
	videosCollection        = "videos"
	subscriptionsCollection = "subscriptions"
)

type Store struct {
	users *mongo.Collection
	db    *mongo.Database
}

func New(db *mongo.Database) *Store {
	return &Store{
		users: db.Collection(usersCollection),
		db:    db,
	}
}

// EnsureIndexes creates the unique username/email indexes. Safe to call on
// every startup.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
	return err
}

// CreateUser inserts a new user. Username and email are case-folded before
// the write so uniqueness holds regardless of input casing.
func (s *Store) CreateUser(ctx context.Context, u *User) (bson.ObjectID, error) {
	now := time.Now().UTC()
	u.ID = bson.NewObjectID()
	u.Username = strings.ToLower(strings.TrimSpace(u.Username))
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.users.InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return bson.NilObjectID, ErrDuplicateKey
		}
		return bson.NilObjectID, err
	}
	return u.ID, nil
}

func (s *Store) GetUserByID(ctx context.Context, id bson.ObjectID) (*User, error) {
	var u User
	err := s.users.FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetUserByIdentifier resolves a case-folded exact match on username or email.
func (s *Store) GetUserByIdentifier(ctx context.Context, identifier string) (*User, error) {
	folded := strings.ToLower(strings.TrimSpace(identifier))

	var u User
	err := s.users.FindOne(ctx, bson.M{
		"$or": bson.A{
			bson.M{"username": folded},
			bson.M{"email": folded},
		},
	}).Decode(&u)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// SetRefreshToken overwrites only the refresh-token field. The rest of the
// document is not re-validated, mirroring rotation's partial-write semantics.
func (s *Store) SetRefreshToken(ctx context.Context, id bson.ObjectID, token string) error {
	return s.updateByID(ctx, id, bson.M{
		"$set": bson.M{
			"refreshToken": token,
			"updatedAt":    time.Now().UTC(),
		},
	})
}

// ClearRefreshToken removes the stored refresh token so every previously
// issued refresh token becomes permanently invalid.
func (s *Store) ClearRefreshToken(ctx context.Context, id bson.ObjectID) error {
	return s.updateByID(ctx, id, bson.M{
		"$unset": bson.M{"refreshToken": ""},
		"$set":   bson.M{"updatedAt": time.Now().UTC()},
	})
}

func (s *Store) SetPassword(ctx context.Context, id bson.ObjectID, digest string) error {
	return s.updateByID(ctx, id, bson.M{
		"$set": bson.M{
			"password":  digest,
			"updatedAt": time.Now().UTC(),
		},
	})
}

// AppendWatchHistory moves videoID to the tail of the user's watch history.
// The pull keeps rewatches from duplicating entries.
func (s *Store) AppendWatchHistory(ctx context.Context, userID, videoID bson.ObjectID) error {
	if err := s.updateByID(ctx, userID, bson.M{
		"$pull": bson.M{"watchHistory": videoID},
	}); err != nil {
		return err
	}
	return s.updateByID(ctx, userID, bson.M{
		"$push": bson.M{"watchHistory": videoID},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	})
}

func (s *Store) GetChannelProfile(ctx context.Context, username string, viewerID bson.ObjectID) (*ChannelProfile, error) {
	cursor, err := s.users.Aggregate(ctx, channelProfilePipeline(username, viewerID))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var profiles []ChannelProfile
	if err := cursor.All(ctx, &profiles); err != nil {
		return nil, err
	}
	if len(profiles) == 0 {
		return nil, ErrNotFound
	}
	return &profiles[0], nil
}

func (s *Store) GetWatchHistory(ctx context.Context, userID bson.ObjectID) ([]WatchVideo, error) {
	cursor, err := s.users.Aggregate(ctx, watchHistoryPipeline(userID))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []watchHistoryRow
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	if rows[0].WatchHistory == nil {
		return []WatchVideo{}, nil
	}
	return rows[0].WatchHistory, nil
}

type watchHistoryRow struct {
	WatchHistory []WatchVideo `bson:"watchHistory"`
}

func (s *Store) updateByID(ctx context.Context, id bson.ObjectID, update bson.M) error {
	res, err := s.users.UpdateByID(ctx, id, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
