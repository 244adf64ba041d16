package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/theyashgrover/videoplatform-backend/internal/security"
	"github.com/theyashgrover/videoplatform-backend/internal/storage"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type demoUser struct {
	username string
	email    string
	fullName string
	password string
}

var demoUsers = []demoUser{
	{username: "demo", email: "demo@example.com", fullName: "Demo User", password: "demo123"},
	{username: "creator", email: "creator@example.com", fullName: "Demo Creator", password: "creator123"},
}

func main() {
	env := getEnv("VTB_ENV", "dev")
	if env != "dev" && env != "test" {
		log.Fatalf("refusing to seed: VTB_ENV must be 'dev' or 'test' (got '%s')", env)
	}

	uri := getEnv("MONGODB_URI", "mongodb://localhost:27017")
	dbName := getEnv("MONGODB_DATABASE", "videoplatform")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		log.Fatalf("connect db: %v", err)
	}
	defer func() {
		_ = client.Disconnect(context.Background())
	}()

	if err := client.Ping(ctx, nil); err != nil {
		log.Fatalf("ping db: %v", err)
	}

	db := client.Database(dbName)
	store := storage.New(db)
	if err := store.EnsureIndexes(ctx); err != nil {
		log.Fatalf("ensure indexes: %v", err)
	}

	fmt.Println("Seeding database...")

	userIDs, err := seedUsers(ctx, store)
	if err != nil {
		log.Fatalf("seed users: %v", err)
	}
	fmt.Println("✓ Users seeded")

	videoID, err := seedVideos(ctx, db, userIDs["creator"])
	if err != nil {
		log.Fatalf("seed videos: %v", err)
	}
	fmt.Println("✓ Videos seeded")

	if err := seedSubscriptions(ctx, db, userIDs["demo"], userIDs["creator"]); err != nil {
		log.Fatalf("seed subscriptions: %v", err)
	}
	fmt.Println("✓ Subscriptions seeded")

	if err := store.AppendWatchHistory(ctx, userIDs["demo"], videoID); err != nil {
		log.Fatalf("seed watch history: %v", err)
	}
	fmt.Println("✓ Watch history seeded")

	fmt.Println("\n=== Seed Complete ===")
	fmt.Println("\nDemo Credentials:")
	for _, u := range demoUsers {
		fmt.Printf("  Email: %s\n", u.email)
		fmt.Printf("  Password: %s\n", u.password)
	}
}

func seedUsers(ctx context.Context, store *storage.Store) (map[string]bson.ObjectID, error) {
	hasher := security.NewPasswordHasher(security.DefaultBcryptCost)
	ids := map[string]bson.ObjectID{}

	for _, d := range demoUsers {
		digest, err := hasher.Hash(d.password)
		if err != nil {
			return nil, err
		}

		id, err := store.CreateUser(ctx, &storage.User{
			Username: d.username,
			Email:    d.email,
			FullName: d.fullName,
			Avatar:   fmt.Sprintf("https://placehold.co/200x200?text=%s", d.username),
			Password: digest,
		})
		if errors.Is(err, storage.ErrDuplicateKey) {
			existing, lookupErr := store.GetUserByIdentifier(ctx, d.username)
			if lookupErr != nil {
				return nil, lookupErr
			}
			ids[d.username] = existing.ID
			continue
		}
		if err != nil {
			return nil, err
		}
		ids[d.username] = id
	}

	return ids, nil
}

func seedVideos(ctx context.Context, db *mongo.Database, ownerID bson.ObjectID) (bson.ObjectID, error) {
	videos := db.Collection("videos")

	title := "Getting Started"
	var existing struct {
		ID bson.ObjectID `bson:"_id"`
	}
	err := videos.FindOne(ctx, bson.M{"title": title, "owner": ownerID}).Decode(&existing)
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return bson.NilObjectID, err
	}

	now := time.Now().UTC()
	id := bson.NewObjectID()
	_, err = videos.InsertOne(ctx, bson.M{
		"_id":         id,
		"videoFile":   "https://placehold.co/video.mp4",
		"thumbnail":   "https://placehold.co/640x360",
		"title":       title,
		"description": "A short demo video.",
		"duration":    42.0,
		"views":       0,
		"isPublished": true,
		"owner":       ownerID,
		"createdAt":   now,
		"updatedAt":   now,
	})
	return id, err
}

func seedSubscriptions(ctx context.Context, db *mongo.Database, subscriberID, channelID bson.ObjectID) error {
	subscriptions := db.Collection("subscriptions")

	filter := bson.M{"subscriber": subscriberID, "channel": channelID}
	count, err := subscriptions.CountDocuments(ctx, filter)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	now := time.Now().UTC()
	_, err = subscriptions.InsertOne(ctx, bson.M{
		"_id":        bson.NewObjectID(),
		"subscriber": subscriberID,
		"channel":    channelID,
		"createdAt":  now,
		"updatedAt":  now,
	})
	return err
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
