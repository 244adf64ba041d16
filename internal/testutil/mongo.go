package testutil

import (
	"context"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const testDatabase = "videoplatform_test"

// SetupTestMongo connects to the Mongo instance named by MONGODB_TEST_URI
// (default local). Integration tests are expected to gate themselves on
// RUN_DB_INTEGRATION before calling this.
func SetupTestMongo() (*mongo.Client, *mongo.Database, error) {
	uri := os.Getenv("MONGODB_TEST_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, err
	}

	return client, client.Database(testDatabase), nil
}

func CleanupTestData(ctx context.Context, db *mongo.Database) {
	for _, name := range []string{"users", "videos", "subscriptions"} {
		_ = db.Collection(name).Drop(ctx)
	}
}
