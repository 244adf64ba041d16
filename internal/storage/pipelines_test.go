package storage

import (
	"testing"

	"go.mongodb.org/mongo-driver/v2/bson"
)

func stageKey(t *testing.T, stage bson.D) string {
	t.Helper()
	if len(stage) != 1 {
		t.Fatalf("expected single-key stage, got %v", stage)
	}
	return stage[0].Key
}

func TestChannelProfilePipelineShape(t *testing.T) {
	viewer := bson.NewObjectID()
	pipeline := channelProfilePipeline("  AnaChannel ", viewer)

	want := []string{"$match", "$lookup", "$lookup", "$addFields", "$project"}
	if len(pipeline) != len(want) {
		t.Fatalf("expected %d stages, got %d", len(want), len(pipeline))
	}
	for i, stage := range pipeline {
		if got := stageKey(t, stage); got != want[i] {
			t.Fatalf("stage %d: expected %s, got %s", i, want[i], got)
		}
	}

	match := pipeline[0][0].Value.(bson.M)
	if match["username"] != "anachannel" {
		t.Fatalf("expected case-folded trimmed username, got %v", match["username"])
	}
}

func TestChannelProfilePipelineProjectionExcludesSecrets(t *testing.T) {
	pipeline := channelProfilePipeline("ana", bson.NewObjectID())
	project := pipeline[len(pipeline)-1][0].Value.(bson.M)

	for _, field := range []string{"password", "refreshToken"} {
		if _, ok := project[field]; ok {
			t.Fatalf("projection must not include %s", field)
		}
	}
	for _, field := range []string{"username", "subscribersCount", "isSubscribed"} {
		if _, ok := project[field]; !ok {
			t.Fatalf("projection missing %s", field)
		}
	}
}

func TestWatchHistoryPipelineShape(t *testing.T) {
	userID := bson.NewObjectID()
	pipeline := watchHistoryPipeline(userID)

	if got := stageKey(t, pipeline[0]); got != "$match" {
		t.Fatalf("expected $match first, got %s", got)
	}
	match := pipeline[0][0].Value.(bson.M)
	if match["_id"] != userID {
		t.Fatal("expected match on the user id")
	}

	if got := stageKey(t, pipeline[1]); got != "$lookup" {
		t.Fatalf("expected $lookup second, got %s", got)
	}
	lookup := pipeline[1][0].Value.(bson.M)
	if lookup["from"] != videosCollection {
		t.Fatalf("expected lookup into %s, got %v", videosCollection, lookup["from"])
	}
	if _, ok := lookup["pipeline"]; !ok {
		t.Fatal("expected nested owner lookup pipeline")
	}
}
