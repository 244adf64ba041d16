package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/theyashgrover/videoplatform-backend/internal/storage"
	"github.com/theyashgrover/videoplatform-backend/internal/testutil"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestCurrentUser(t *testing.T) {
	store := newMemStore()
	h, router := setupHandler(t, store)
	user := seedUser(t, h, store, "ana", "ana@x.com", "Secr3t!")

	resp := testutil.MakeAuthRequest(router, http.MethodGet, "/api/v1/users/current-user", nil, accessTokenFor(t, h, user))
	testutil.AssertHTTPStatus(t, resp, http.StatusOK)

	var out userResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.ID != user.ID.Hex() || out.Username != "ana" {
		t.Fatalf("unexpected user %+v", out)
	}
}

func TestCurrentUserRequiresAuth(t *testing.T) {
	store := newMemStore()
	_, router := setupHandler(t, store)

	resp := testutil.MakeAPIRequest(router, http.MethodGet, "/api/v1/users/current-user", nil)
	testutil.AssertHTTPStatus(t, resp, http.StatusUnauthorized)
}

func TestChannelProfile(t *testing.T) {
	store := newMemStore()
	h, router := setupHandler(t, store)
	user := seedUser(t, h, store, "ana", "ana@x.com", "Secr3t!")
	store.profiles["bob"] = &storage.ChannelProfile{
		Username:                  "bob",
		FullName:                  "Bob Marin",
		SubscribersCount:          3,
		ChannelsSubscribedToCount: 1,
		IsSubscribed:              true,
	}
	token := accessTokenFor(t, h, user)

	resp := testutil.MakeAuthRequest(router, http.MethodGet, "/api/v1/users/channel/bob", nil, token)
	testutil.AssertHTTPStatus(t, resp, http.StatusOK)

	var out storage.ChannelProfile
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.SubscribersCount != 3 || !out.IsSubscribed {
		t.Fatalf("unexpected profile %+v", out)
	}
}

func TestChannelProfileUnknown(t *testing.T) {
	store := newMemStore()
	h, router := setupHandler(t, store)
	user := seedUser(t, h, store, "ana", "ana@x.com", "Secr3t!")

	resp := testutil.MakeAuthRequest(router, http.MethodGet, "/api/v1/users/channel/ghost", nil, accessTokenFor(t, h, user))
	testutil.AssertErrorCode(t, resp, testutil.ErrorCodeNotFound)
}

func TestWatchHistory(t *testing.T) {
	store := newMemStore()
	h, router := setupHandler(t, store)
	user := seedUser(t, h, store, "ana", "ana@x.com", "Secr3t!")
	store.history[user.ID] = []storage.WatchVideo{
		{ID: bson.NewObjectID(), Title: "intro"},
		{ID: bson.NewObjectID(), Title: "deep dive"},
	}

	resp := testutil.MakeAuthRequest(router, http.MethodGet, "/api/v1/users/history", nil, accessTokenFor(t, h, user))
	testutil.AssertHTTPStatus(t, resp, http.StatusOK)

	var out struct {
		WatchHistory []storage.WatchVideo `json:"watchHistory"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(out.WatchHistory) != 2 || out.WatchHistory[0].Title != "intro" {
		t.Fatalf("unexpected history %+v", out.WatchHistory)
	}
}

func TestRecordWatchInvalidID(t *testing.T) {
	store := newMemStore()
	h, router := setupHandler(t, store)
	user := seedUser(t, h, store, "ana", "ana@x.com", "Secr3t!")

	resp := testutil.MakeAuthRequest(router, http.MethodPost, "/api/v1/users/history/not-an-id", nil, accessTokenFor(t, h, user))
	testutil.AssertErrorCode(t, resp, testutil.ErrorCodeInvalidRequest)
}

func TestRecordWatchInline(t *testing.T) {
	store := newMemStore()
	h, router := setupHandler(t, store)
	user := seedUser(t, h, store, "ana", "ana@x.com", "Secr3t!")
	token := accessTokenFor(t, h, user)

	first := bson.NewObjectID()
	second := bson.NewObjectID()

	for _, id := range []bson.ObjectID{first, second, first} {
		resp := testutil.MakeAuthRequest(router, http.MethodPost, "/api/v1/users/history/"+id.Hex(), nil, token)
		testutil.AssertHTTPStatus(t, resp, http.StatusOK)
	}

	stored, err := store.GetUserByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	// Rewatching moves the entry to the tail instead of duplicating it.
	if len(stored.WatchHistory) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(stored.WatchHistory))
	}
	if stored.WatchHistory[0] != second || stored.WatchHistory[1] != first {
		t.Fatalf("unexpected history order %v", stored.WatchHistory)
	}
}

func TestRecordWatchPublishes(t *testing.T) {
	store := newMemStore()
	h, router := setupHandler(t, store)
	user := seedUser(t, h, store, "ana", "ana@x.com", "Secr3t!")
	publisher := &fakePublisher{}
	h.WatchPublisher = publisher
	h.WatchTopic = "video.watch.events"

	videoID := bson.NewObjectID()
	resp := testutil.MakeAuthRequest(router, http.MethodPost, "/api/v1/users/history/"+videoID.Hex(), nil, accessTokenFor(t, h, user))
	testutil.AssertHTTPStatus(t, resp, http.StatusAccepted)

	if len(publisher.events) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(publisher.events))
	}
	published := publisher.events[0]
	if published.topic != "video.watch.events" || published.key != user.ID.Hex() {
		t.Fatalf("unexpected publish target %+v", published)
	}
	event, ok := published.value.(WatchEvent)
	if !ok {
		t.Fatalf("unexpected event payload %T", published.value)
	}
	if event.EventType != WatchEventType || event.VideoID != videoID.Hex() {
		t.Fatalf("unexpected event %+v", event)
	}

	// The publisher path defers the write to the consumer.
	stored, err := store.GetUserByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if len(stored.WatchHistory) != 0 {
		t.Fatalf("expected no inline history write, got %v", stored.WatchHistory)
	}
}
