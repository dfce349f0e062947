package feed

import (
	"context"
	"testing"
	"time"

	"github.com/anonto42/treegram/backend/internal/models"
	"github.com/anonto42/treegram/backend/internal/treestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedUser(t *testing.T, store treestore.Store, uid, username string) {
	t.Helper()
	err := store.Set(context.Background(), treestore.UserPath(uid), models.User{
		UID:         uid,
		Username:    username,
		DisplayName: username,
	})
	require.NoError(t, err)
}

func seedPost(t *testing.T, store treestore.Store, postID, authorID string, ts time.Time) {
	t.Helper()
	ctx := context.Background()
	err := store.Set(ctx, treestore.PostPath(postID), models.Post{
		UserID:    authorID,
		Caption:   "post " + postID,
		Timestamp: ts,
	})
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, treestore.UserPostIndexPath(authorID, postID), true))
}

func seedFollow(t *testing.T, store treestore.Store, follower, followee string) {
	t.Helper()
	err := store.Set(context.Background(), treestore.FollowingEdgePath(follower, followee), true)
	require.NoError(t, err)
}

func TestFetchFeedPostsOrdersNewestFirst(t *testing.T) {
	store := treestore.NewMemoryStore()
	assembler := NewAssembler(store)
	ctx := context.Background()

	seedUser(t, store, "alice", "alice")
	seedUser(t, store, "bob", "bob")
	seedFollow(t, store, "alice", "bob")

	base := time.Now().Add(-time.Hour)
	seedPost(t, store, "p-old", "bob", base)
	seedPost(t, store, "p-mid", "alice", base.Add(10*time.Minute))
	seedPost(t, store, "p-new", "bob", base.Add(20*time.Minute))

	posts, err := assembler.FetchFeedPosts(ctx, "alice", 0)
	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.Equal(t, "p-new", posts[0].ID)
	assert.Equal(t, "p-mid", posts[1].ID)
	assert.Equal(t, "p-old", posts[2].ID)
	assert.Equal(t, "bob", posts[0].Author.Username)
}

func TestFetchFeedPostsTruncatesToLimit(t *testing.T) {
	store := treestore.NewMemoryStore()
	assembler := NewAssembler(store)
	ctx := context.Background()

	seedUser(t, store, "alice", "alice")
	base := time.Now().Add(-time.Hour)
	for i, id := range []string{"p1", "p2", "p3", "p4"} {
		seedPost(t, store, id, "alice", base.Add(time.Duration(i)*time.Minute))
	}

	posts, err := assembler.FetchFeedPosts(ctx, "alice", 2)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "p4", posts[0].ID)
	assert.Equal(t, "p3", posts[1].ID)
}

func TestFetchFeedPostsIncludesSelf(t *testing.T) {
	store := treestore.NewMemoryStore()
	assembler := NewAssembler(store)
	ctx := context.Background()

	seedUser(t, store, "alice", "alice")
	seedPost(t, store, "p1", "alice", time.Now())

	posts, err := assembler.FetchFeedPosts(ctx, "alice", 0)
	require.NoError(t, err)
	require.Len(t, posts, 1, "own posts appear without following anyone")
	assert.Equal(t, "p1", posts[0].ID)
}

func TestFetchFeedPostsTieOrderIsStableAcrossCalls(t *testing.T) {
	store := treestore.NewMemoryStore()
	assembler := NewAssembler(store)
	ctx := context.Background()

	seedUser(t, store, "alice", "alice")
	ts := time.Now().Truncate(time.Second)
	seedPost(t, store, "p-a", "alice", ts)
	seedPost(t, store, "p-b", "alice", ts)
	seedPost(t, store, "p-c", "alice", ts)

	first, err := assembler.FetchFeedPosts(ctx, "alice", 0)
	require.NoError(t, err)
	second, err := assembler.FetchFeedPosts(ctx, "alice", 0)
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
	}
}

func TestFetchStoriesAppliesExpiryCutoff(t *testing.T) {
	store := treestore.NewMemoryStore()
	assembler := NewAssembler(store)
	ctx := context.Background()

	seedUser(t, store, "alice", "alice")
	seedUser(t, store, "bob", "bob")
	seedFollow(t, store, "alice", "bob")

	fresh := models.Story{ImageURL: "fresh", Timestamp: time.Now().Add(-models.StoryTTL + time.Minute)}
	stale := models.Story{ImageURL: "stale", Timestamp: time.Now().Add(-models.StoryTTL - time.Minute)}
	require.NoError(t, store.Set(ctx, treestore.StoryPath("bob", "s-fresh"), fresh))
	require.NoError(t, store.Set(ctx, treestore.StoryPath("bob", "s-stale"), stale))

	stories, err := assembler.FetchStories(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, stories, 1)
	assert.Equal(t, "s-fresh", stories[0].ID)

	// expired stories stay in the store, they are only filtered at read time
	var onDisk map[string]models.Story
	require.NoError(t, store.Get(ctx, treestore.StoriesPath("bob"), &onDisk))
	assert.Len(t, onDisk, 2)
}

func TestListCommentsOldestFirst(t *testing.T) {
	store := treestore.NewMemoryStore()
	assembler := NewAssembler(store)
	ctx := context.Background()

	seedUser(t, store, "alice", "alice")
	seedUser(t, store, "bob", "bob")
	base := time.Now().Add(-time.Hour)
	require.NoError(t, store.Set(ctx, treestore.PostCommentsDataPath("p1")+"/c2",
		models.Comment{UserID: "bob", Text: "second", Timestamp: base.Add(time.Minute)}))
	require.NoError(t, store.Set(ctx, treestore.PostCommentsDataPath("p1")+"/c1",
		models.Comment{UserID: "alice", Text: "first", Timestamp: base}))

	comments, err := assembler.ListComments(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "first", comments[0].Text)
	assert.Equal(t, "second", comments[1].Text)
	assert.Equal(t, "alice", comments[0].Author.Username)
}

func TestSearchUsersExactUsername(t *testing.T) {
	store := treestore.NewMemoryStore()
	assembler := NewAssembler(store)
	ctx := context.Background()

	seedUser(t, store, "u1", "wanderer")
	seedUser(t, store, "u2", "wanderer2")

	users, err := assembler.SearchUsers(ctx, "wanderer")
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "u1", users[0].UID)

	none, err := assembler.SearchUsers(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestFetchNotificationsNewestFirstWithUnreadCount(t *testing.T) {
	store := treestore.NewMemoryStore()
	assembler := NewAssembler(store)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	require.NoError(t, store.Set(ctx, treestore.NotificationPath("alice", "n1"),
		models.Notification{Type: models.NotificationLike, SenderID: "bob", Timestamp: base, Read: true}))
	require.NoError(t, store.Set(ctx, treestore.NotificationPath("alice", "n2"),
		models.Notification{Type: models.NotificationFollow, SenderID: "carol", Timestamp: base.Add(time.Minute)}))

	entries, unread, err := assembler.FetchNotifications(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 1, unread)
	assert.Equal(t, "n2", entries[0].ID)
	assert.Equal(t, "n1", entries[1].ID)
}

func TestGetProfileMissingUser(t *testing.T) {
	assembler := NewAssembler(treestore.NewMemoryStore())
	_, err := assembler.GetProfile(context.Background(), "ghost")
	assert.EqualError(t, err, "user not found")
}

func TestGetPostMissing(t *testing.T) {
	assembler := NewAssembler(treestore.NewMemoryStore())
	_, err := assembler.GetPost(context.Background(), "ghost")
	assert.EqualError(t, err, "post not found")
}
