package fanout

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/anonto42/treegram/backend/internal/models"
	"github.com/anonto42/treegram/backend/internal/treestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeTestImage(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func seedUser(t *testing.T, store treestore.Store, uid, username string) {
	t.Helper()
	err := store.Set(context.Background(), treestore.UserPath(uid), models.User{
		UID:         uid,
		Username:    username,
		DisplayName: username,
	})
	require.NoError(t, err)
}

func seedPost(t *testing.T, store treestore.Store, postID, authorID string) {
	t.Helper()
	err := store.Set(context.Background(), treestore.PostPath(postID), models.Post{
		UserID:    authorID,
		Caption:   "seeded",
		Timestamp: time.Now(),
	})
	require.NoError(t, err)
}

func TestCreatePostWritesRecordAndIndex(t *testing.T) {
	store := treestore.NewMemoryStore()
	writer := NewWriter(store)
	ctx := context.Background()
	seedUser(t, store, "alice", "alice")

	postID, err := writer.CreatePost(ctx, "alice", "hello world", makeTestImage(t, 10, 10))
	require.NoError(t, err)
	require.NotEmpty(t, postID)

	var post models.Post
	require.NoError(t, store.Get(ctx, treestore.PostPath(postID), &post))
	assert.Equal(t, "alice", post.UserID)
	assert.Equal(t, "hello world", post.Caption)
	assert.True(t, strings.HasPrefix(post.ImageURL, "data:image/jpeg;base64,"))

	var indexed bool
	require.NoError(t, store.Get(ctx, treestore.UserPostIndexPath("alice", postID), &indexed))
	assert.True(t, indexed)
}

func TestToggleLikeSingleWriterKeepsCounterConsistent(t *testing.T) {
	store := treestore.NewMemoryStore()
	writer := NewWriter(store)
	ctx := context.Background()
	seedUser(t, store, "alice", "alice")
	seedUser(t, store, "bob", "bob")
	seedPost(t, store, "p1", "alice")

	liked, err := writer.ToggleLike(ctx, "p1", "bob", false)
	require.NoError(t, err)
	assert.True(t, liked)

	var count int
	require.NoError(t, store.Get(ctx, treestore.PostLikesCountPath("p1"), &count))
	assert.Equal(t, 1, count)

	var edge bool
	require.NoError(t, store.Get(ctx, treestore.LikeEdgePath("p1", "bob"), &edge))
	assert.True(t, edge, "secondary like index must mirror the membership")

	liked, err = writer.ToggleLike(ctx, "p1", "bob", true)
	require.NoError(t, err)
	assert.False(t, liked)

	count = -1
	require.NoError(t, store.Get(ctx, treestore.PostLikesCountPath("p1"), &count))
	assert.Equal(t, 0, count)

	var likedBy map[string]bool
	require.NoError(t, store.Get(ctx, treestore.PostLikedByPath("p1"), &likedBy))
	assert.NotContains(t, likedBy, "bob")
}

// hookStore lets a test pause a writer right before a chosen Set.
type hookStore struct {
	treestore.Store
	beforeSet func(path string)
}

func (h *hookStore) Set(ctx context.Context, path string, v interface{}) error {
	if h.beforeSet != nil {
		h.beforeSet(path)
	}
	return h.Store.Set(ctx, path, v)
}

func TestConcurrentLikersCanLoseCounterUpdate(t *testing.T) {
	// The counter is recomputed with an unserialized read-then-write, so a
	// stale recompute can land after a fresher one. This pins that behavior:
	// the counter ends below the true membership size.
	mem := treestore.NewMemoryStore()
	ctx := context.Background()
	seedUser(t, mem, "alice", "alice")
	seedPost(t, mem, "p1", "owner")

	countPath := treestore.PostLikesCountPath("p1")
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	gated := &hookStore{Store: mem, beforeSet: func(path string) {
		if path == countPath {
			once.Do(func() {
				close(entered)
				<-release
			})
		}
	}}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		// alice reads membership {alice}, then stalls before writing count=1
		_, err := NewWriter(gated).ToggleLike(ctx, "p1", "alice", false)
		assert.NoError(t, err)
	}()

	<-entered
	// bob completes a full toggle meanwhile, writing count=2
	_, err := NewWriter(mem).ToggleLike(ctx, "p1", "bob", false)
	require.NoError(t, err)
	close(release)
	wg.Wait()

	var likedBy map[string]bool
	require.NoError(t, mem.Get(ctx, treestore.PostLikedByPath("p1"), &likedBy))
	require.Len(t, likedBy, 2)

	var count int
	require.NoError(t, mem.Get(ctx, countPath, &count))
	assert.Equal(t, 1, count, "stale recompute overwrites the fresher counter")
}

func TestAddCommentRecomputesCounterAndNotifies(t *testing.T) {
	store := treestore.NewMemoryStore()
	writer := NewWriter(store)
	ctx := context.Background()
	seedUser(t, store, "alice", "alice")
	seedUser(t, store, "bob", "bob")
	seedPost(t, store, "p1", "alice")

	commentID, err := writer.AddComment(ctx, "p1", "bob", "nice shot")
	require.NoError(t, err)
	require.NotEmpty(t, commentID)

	var count int
	require.NoError(t, store.Get(ctx, treestore.PostCommentsCountPath("p1"), &count))
	assert.Equal(t, 1, count)

	var notifs map[string]models.Notification
	require.NoError(t, store.Get(ctx, treestore.NotificationsPath("alice"), &notifs))
	require.Len(t, notifs, 1)
	for _, n := range notifs {
		assert.Equal(t, models.NotificationComment, n.Type)
		assert.Equal(t, "bob", n.SenderID)
		assert.Equal(t, "p1", n.PostID)
		assert.Equal(t, commentID, n.CommentID)
	}
}

func TestAddCommentMissingPost(t *testing.T) {
	writer := NewWriter(treestore.NewMemoryStore())
	_, err := writer.AddComment(context.Background(), "missing", "bob", "hello")
	assert.EqualError(t, err, "post not found")
}

func TestFollowIsIdempotentAndSymmetric(t *testing.T) {
	store := treestore.NewMemoryStore()
	writer := NewWriter(store)
	ctx := context.Background()
	seedUser(t, store, "alice", "alice")
	seedUser(t, store, "bob", "bob")

	require.NoError(t, writer.Follow(ctx, "bob", "alice"))
	require.NoError(t, writer.Follow(ctx, "bob", "alice")) // repeat

	var following map[string]bool
	require.NoError(t, store.Get(ctx, treestore.UserFollowingPath("bob"), &following))
	assert.Len(t, following, 1)
	assert.True(t, following["alice"])

	var followers map[string]bool
	require.NoError(t, store.Get(ctx, treestore.UserFollowersPath("alice"), &followers))
	assert.Len(t, followers, 1)
	assert.True(t, followers["bob"])

	require.NoError(t, writer.Unfollow(ctx, "bob", "alice"))
	following = nil
	require.NoError(t, store.Get(ctx, treestore.UserFollowingPath("bob"), &following))
	assert.NotContains(t, following, "alice")
	followers = nil
	require.NoError(t, store.Get(ctx, treestore.UserFollowersPath("alice"), &followers))
	assert.NotContains(t, followers, "bob")
}

func TestFollowSelfRejected(t *testing.T) {
	writer := NewWriter(treestore.NewMemoryStore())
	err := writer.Follow(context.Background(), "alice", "alice")
	assert.EqualError(t, err, "cannot follow yourself")
}

func TestNoNotificationToSelf(t *testing.T) {
	store := treestore.NewMemoryStore()
	writer := NewWriter(store)
	ctx := context.Background()
	seedUser(t, store, "alice", "alice")
	seedPost(t, store, "p1", "alice")

	_, err := writer.ToggleLike(ctx, "p1", "alice", false)
	require.NoError(t, err)

	var notifs map[string]models.Notification
	require.NoError(t, store.Get(ctx, treestore.NotificationsPath("alice"), &notifs))
	assert.Empty(t, notifs)
}

func TestCreateStoryAndMarkViewed(t *testing.T) {
	store := treestore.NewMemoryStore()
	writer := NewWriter(store)
	ctx := context.Background()
	seedUser(t, store, "alice", "alice")

	storyID, err := writer.CreateStory(ctx, "alice", makeTestImage(t, 10, 10))
	require.NoError(t, err)
	require.NotEmpty(t, storyID)

	require.NoError(t, writer.MarkStoryViewed(ctx, "alice", storyID, "bob"))
	require.NoError(t, writer.MarkStoryViewed(ctx, "alice", storyID, "bob")) // repeat

	var story models.Story
	require.NoError(t, store.Get(ctx, treestore.StoryPath("alice", storyID), &story))
	assert.Len(t, story.ViewedBy, 1)
	assert.True(t, story.ViewedBy["bob"])
}

func TestCreateOrOpenChatReusesExistingPair(t *testing.T) {
	store := treestore.NewMemoryStore()
	writer := NewWriter(store)
	ctx := context.Background()

	chatID, _, err := writer.CreateOrOpenChat(ctx, "alice", "bob")
	require.NoError(t, err)
	require.NotEmpty(t, chatID)

	again, _, err := writer.CreateOrOpenChat(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, chatID, again)

	reversed, _, err := writer.CreateOrOpenChat(ctx, "bob", "alice")
	require.NoError(t, err)
	assert.Equal(t, chatID, reversed, "the pair is unordered")

	_, _, err = writer.CreateOrOpenChat(ctx, "alice", "alice")
	assert.Error(t, err)
}

func TestSendMessageUpdatesChatAndUnreadCounters(t *testing.T) {
	store := treestore.NewMemoryStore()
	writer := NewWriter(store)
	ctx := context.Background()
	seedUser(t, store, "alice", "alice")
	seedUser(t, store, "bob", "bob")

	chatID, _, err := writer.CreateOrOpenChat(ctx, "alice", "bob")
	require.NoError(t, err)

	msgID, _, err := writer.SendMessage(ctx, chatID, "alice", "hey bob")
	require.NoError(t, err)
	require.NotEmpty(t, msgID)

	var msg models.Message
	require.NoError(t, store.Get(ctx, treestore.MessagePath(chatID, msgID), &msg))
	assert.Equal(t, "alice", msg.SenderID)
	assert.Equal(t, "hey bob", msg.Content)
	assert.True(t, msg.Read["alice"], "sender has read their own message")
	assert.False(t, msg.Read["bob"])

	var chat models.Chat
	require.NoError(t, store.Get(ctx, treestore.ChatPath(chatID), &chat))
	assert.Equal(t, "hey bob", chat.LastMessage)
	assert.Equal(t, "alice", chat.LastMessageSender)
	assert.Equal(t, 1, chat.UnreadCount["bob"])
	assert.Equal(t, 0, chat.UnreadCount["alice"])

	_, _, err = writer.SendMessage(ctx, chatID, "alice", "still there?")
	require.NoError(t, err)
	var unread int
	require.NoError(t, store.Get(ctx, treestore.ChatUnreadCountPath(chatID, "bob"), &unread))
	assert.Equal(t, 2, unread)

	var notifs map[string]models.Notification
	require.NoError(t, store.Get(ctx, treestore.NotificationsPath("bob"), &notifs))
	require.Len(t, notifs, 2)
	for _, n := range notifs {
		assert.Equal(t, models.NotificationMessage, n.Type)
		assert.Equal(t, chatID, n.ChatID)
	}
}

func TestSendMessageRejectsOutsiders(t *testing.T) {
	store := treestore.NewMemoryStore()
	writer := NewWriter(store)
	ctx := context.Background()

	chatID, _, err := writer.CreateOrOpenChat(ctx, "alice", "bob")
	require.NoError(t, err)

	_, _, err = writer.SendMessage(ctx, chatID, "carol", "let me in")
	assert.EqualError(t, err, "not a participant of this chat")

	_, _, err = writer.SendMessage(ctx, "no-such-chat", "alice", "hello?")
	assert.EqualError(t, err, "chat not found")
}

func TestEnsureUserCreatesThenRefreshes(t *testing.T) {
	store := treestore.NewMemoryStore()
	writer := NewWriter(store)
	ctx := context.Background()

	require.NoError(t, writer.EnsureUser(ctx, models.User{UID: "alice", DisplayName: "Alice"}))

	var created models.User
	require.NoError(t, store.Get(ctx, treestore.UserPath("alice"), &created))
	assert.Equal(t, "Alice", created.DisplayName)
	assert.False(t, created.CreatedAt.IsZero())

	require.NoError(t, writer.EnsureUser(ctx, models.User{UID: "alice", DisplayName: "Someone Else"}))

	var after models.User
	require.NoError(t, store.Get(ctx, treestore.UserPath("alice"), &after))
	assert.Equal(t, "Alice", after.DisplayName, "resync must not overwrite the profile")
	assert.Equal(t, created.CreatedAt, after.CreatedAt)
	assert.False(t, after.LastLogin.Before(created.LastLogin))
}

func TestMarkAllNotificationsRead(t *testing.T) {
	store := treestore.NewMemoryStore()
	writer := NewWriter(store)
	ctx := context.Background()

	for i, read := range []bool{false, true, false} {
		err := store.Set(ctx, treestore.NotificationPath("alice", string(rune('a'+i))), models.Notification{
			Type:      models.NotificationLike,
			SenderID:  "bob",
			Timestamp: time.Now(),
			Read:      read,
		})
		require.NoError(t, err)
	}

	require.NoError(t, writer.MarkAllNotificationsRead(ctx, "alice"))

	var notifs map[string]models.Notification
	require.NoError(t, store.Get(ctx, treestore.NotificationsPath("alice"), &notifs))
	require.Len(t, notifs, 3)
	for id, n := range notifs {
		assert.True(t, n.Read, "notification %s still unread", id)
	}
}

func TestUpdateProfileAppliesOnlyProvidedFields(t *testing.T) {
	store := treestore.NewMemoryStore()
	writer := NewWriter(store)
	ctx := context.Background()
	seedUser(t, store, "alice", "alice")

	err := writer.UpdateProfile(ctx, "alice", models.UpdateProfileRequest{Bio: "traveling"})
	require.NoError(t, err)

	var user models.User
	require.NoError(t, store.Get(ctx, treestore.UserPath("alice"), &user))
	assert.Equal(t, "traveling", user.Bio)
	assert.Equal(t, "alice", user.Username)
}
