package fanout

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/anonto42/treegram/backend/internal/images"
	"github.com/anonto42/treegram/backend/internal/models"
	"github.com/anonto42/treegram/backend/internal/treestore"
)

// Writer translates one user intent into the set of path writes that keeps
// the denormalized counters and membership indices in sync. The store has
// no transactions: every sequence here is independent last-write-wins
// writes, and the derived counters are recomputed with read-then-write, so
// concurrent writers can race. Callers get one coarse error per operation;
// nothing is retried.
type Writer struct {
	store treestore.Store
}

// NewWriter creates a new Writer.
func NewWriter(store treestore.Store) *Writer {
	return &Writer{store: store}
}

// CreatePost resizes and inlines the image, writes the post record under a
// pushed key, then writes the author's index entry. The two writes are not
// atomic: a failure between them leaves an orphaned post or a dangling
// index entry.
func (w *Writer) CreatePost(ctx context.Context, uid, caption string, image []byte) (string, error) {
	dataURI, err := images.EncodeDataURI(image)
	if err != nil {
		return "", fmt.Errorf("failed to create post: %w", err)
	}

	post := models.Post{
		UserID:    uid,
		Caption:   caption,
		ImageURL:  dataURI,
		Timestamp: time.Now(),
	}
	postID, err := w.store.Push(ctx, treestore.PostsPath(), post)
	if err != nil {
		return "", fmt.Errorf("failed to create post: %w", err)
	}
	if err := w.store.Set(ctx, treestore.UserPostIndexPath(uid, postID), true); err != nil {
		return "", fmt.Errorf("failed to create post: %w", err)
	}
	return postID, nil
}

// ToggleLike writes or removes the liker entry in both like indices
// (posts/{id}/likedBy and the secondary likes/{postId} mirror), then
// re-reads the likedBy set and writes its size as the like counter. The
// recompute is not atomic with the membership write; two concurrent
// togglers can leave the counter below the true cardinality.
func (w *Writer) ToggleLike(ctx context.Context, postID, uid string, wasLiked bool) (bool, error) {
	if wasLiked {
		if err := w.store.Delete(ctx, treestore.PostLikedByUserPath(postID, uid)); err != nil {
			return wasLiked, fmt.Errorf("failed to update like: %w", err)
		}
		if err := w.store.Delete(ctx, treestore.LikeEdgePath(postID, uid)); err != nil {
			return wasLiked, fmt.Errorf("failed to update like: %w", err)
		}
	} else {
		if err := w.store.Set(ctx, treestore.PostLikedByUserPath(postID, uid), true); err != nil {
			return wasLiked, fmt.Errorf("failed to update like: %w", err)
		}
		if err := w.store.Set(ctx, treestore.LikeEdgePath(postID, uid), true); err != nil {
			return wasLiked, fmt.Errorf("failed to update like: %w", err)
		}
	}

	var likedBy map[string]bool
	if err := w.store.Get(ctx, treestore.PostLikedByPath(postID), &likedBy); err != nil {
		return !wasLiked, fmt.Errorf("failed to update like: %w", err)
	}
	if err := w.store.Set(ctx, treestore.PostLikesCountPath(postID), len(likedBy)); err != nil {
		return !wasLiked, fmt.Errorf("failed to update like: %w", err)
	}

	if !wasLiked {
		var post models.Post
		if err := w.store.Get(ctx, treestore.PostPath(postID), &post); err == nil {
			w.dispatchNotification(ctx, post.UserID, models.Notification{
				Type:      models.NotificationLike,
				SenderID:  uid,
				PostID:    postID,
				Timestamp: time.Now(),
			})
		}
	}
	return !wasLiked, nil
}

// AddComment pushes the comment under commentsData and recomputes the
// comment counter the same read-then-write way ToggleLike does.
func (w *Writer) AddComment(ctx context.Context, postID, uid, text string) (string, error) {
	var post models.Post
	if err := w.store.Get(ctx, treestore.PostPath(postID), &post); err != nil {
		return "", fmt.Errorf("failed to add comment: %w", err)
	}
	if post.UserID == "" {
		return "", fmt.Errorf("post not found")
	}

	comment := models.Comment{UserID: uid, Text: text, Timestamp: time.Now()}
	commentID, err := w.store.Push(ctx, treestore.PostCommentsDataPath(postID), comment)
	if err != nil {
		return "", fmt.Errorf("failed to add comment: %w", err)
	}

	var comments map[string]models.Comment
	if err := w.store.Get(ctx, treestore.PostCommentsDataPath(postID), &comments); err != nil {
		return "", fmt.Errorf("failed to add comment: %w", err)
	}
	if err := w.store.Set(ctx, treestore.PostCommentsCountPath(postID), len(comments)); err != nil {
		return "", fmt.Errorf("failed to add comment: %w", err)
	}

	w.dispatchNotification(ctx, post.UserID, models.Notification{
		Type:      models.NotificationComment,
		SenderID:  uid,
		PostID:    postID,
		CommentID: commentID,
		Timestamp: time.Now(),
	})
	return commentID, nil
}

// Follow mirrors the edge into both users' records. Set-typed writes make
// repeats idempotent; following twice cannot double count.
func (w *Writer) Follow(ctx context.Context, follower, followee string) error {
	if follower == followee {
		return fmt.Errorf("cannot follow yourself")
	}
	if err := w.store.Set(ctx, treestore.FollowingEdgePath(follower, followee), true); err != nil {
		return fmt.Errorf("failed to follow user: %w", err)
	}
	if err := w.store.Set(ctx, treestore.FollowerEdgePath(followee, follower), true); err != nil {
		return fmt.Errorf("failed to follow user: %w", err)
	}
	w.dispatchNotification(ctx, followee, models.Notification{
		Type:      models.NotificationFollow,
		SenderID:  follower,
		Timestamp: time.Now(),
	})
	return nil
}

// Unfollow removes both sides of the edge.
func (w *Writer) Unfollow(ctx context.Context, follower, followee string) error {
	if err := w.store.Delete(ctx, treestore.FollowingEdgePath(follower, followee)); err != nil {
		return fmt.Errorf("failed to unfollow user: %w", err)
	}
	if err := w.store.Delete(ctx, treestore.FollowerEdgePath(followee, follower)); err != nil {
		return fmt.Errorf("failed to unfollow user: %w", err)
	}
	return nil
}

// CreateStory inlines the image and pushes the story under the author's
// list. Stories are never deleted; expiry is applied at read time.
func (w *Writer) CreateStory(ctx context.Context, uid string, image []byte) (string, error) {
	dataURI, err := images.EncodeDataURI(image)
	if err != nil {
		return "", fmt.Errorf("failed to create story: %w", err)
	}
	story := models.Story{ImageURL: dataURI, Timestamp: time.Now()}
	storyID, err := w.store.Push(ctx, treestore.StoriesPath(uid), story)
	if err != nil {
		return "", fmt.Errorf("failed to create story: %w", err)
	}
	return storyID, nil
}

// MarkStoryViewed adds the viewer to the story's viewedBy set.
func (w *Writer) MarkStoryViewed(ctx context.Context, ownerID, storyID, viewer string) error {
	if err := w.store.Set(ctx, treestore.StoryViewedByPath(ownerID, storyID, viewer), true); err != nil {
		return fmt.Errorf("failed to mark story viewed: %w", err)
	}
	return nil
}

// CreateOrOpenChat returns the existing chat for the unordered pair, found
// by querying the chat index on the caller's participant entry and linearly
// scanning for the other user, or pushes a new chat when none exists.
func (w *Writer) CreateOrOpenChat(ctx context.Context, uid, other string) (string, models.Chat, error) {
	if uid == other {
		return "", models.Chat{}, fmt.Errorf("cannot open a chat with yourself")
	}

	var chats map[string]models.Chat
	err := w.store.QueryEqual(ctx, treestore.ChatsPath(), treestore.ChatParticipantChild(uid), true, &chats)
	if err != nil {
		return "", models.Chat{}, fmt.Errorf("failed to open chat: %w", err)
	}
	for chatID, chat := range chats {
		if chat.HasParticipant(other) {
			return chatID, chat, nil
		}
	}

	chat := models.Chat{
		Participants: map[string]bool{uid: true, other: true},
		UnreadCount:  map[string]int{uid: 0, other: 0},
	}
	chatID, err := w.store.Push(ctx, treestore.ChatsPath(), chat)
	if err != nil {
		return "", models.Chat{}, fmt.Errorf("failed to open chat: %w", err)
	}
	return chatID, chat, nil
}

// SendMessage pushes the message (already read by the sender), updates the
// chat's lastMessage fields, and bumps every other participant's unread
// counter with an unserialized read-then-write. Returns the message key and
// the chat as read before the send.
func (w *Writer) SendMessage(ctx context.Context, chatID, senderID, content string) (string, models.Chat, error) {
	var chat models.Chat
	if err := w.store.Get(ctx, treestore.ChatPath(chatID), &chat); err != nil {
		return "", chat, fmt.Errorf("failed to send message: %w", err)
	}
	if len(chat.Participants) == 0 {
		return "", chat, fmt.Errorf("chat not found")
	}
	if !chat.HasParticipant(senderID) {
		return "", chat, fmt.Errorf("not a participant of this chat")
	}

	now := time.Now()
	msg := models.Message{
		ChatID:    chatID,
		SenderID:  senderID,
		Content:   content,
		Timestamp: now,
		Read:      map[string]bool{senderID: true},
	}
	msgID, err := w.store.Push(ctx, treestore.MessagesPath(chatID), msg)
	if err != nil {
		return "", chat, fmt.Errorf("failed to send message: %w", err)
	}

	err = w.store.Update(ctx, treestore.ChatPath(chatID), map[string]interface{}{
		"lastMessage":          content,
		"lastMessageTimestamp": now,
		"lastMessageSender":    senderID,
	})
	if err != nil {
		return "", chat, fmt.Errorf("failed to send message: %w", err)
	}

	for participant := range chat.Participants {
		if participant == senderID {
			continue
		}
		var unread int
		if err := w.store.Get(ctx, treestore.ChatUnreadCountPath(chatID, participant), &unread); err != nil {
			return "", chat, fmt.Errorf("failed to send message: %w", err)
		}
		if err := w.store.Set(ctx, treestore.ChatUnreadCountPath(chatID, participant), unread+1); err != nil {
			return "", chat, fmt.Errorf("failed to send message: %w", err)
		}
		w.dispatchNotification(ctx, participant, models.Notification{
			Type:      models.NotificationMessage,
			SenderID:  senderID,
			ChatID:    chatID,
			Timestamp: now,
		})
	}
	return msgID, chat, nil
}

// MarkNotificationRead flags one notification as read.
func (w *Writer) MarkNotificationRead(ctx context.Context, uid, notifID string) error {
	if err := w.store.Set(ctx, treestore.NotificationReadPath(uid, notifID), true); err != nil {
		return fmt.Errorf("failed to update notification: %w", err)
	}
	return nil
}

// MarkAllNotificationsRead flags every unread notification of uid as read.
func (w *Writer) MarkAllNotificationsRead(ctx context.Context, uid string) error {
	var notifs map[string]models.Notification
	if err := w.store.Get(ctx, treestore.NotificationsPath(uid), &notifs); err != nil {
		return fmt.Errorf("failed to update notifications: %w", err)
	}
	for notifID, n := range notifs {
		if n.Read {
			continue
		}
		if err := w.store.Set(ctx, treestore.NotificationReadPath(uid, notifID), true); err != nil {
			return fmt.Errorf("failed to update notifications: %w", err)
		}
	}
	return nil
}

// EnsureUser creates the user record on first sight of a uid and refreshes
// lastLogin on subsequent ones.
func (w *Writer) EnsureUser(ctx context.Context, user models.User) error {
	var existing models.User
	if err := w.store.Get(ctx, treestore.UserPath(user.UID), &existing); err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}
	now := time.Now()
	if existing.UID == "" {
		user.CreatedAt = now
		user.LastLogin = now
		if err := w.store.Set(ctx, treestore.UserPath(user.UID), user); err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		return nil
	}
	err := w.store.Update(ctx, treestore.UserPath(user.UID), map[string]interface{}{"lastLogin": now})
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

// UpdateProfile applies the non-empty fields of req to the user record.
func (w *Writer) UpdateProfile(ctx context.Context, uid string, req models.UpdateProfileRequest) error {
	values := make(map[string]interface{})
	if req.DisplayName != "" {
		values["displayName"] = req.DisplayName
	}
	if req.Username != "" {
		values["username"] = req.Username
	}
	if req.Bio != "" {
		values["bio"] = req.Bio
	}
	if req.Website != "" {
		values["website"] = req.Website
	}
	if req.Location != "" {
		values["location"] = req.Location
	}
	if req.PhotoURL != "" {
		values["photoURL"] = req.PhotoURL
	}
	if len(values) == 0 {
		return nil
	}
	if err := w.store.Update(ctx, treestore.UserPath(uid), values); err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return nil
}

// dispatchNotification is fire-and-forget: never sent to self, failures
// are logged and swallowed, nothing is retried.
func (w *Writer) dispatchNotification(ctx context.Context, recipient string, n models.Notification) {
	if recipient == "" || recipient == n.SenderID {
		return
	}
	if _, err := w.store.Push(ctx, treestore.NotificationsPath(recipient), n); err != nil {
		log.Printf("fanout: failed to deliver %s notification to %s: %v", n.Type, recipient, err)
	}
}
