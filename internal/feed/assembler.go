package feed

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/anonto42/treegram/backend/internal/models"
	"github.com/anonto42/treegram/backend/internal/treestore"
)

// DefaultFeedLimit is the feed size when the caller does not specify one.
const DefaultFeedLimit = 20

// Assembler materializes chronological views by walking the denormalized
// indices: follow list, per-user post index, then one dereference per post
// plus one author lookup. The traversal is join-on-read and strictly
// sequential; there is no pre-materialized timeline. Any read failure
// aborts the whole assembly with a single coarse error.
type Assembler struct {
	store treestore.Store
}

// NewAssembler creates a new Assembler.
func NewAssembler(store treestore.Store) *Assembler {
	return &Assembler{store: store}
}

// FeedPost is a dereferenced post with its author attached.
type FeedPost struct {
	ID string `json:"id"`
	models.Post
	Author models.UserCompact `json:"author"`
}

// FeedStory is a dereferenced story with its author attached.
type FeedStory struct {
	ID string `json:"id"`
	models.Story
	Author models.UserCompact `json:"author"`
}

// FetchFeedPosts returns the posts of everyone uid follows, plus uid's own,
// in strictly non-increasing timestamp order, truncated to limit. Ties keep
// the traversal order of a single call.
func (a *Assembler) FetchFeedPosts(ctx context.Context, uid string, limit int) ([]FeedPost, error) {
	if limit <= 0 {
		limit = DefaultFeedLimit
	}

	sources, err := a.feedSources(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("failed to load feed: %w", err)
	}

	authors := make(map[string]models.UserCompact)
	var posts []FeedPost
	for _, source := range sources {
		var index map[string]bool
		if err := a.store.Get(ctx, treestore.UserPostsPath(source), &index); err != nil {
			return nil, fmt.Errorf("failed to load feed: %w", err)
		}
		for _, postID := range sortedKeys(index) {
			post, err := a.dereferencePost(ctx, postID, authors)
			if err != nil {
				return nil, fmt.Errorf("failed to load feed: %w", err)
			}
			posts = append(posts, post)
		}
	}

	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].Timestamp.After(posts[j].Timestamp)
	})
	if len(posts) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}

// FetchStories returns the unexpired stories of uid and everyone they
// follow, newest first. The 24h cutoff is computed once per call and
// applied per story; expired stories remain in the store.
func (a *Assembler) FetchStories(ctx context.Context, uid string) ([]FeedStory, error) {
	sources, err := a.feedSources(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("failed to load stories: %w", err)
	}

	cutoff := time.Now().Add(-models.StoryTTL)
	authors := make(map[string]models.UserCompact)
	var stories []FeedStory
	for _, source := range sources {
		var byID map[string]models.Story
		if err := a.store.Get(ctx, treestore.StoriesPath(source), &byID); err != nil {
			return nil, fmt.Errorf("failed to load stories: %w", err)
		}
		for _, storyID := range sortedKeys(byID) {
			story := byID[storyID]
			if story.Expired(cutoff) {
				continue
			}
			author, err := a.author(ctx, source, authors)
			if err != nil {
				return nil, fmt.Errorf("failed to load stories: %w", err)
			}
			stories = append(stories, FeedStory{ID: storyID, Story: story, Author: author})
		}
	}

	sort.SliceStable(stories, func(i, j int) bool {
		return stories[i].Timestamp.After(stories[j].Timestamp)
	})
	return stories, nil
}

// GetPost dereferences one post with its author.
func (a *Assembler) GetPost(ctx context.Context, postID string) (FeedPost, error) {
	post, err := a.dereferencePost(ctx, postID, make(map[string]models.UserCompact))
	if err != nil {
		return FeedPost{}, err
	}
	return post, nil
}

// FetchUserPosts returns one user's own posts, newest first.
func (a *Assembler) FetchUserPosts(ctx context.Context, uid string) ([]FeedPost, error) {
	var index map[string]bool
	if err := a.store.Get(ctx, treestore.UserPostsPath(uid), &index); err != nil {
		return nil, fmt.Errorf("failed to load posts: %w", err)
	}
	authors := make(map[string]models.UserCompact)
	var posts []FeedPost
	for _, postID := range sortedKeys(index) {
		post, err := a.dereferencePost(ctx, postID, authors)
		if err != nil {
			return nil, fmt.Errorf("failed to load posts: %w", err)
		}
		posts = append(posts, post)
	}
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].Timestamp.After(posts[j].Timestamp)
	})
	return posts, nil
}

// ListComments returns a post's comments oldest first.
func (a *Assembler) ListComments(ctx context.Context, postID string) ([]CommentEntry, error) {
	var data map[string]models.Comment
	if err := a.store.Get(ctx, treestore.PostCommentsDataPath(postID), &data); err != nil {
		return nil, fmt.Errorf("failed to load comments: %w", err)
	}
	authors := make(map[string]models.UserCompact)
	comments := make([]CommentEntry, 0, len(data))
	for id, c := range data {
		author, err := a.author(ctx, c.UserID, authors)
		if err != nil {
			return nil, fmt.Errorf("failed to load comments: %w", err)
		}
		comments = append(comments, CommentEntry{ID: id, Comment: c, Author: author})
	}
	sort.SliceStable(comments, func(i, j int) bool {
		return comments[i].Timestamp.Before(comments[j].Timestamp)
	})
	return comments, nil
}

// CommentEntry is a comment with its key and author attached.
type CommentEntry struct {
	ID string `json:"id"`
	models.Comment
	Author models.UserCompact `json:"author"`
}

// GetProfile returns the user record at users/{uid}.
func (a *Assembler) GetProfile(ctx context.Context, uid string) (models.User, error) {
	var user models.User
	if err := a.store.Get(ctx, treestore.UserPath(uid), &user); err != nil {
		return models.User{}, fmt.Errorf("failed to load profile: %w", err)
	}
	if user.UID == "" {
		return models.User{}, fmt.Errorf("user not found")
	}
	return user, nil
}

// SearchUsers finds users by exact username.
func (a *Assembler) SearchUsers(ctx context.Context, username string) ([]models.User, error) {
	var byUID map[string]models.User
	err := a.store.QueryEqual(ctx, "users", "username", username, &byUID)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	users := make([]models.User, 0, len(byUID))
	for _, uid := range sortedKeys(byUID) {
		users = append(users, byUID[uid])
	}
	return users, nil
}

// NotificationEntry is a notification with its key attached.
type NotificationEntry struct {
	ID string `json:"id"`
	models.Notification
}

// FetchNotifications returns uid's notifications newest first, plus the
// unread count.
func (a *Assembler) FetchNotifications(ctx context.Context, uid string) ([]NotificationEntry, int, error) {
	var byID map[string]models.Notification
	if err := a.store.Get(ctx, treestore.NotificationsPath(uid), &byID); err != nil {
		return nil, 0, fmt.Errorf("failed to load notifications: %w", err)
	}
	entries := make([]NotificationEntry, 0, len(byID))
	unread := 0
	for id, n := range byID {
		if !n.Read {
			unread++
		}
		entries = append(entries, NotificationEntry{ID: id, Notification: n})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
	return entries, unread, nil
}

// feedSources is the follow list unioned with uid itself, in a stable order.
func (a *Assembler) feedSources(ctx context.Context, uid string) ([]string, error) {
	var following map[string]bool
	if err := a.store.Get(ctx, treestore.UserFollowingPath(uid), &following); err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(following)+1)
	for id, ok := range following {
		if ok {
			set[id] = true
		}
	}
	set[uid] = true // self-inclusion
	return sortedKeys(set), nil
}

// dereferencePost reads the post record and its author, using authors as a
// per-call cache.
func (a *Assembler) dereferencePost(ctx context.Context, postID string, authors map[string]models.UserCompact) (FeedPost, error) {
	var post models.Post
	if err := a.store.Get(ctx, treestore.PostPath(postID), &post); err != nil {
		return FeedPost{}, err
	}
	if post.UserID == "" {
		return FeedPost{}, fmt.Errorf("post not found")
	}
	author, err := a.author(ctx, post.UserID, authors)
	if err != nil {
		return FeedPost{}, err
	}
	return FeedPost{ID: postID, Post: post, Author: author}, nil
}

func (a *Assembler) author(ctx context.Context, uid string, cache map[string]models.UserCompact) (models.UserCompact, error) {
	if author, ok := cache[uid]; ok {
		return author, nil
	}
	var user models.User
	if err := a.store.Get(ctx, treestore.UserPath(uid), &user); err != nil {
		return models.UserCompact{}, err
	}
	if user.UID == "" {
		return models.UserCompact{}, fmt.Errorf("user not found")
	}
	author := user.ToCompact()
	cache[uid] = author
	return author, nil
}

// sortedKeys fixes the traversal order of a snapshot map; the store does
// not guarantee child ordering, so this is what makes ties stable within
// one call.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
