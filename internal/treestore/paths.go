package treestore

// Path schema. Every component addresses the tree through these builders;
// nothing else in the codebase concatenates path segments by hand.

// UserPath is the authoritative user record.
func UserPath(uid string) string { return "users/" + uid }

// UserPostIndexPath marks postID in the author's denormalized post index.
// The index entry implies an existing record at PostPath(postID).
func UserPostIndexPath(uid, postID string) string { return "users/" + uid + "/posts/" + postID }

// UserPostsPath is the author's whole post index (map postID -> true).
func UserPostsPath(uid string) string { return "users/" + uid + "/posts" }

// UserFollowingPath is the set of users uid follows (map uid -> true).
func UserFollowingPath(uid string) string { return "users/" + uid + "/following" }

// UserFollowersPath is the set of users following uid (map uid -> true).
func UserFollowersPath(uid string) string { return "users/" + uid + "/followers" }

// FollowingEdgePath is follower's side of a follow edge.
func FollowingEdgePath(follower, followee string) string {
	return "users/" + follower + "/following/" + followee
}

// FollowerEdgePath is the followee's mirrored side of the same edge.
func FollowerEdgePath(followee, follower string) string {
	return "users/" + followee + "/followers/" + follower
}

// PostsPath is the global post collection.
func PostsPath() string { return "posts" }

// PostPath is the authoritative post record.
func PostPath(postID string) string { return "posts/" + postID }

// PostLikedByPath is the per-post liker set (map uid -> true).
func PostLikedByPath(postID string) string { return "posts/" + postID + "/likedBy" }

// PostLikedByUserPath is a single liker entry.
func PostLikedByUserPath(postID, uid string) string { return "posts/" + postID + "/likedBy/" + uid }

// PostLikesCountPath holds the derived like counter, maintained manually
// as the size of the likedBy set.
func PostLikesCountPath(postID string) string { return "posts/" + postID + "/likes" }

// PostCommentsDataPath holds the comment records (map commentID -> Comment).
func PostCommentsDataPath(postID string) string { return "posts/" + postID + "/commentsData" }

// PostCommentsCountPath holds the derived comment counter.
func PostCommentsCountPath(postID string) string { return "posts/" + postID + "/comments" }

// LikeEdgePath is the secondary like index mirroring PostLikedByUserPath.
// Both locations are maintained on every toggle.
func LikeEdgePath(postID, uid string) string { return "likes/" + postID + "/" + uid }

// StoriesPath is a user's story list (map storyID -> Story).
func StoriesPath(uid string) string { return "stories/" + uid }

// StoryPath is a single story record.
func StoryPath(uid, storyID string) string { return "stories/" + uid + "/" + storyID }

// StoryViewedByPath marks viewer on a story.
func StoryViewedByPath(uid, storyID, viewer string) string {
	return "stories/" + uid + "/" + storyID + "/viewedBy/" + viewer
}

// NotificationsPath is a user's notification list.
func NotificationsPath(uid string) string { return "notifications/" + uid }

// NotificationPath is a single notification record.
func NotificationPath(uid, notifID string) string { return "notifications/" + uid + "/" + notifID }

// NotificationReadPath is the read flag on a notification.
func NotificationReadPath(uid, notifID string) string {
	return "notifications/" + uid + "/" + notifID + "/read"
}

// ChatsPath is the chat index.
func ChatsPath() string { return "userChats" }

// ChatPath is a single chat record.
func ChatPath(chatID string) string { return "userChats/" + chatID }

// ChatParticipantChild is the child path used to query the chat index by
// participant (orderByChild "participants/{uid}" equalTo true).
func ChatParticipantChild(uid string) string { return "participants/" + uid }

// ChatUnreadCountPath is the per-participant unread counter on a chat.
func ChatUnreadCountPath(chatID, uid string) string {
	return "userChats/" + chatID + "/unreadCount/" + uid
}

// MessagesPath is a chat's message list (map msgID -> Message).
func MessagesPath(chatID string) string { return "messages/" + chatID }

// MessagePath is a single message record.
func MessagePath(chatID, msgID string) string { return "messages/" + chatID + "/" + msgID }

// MessageReadPath marks a message read by uid.
func MessageReadPath(chatID, msgID, uid string) string {
	return "messages/" + chatID + "/" + msgID + "/read/" + uid
}
