package events

// Inbound events.
const (
	EventJoinChat              = "joinChat"
	EventLeaveChat             = "leaveChat"
	EventTyping                = "typing"
	EventStopTyping            = "stopTyping"
	EventSendMessage           = "sendMessage"
	EventPostLiked             = "postLiked"
	EventNewComment            = "newComment"
	EventNewFollower           = "newFollower"
	EventNewStory              = "newStory"
	EventViewStory             = "viewStory"
	EventLikeStory             = "likeStory"
	EventMarkNotificationsRead = "markNotificationsRead"
)

// Outbound events.
const (
	EventNewMessage           = "newMessage"
	EventMessageError         = "messageError"
	EventNewNotification      = "newNotification"
	EventUnreadCountUpdated   = "unreadCountUpdated"
	EventNotificationError    = "notificationError"
	EventPendingNotifications = "pendingNotifications"
	EventStoryAdded           = "storyAdded"
	EventStoryViewed          = "storyViewed"
	EventStoryLiked           = "storyLiked"
)

// ChatRoom is the gateway room of a chat. The prefix keeps chat rooms apart
// from personal rooms, which are plain user ids.
func ChatRoom(chatID string) string {
	return "chat:" + chatID
}
