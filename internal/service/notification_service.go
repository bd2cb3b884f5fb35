package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"socialhub/internal/domain"
)

// Outcome says what a create call did to the ledger.
type Outcome int

const (
	// OutcomeSkipped means no row was touched (self-notification).
	OutcomeSkipped Outcome = iota
	OutcomeCreated
	OutcomeMerged
	// OutcomeSuppressed means a row already covered the event.
	OutcomeSuppressed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCreated:
		return "created"
	case OutcomeMerged:
		return "merged"
	case OutcomeSuppressed:
		return "suppressed"
	default:
		return "skipped"
	}
}

// Pushable reports whether the recipient should be told about the change.
func (o Outcome) Pushable() bool {
	return o == OutcomeCreated || o == OutcomeMerged
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 50
)

type NotificationService struct {
	notifications domain.NotificationRepository
	users         domain.UserRepository
	posts         domain.PostRepository
	window        time.Duration
	now           func() time.Time
	log           *slog.Logger
}

type NotificationOption func(*NotificationService)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) NotificationOption {
	return func(s *NotificationService) { s.now = now }
}

func WithDedupWindow(d time.Duration) NotificationOption {
	return func(s *NotificationService) {
		if d > 0 {
			s.window = d
		}
	}
}

func NewNotificationService(
	notifications domain.NotificationRepository,
	users domain.UserRepository,
	posts domain.PostRepository,
	log *slog.Logger,
	opts ...NotificationOption,
) *NotificationService {
	s := &NotificationService{
		notifications: notifications,
		users:         users,
		posts:         posts,
		window:        domain.DedupWindow,
		now:           time.Now,
		log:           log.With("component", "notifications"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type CreateNotificationInput struct {
	Recipient string
	Sender    string
	Type      domain.NotificationType
	EntityID  string
	Excerpt   string
	Metadata  domain.Metadata
}

// Create records an event in the recipient's ledger. Within the dedup window
// an event with the same aggregation key either merges into the existing row
// (aggregable types) or is suppressed. Lookup and write are one atomic step.
func (s *NotificationService) Create(ctx context.Context, in CreateNotificationInput) (*domain.Notification, Outcome, error) {
	if in.Recipient == "" || in.Sender == "" {
		return nil, OutcomeSkipped, domain.Invalid("recipient and sender are required")
	}
	if !in.Type.Valid() {
		return nil, OutcomeSkipped, domain.Invalid(fmt.Sprintf("unknown notification type %q", in.Type))
	}
	if in.Recipient == in.Sender {
		return nil, OutcomeSkipped, nil
	}
	meta := in.Metadata
	if meta == nil {
		m, err := domain.DecodeMetadata(in.Type, nil)
		if err != nil {
			return nil, OutcomeSkipped, err
		}
		meta = m
	}
	if meta.NotificationType() != in.Type {
		return nil, OutcomeSkipped, domain.Invalid("metadata does not match notification type")
	}

	now := s.now().UTC()
	key := domain.AggregationKey(in.Recipient, in.Sender, in.Type, in.EntityID)
	outcome := OutcomeSuppressed

	n, err := s.notifications.Upsert(ctx, key, now.Add(-s.window), func(existing *domain.Notification) (*domain.Notification, bool) {
		if existing == nil {
			if agg, ok := meta.(domain.Aggregated); ok {
				*agg.Aggregate() = domain.Seed(in.Sender)
			}
			outcome = OutcomeCreated
			return &domain.Notification{
				ID:        uuid.NewString(),
				Recipient: in.Recipient,
				Sender:    in.Sender,
				Type:      in.Type,
				EntityID:  in.EntityID,
				Excerpt:   in.Excerpt,
				Metadata:  meta,
				CreatedAt: now,
				UpdatedAt: now,
			}, true
		}

		agg, ok := existing.Metadata.(domain.Aggregated)
		if !ok {
			outcome = OutcomeSuppressed
			return existing, false
		}
		if agg.Aggregate().Add(in.Sender) {
			outcome = OutcomeMerged
			existing.IsRead = false
		}
		existing.UpdatedAt = now
		return existing, true
	})
	if err != nil {
		return nil, OutcomeSkipped, fmt.Errorf("upsert notification: %w", err)
	}

	s.enrich(ctx, []*domain.Notification{n})
	return n, outcome, nil
}

// NotifyLike records that likerID liked postID. The post author is looked up,
// never taken from the caller.
func (s *NotificationService) NotifyLike(ctx context.Context, postID, likerID string) (*domain.Notification, Outcome, error) {
	post, err := s.post(ctx, postID)
	if err != nil {
		return nil, OutcomeSkipped, err
	}
	return s.Create(ctx, CreateNotificationInput{
		Recipient: post.AuthorID,
		Sender:    likerID,
		Type:      domain.TypeLike,
		EntityID:  post.ID,
		Metadata: &domain.LikeMetadata{
			PostID:        post.ID,
			PostTitle:     post.Title,
			PostThumbnail: post.Thumbnail,
		},
	})
}

func (s *NotificationService) NotifyComment(ctx context.Context, postID, commenterID, content string) (*domain.Notification, Outcome, error) {
	excerpt := domain.Truncate(content, domain.CommentExcerptLen)
	if excerpt == "" {
		return nil, OutcomeSkipped, domain.Invalid("comment content is empty")
	}
	post, err := s.post(ctx, postID)
	if err != nil {
		return nil, OutcomeSkipped, err
	}
	return s.Create(ctx, CreateNotificationInput{
		Recipient: post.AuthorID,
		Sender:    commenterID,
		Type:      domain.TypeComment,
		EntityID:  post.ID,
		Excerpt:   excerpt,
		Metadata: &domain.CommentMetadata{
			PostID:        post.ID,
			PostTitle:     post.Title,
			PostThumbnail: post.Thumbnail,
			Comment:       excerpt,
		},
	})
}

func (s *NotificationService) NotifyMessage(ctx context.Context, chatID, senderID, receiverID, content string) (*domain.Notification, Outcome, error) {
	return s.Create(ctx, CreateNotificationInput{
		Recipient: receiverID,
		Sender:    senderID,
		Type:      domain.TypeMessage,
		EntityID:  chatID,
		Metadata: &domain.MessageMetadata{
			ChatID:         chatID,
			MessagePreview: domain.Truncate(content, domain.MessagePreviewLen),
		},
	})
}

func (s *NotificationService) NotifyFollow(ctx context.Context, followerID, followedID string) (*domain.Notification, Outcome, error) {
	if followerID == followedID {
		return nil, OutcomeSkipped, nil
	}
	if _, err := s.users.GetByID(ctx, followedID); err != nil {
		return nil, OutcomeSkipped, fmt.Errorf("get followed user: %w", err)
	}
	return s.Create(ctx, CreateNotificationInput{
		Recipient: followedID,
		Sender:    followerID,
		Type:      domain.TypeFollow,
		Metadata:  &domain.FollowMetadata{FollowerID: followerID},
	})
}

func (s *NotificationService) NotifyStoryUpload(ctx context.Context, story *domain.Story, followerID string) (*domain.Notification, Outcome, error) {
	return s.Create(ctx, CreateNotificationInput{
		Recipient: followerID,
		Sender:    story.AuthorID,
		Type:      domain.TypeStoryUpload,
		EntityID:  story.ID,
		Metadata:  &domain.StoryUploadMetadata{StoryID: story.ID},
	})
}

func (s *NotificationService) NotifyStoryLike(ctx context.Context, story *domain.Story, likerID string) (*domain.Notification, Outcome, error) {
	return s.Create(ctx, CreateNotificationInput{
		Recipient: story.AuthorID,
		Sender:    likerID,
		Type:      domain.TypeStoryLike,
		EntityID:  story.ID,
		Metadata:  &domain.StoryLikeMetadata{StoryID: story.ID},
	})
}

// List returns one page of userID's notifications, newest first. page is 1-based.
func (s *NotificationService) List(ctx context.Context, userID string, page, pageSize int) (*domain.NotificationPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	items, err := s.notifications.ListForRecipient(ctx, userID, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	total, err := s.notifications.CountForRecipient(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count notifications: %w", err)
	}
	unread, err := s.notifications.CountUnread(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count unread: %w", err)
	}

	s.enrich(ctx, items)
	return &domain.NotificationPage{
		Notifications: items,
		Total:         total,
		UnreadCount:   unread,
		HasMore:       total > page*pageSize,
	}, nil
}

// MarkAsRead marks the caller's own notifications among ids and returns the
// resulting unread count. An empty list changes nothing.
func (s *NotificationService) MarkAsRead(ctx context.Context, userID string, ids []string) (int, error) {
	ids = lo.Uniq(lo.Compact(lo.Map(ids, func(id string, _ int) string {
		return strings.TrimSpace(id)
	})))
	if len(ids) > 0 {
		if _, err := s.notifications.MarkRead(ctx, userID, ids); err != nil {
			return 0, fmt.Errorf("mark read: %w", err)
		}
	}
	return s.UnreadCount(ctx, userID)
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID string) (int64, error) {
	n, err := s.notifications.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("mark all read: %w", err)
	}
	return n, nil
}

// Delete removes id if userID owns it and reports whether anything was removed.
func (s *NotificationService) Delete(ctx context.Context, userID, id string) (bool, error) {
	ok, err := s.notifications.Delete(ctx, userID, id)
	if err != nil {
		return false, fmt.Errorf("delete notification: %w", err)
	}
	return ok, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	n, err := s.notifications.CountUnread(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return n, nil
}

func (s *NotificationService) post(ctx context.Context, postID string) (*domain.Post, error) {
	if strings.TrimSpace(postID) == "" {
		return nil, domain.Invalid("postId is required")
	}
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	return post, nil
}

// enrich attaches sender profiles. Lookup failures leave the profile empty.
func (s *NotificationService) enrich(ctx context.Context, items []*domain.Notification) {
	profiles := make(map[string]*domain.User)
	for _, n := range items {
		u, seen := profiles[n.Sender]
		if !seen {
			var err error
			u, err = s.users.GetByID(ctx, n.Sender)
			if err != nil && !errors.Is(err, domain.ErrNotFound) {
				s.log.Warn("sender profile lookup failed", "user_id", n.Sender, "err", err)
			}
			profiles[n.Sender] = u
		}
		n.SenderProfile = u
	}
}
