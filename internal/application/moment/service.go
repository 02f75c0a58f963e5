package moment

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-socfony/internal/domain"
	"github.com/go-socfony/internal/pkg/id"
	"github.com/go-socfony/internal/pkg/validate"
)

const (
	DefaultTake       = 15
	MaxTake           = 100
	MaxSkip           = 10 * MaxTake
	MaxCommentLength  = 2000
	maxMediaPerMoment = 9
)

type Service interface {
	Get(ctx context.Context, momentID string) (*domain.Moment, error)
	// List returns moments newest first plus the cursor of the next page.
	List(ctx context.Context, q domain.MomentQuery) ([]domain.Moment, string, error)
	Create(ctx context.Context, userID string, req domain.CreateMomentRequest) (*domain.Moment, error)
	Like(ctx context.Context, userID, momentID string) (*domain.Moment, error)
	Unlike(ctx context.Context, userID, momentID string) error
	CreateComment(ctx context.Context, userID, momentID, content string) (*domain.Comment, error)
	DeleteComment(ctx context.Context, userID, commentID string) error

	// Author resolves the user behind a moment or comment.
	Author(ctx context.Context, userID string) (*domain.User, error)
	// Authors batch-resolves distinct user ids, keyed by id.
	Authors(ctx context.Context, userIDs []string) (map[string]*domain.User, error)
	LikedUsers(ctx context.Context, momentID string, take, skip int) ([]domain.User, error)
	Comments(ctx context.Context, momentID string, take, skip int) ([]domain.Comment, error)
	Liked(ctx context.Context, viewerID, momentID string) (bool, error)
}

type momentStore interface {
	Create(ctx context.Context, m *domain.Moment) error
	Get(ctx context.Context, momentID string) (*domain.Moment, error)
	List(ctx context.Context, q domain.MomentQuery) ([]domain.Moment, string, error)
}

type likeStore interface {
	Upsert(ctx context.Context, l *domain.MomentLike) (bool, error)
	Delete(ctx context.Context, momentID, userID string) error
	Exists(ctx context.Context, momentID, userID string) (bool, error)
	ListByMoment(ctx context.Context, momentID string, take, skip int) ([]domain.MomentLike, error)
}

type commentStore interface {
	Create(ctx context.Context, c *domain.Comment) error
	Get(ctx context.Context, commentID string) (*domain.Comment, error)
	Delete(ctx context.Context, commentID string) error
	ListByMoment(ctx context.Context, momentID string, take, skip int) ([]domain.Comment, error)
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	BatchGet(ctx context.Context, ids []string) ([]domain.User, error)
}

type ServiceDeps struct {
	MomentRepo  momentStore
	LikeRepo    likeStore
	CommentRepo commentStore
	UserRepo    userStore
	Now         func() time.Time
}

type service struct {
	moments  momentStore
	likes    likeStore
	comments commentStore
	users    userStore
	now      func() time.Time
}

func NewService(deps ServiceDeps) Service {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		moments:  deps.MomentRepo,
		likes:    deps.LikeRepo,
		comments: deps.CommentRepo,
		users:    deps.UserRepo,
		now:      now,
	}
}

// NormalizeTake clamps a requested page size to [1, MaxTake], defaulting to DefaultTake.
func NormalizeTake(take int) int {
	switch {
	case take <= 0:
		return DefaultTake
	case take > MaxTake:
		return MaxTake
	}
	return take
}

// normalizeSkip floors a requested offset at zero. Offsets past MaxSkip are
// refused since every skipped row is still read from the table.
func normalizeSkip(skip int) (int, error) {
	if skip > MaxSkip {
		return 0, fmt.Errorf("skip must not exceed %d: %w", MaxSkip, domain.ErrBadRequest)
	}
	return max(skip, 0), nil
}

func (s *service) Get(ctx context.Context, momentID string) (*domain.Moment, error) {
	return s.moments.Get(ctx, momentID)
}

func (s *service) List(ctx context.Context, q domain.MomentQuery) ([]domain.Moment, string, error) {
	q.Take = NormalizeTake(q.Take)
	q.Title = strings.TrimSpace(q.Title)
	return s.moments.List(ctx, q)
}

func (s *service) Create(ctx context.Context, userID string, req domain.CreateMomentRequest) (*domain.Moment, error) {
	title := trimToNil(req.Title)
	content := trimToNil(req.Content)
	if len(req.Media) > maxMediaPerMoment {
		return nil, fmt.Errorf("at most %d media per moment: %w", maxMediaPerMoment, domain.ErrBadRequest)
	}
	for _, m := range req.Media {
		if !validate.ID(m) {
			return nil, fmt.Errorf("invalid media id %q: %w", m, domain.ErrBadRequest)
		}
	}
	if title == nil && content == nil && len(req.Media) == 0 {
		return nil, fmt.Errorf("a moment needs a title, content or media: %w", domain.ErrBadRequest)
	}

	momentID, err := id.Long()
	if err != nil {
		return nil, err
	}
	m := &domain.Moment{
		MomentID:  momentID,
		UserID:    userID,
		Title:     title,
		Content:   content,
		Media:     append([]string{}, req.Media...),
		CreatedAt: s.now().UTC(),
	}
	if err := s.moments.Create(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *service) Like(ctx context.Context, userID, momentID string) (*domain.Moment, error) {
	m, err := s.moments.Get(ctx, momentID)
	if err != nil {
		return nil, err
	}
	if _, err := s.likes.Upsert(ctx, &domain.MomentLike{
		MomentID:  momentID,
		UserID:    userID,
		CreatedAt: s.now().UTC(),
	}); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *service) Unlike(ctx context.Context, userID, momentID string) error {
	return s.likes.Delete(ctx, momentID, userID)
}

func (s *service) CreateComment(ctx context.Context, userID, momentID, content string) (*domain.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("comment content is required: %w", domain.ErrBadRequest)
	}
	if utf8.RuneCountInString(content) > MaxCommentLength {
		return nil, fmt.Errorf("comment exceeds %d characters: %w", MaxCommentLength, domain.ErrBadRequest)
	}
	if _, err := s.moments.Get(ctx, momentID); err != nil {
		return nil, err
	}

	commentID, err := id.Long()
	if err != nil {
		return nil, err
	}
	c := &domain.Comment{
		CommentID: commentID,
		MomentID:  momentID,
		UserID:    userID,
		Content:   content,
		CreatedAt: s.now().UTC(),
	}
	if err := s.comments.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *service) DeleteComment(ctx context.Context, userID, commentID string) error {
	c, err := s.comments.Get(ctx, commentID)
	if err != nil {
		return err
	}
	if c.UserID != userID {
		return fmt.Errorf("only the author can delete a comment: %w", domain.ErrForbidden)
	}
	return s.comments.Delete(ctx, commentID)
}

func (s *service) Author(ctx context.Context, userID string) (*domain.User, error) {
	return s.users.Get(ctx, userID)
}

func (s *service) Authors(ctx context.Context, userIDs []string) (map[string]*domain.User, error) {
	seen := make(map[string]bool, len(userIDs))
	ids := make([]string, 0, len(userIDs))
	for _, uid := range userIDs {
		if uid != "" && !seen[uid] {
			seen[uid] = true
			ids = append(ids, uid)
		}
	}
	out := make(map[string]*domain.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	users, err := s.users.BatchGet(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range users {
		out[users[i].UserID] = &users[i]
	}
	return out, nil
}

func (s *service) LikedUsers(ctx context.Context, momentID string, take, skip int) ([]domain.User, error) {
	skip, err := normalizeSkip(skip)
	if err != nil {
		return nil, err
	}
	likes, err := s.likes.ListByMoment(ctx, momentID, NormalizeTake(take), skip)
	if err != nil {
		return nil, err
	}
	if len(likes) == 0 {
		return []domain.User{}, nil
	}
	ids := make([]string, len(likes))
	for i, l := range likes {
		ids[i] = l.UserID
	}
	return s.users.BatchGet(ctx, ids)
}

func (s *service) Comments(ctx context.Context, momentID string, take, skip int) ([]domain.Comment, error) {
	skip, err := normalizeSkip(skip)
	if err != nil {
		return nil, err
	}
	return s.comments.ListByMoment(ctx, momentID, NormalizeTake(take), skip)
}

func (s *service) Liked(ctx context.Context, viewerID, momentID string) (bool, error) {
	if viewerID == "" {
		return false, nil
	}
	return s.likes.Exists(ctx, momentID, viewerID)
}

func trimToNil(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}
