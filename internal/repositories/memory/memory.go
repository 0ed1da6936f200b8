// Package memory provides an in-memory Store used by the service tests.
// Transactions are snapshot-based: InTx clones the state up front and
// restores the clone when the callback fails, giving the same
// all-or-nothing semantics the Postgres store gets from real transactions.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lunaro-social/backend/internal/models"
	"github.com/lunaro-social/backend/internal/repositories"
	"gorm.io/gorm"
)

type state struct {
	users         map[uint]models.User
	posts         map[uint]models.Post
	comments      map[uint]models.Comment
	likes         map[uint]models.Like
	savedPosts    map[uint]models.SavedPost
	follows       map[uint]models.Follow
	flags         map[uint]models.Flag
	notifications map[uint]models.Notification
	nextID        uint
}

func newState() *state {
	return &state{
		users:         make(map[uint]models.User),
		posts:         make(map[uint]models.Post),
		comments:      make(map[uint]models.Comment),
		likes:         make(map[uint]models.Like),
		savedPosts:    make(map[uint]models.SavedPost),
		follows:       make(map[uint]models.Follow),
		flags:         make(map[uint]models.Flag),
		notifications: make(map[uint]models.Notification),
		nextID:        1,
	}
}

func (st *state) clone() *state {
	dup := newState()
	dup.nextID = st.nextID
	for k, v := range st.users {
		dup.users[k] = v
	}
	for k, v := range st.posts {
		dup.posts[k] = v
	}
	for k, v := range st.comments {
		dup.comments[k] = v
	}
	for k, v := range st.likes {
		dup.likes[k] = v
	}
	for k, v := range st.savedPosts {
		dup.savedPosts[k] = v
	}
	for k, v := range st.follows {
		dup.follows[k] = v
	}
	for k, v := range st.flags {
		dup.flags[k] = v
	}
	for k, v := range st.notifications {
		dup.notifications[k] = v
	}
	return dup
}

// Store implements repositories.Store entirely in memory.
type Store struct {
	mu   *sync.Mutex
	st   *state
	inTx bool
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{mu: &sync.Mutex{}, st: newState()}
}

// lock is a no-op inside a transaction: InTx already holds the mutex.
func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) allocID() uint {
	id := s.st.nextID
	s.st.nextID++
	return id
}

func (s *Store) Users() repositories.UserRepository                 { return s }
func (s *Store) Posts() repositories.PostRepository                 { return s }
func (s *Store) Comments() repositories.CommentRepository           { return s }
func (s *Store) Likes() repositories.LikeRepository                 { return s }
func (s *Store) SavedPosts() repositories.SavedPostRepository       { return s }
func (s *Store) Follows() repositories.FollowRepository             { return s }
func (s *Store) Flags() repositories.FlagRepository                 { return s }
func (s *Store) Notifications() repositories.NotificationRepository { return s }
func (s *Store) Counters() repositories.CounterRepository           { return s }

// InTx runs fn against the live state under the store mutex and restores a
// pre-transaction snapshot if fn fails.
func (s *Store) InTx(ctx context.Context, fn func(repositories.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.st.clone()
	tx := &Store{mu: s.mu, st: s.st, inTx: true}
	if err := fn(tx); err != nil {
		*s.st = *snapshot
		return err
	}
	return nil
}

// --- users ---

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	defer s.lock()()
	for _, u := range s.st.users {
		if u.Email == user.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	user.ID = s.allocID()
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	s.st.users[user.ID] = *user
	return nil
}

func (s *Store) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	defer s.lock()()
	user, ok := s.st.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &user, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	defer s.lock()()
	for _, user := range s.st.users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *Store) GetUserByFirebaseUID(ctx context.Context, firebaseUID string) (*models.User, error) {
	defer s.lock()()
	for _, user := range s.st.users {
		if user.FirebaseUID == firebaseUID {
			u := user
			return &u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *Store) UpdateUser(ctx context.Context, user *models.User) error {
	defer s.lock()()
	if _, ok := s.st.users[user.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	s.st.users[user.ID] = *user
	return nil
}

func (s *Store) SetBlocked(ctx context.Context, id uint, blocked bool) error {
	defer s.lock()()
	user, ok := s.st.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	user.Blocked = blocked
	s.st.users[id] = user
	return nil
}

func (s *Store) SearchUsers(ctx context.Context, query string) ([]models.User, error) {
	defer s.lock()()
	var users []models.User
	q := strings.ToLower(query)
	for _, user := range s.st.users {
		if strings.Contains(strings.ToLower(user.Name), q) || strings.Contains(strings.ToLower(user.Email), q) {
			users = append(users, user)
		}
	}
	return users, nil
}

// --- posts ---

func (s *Store) CreatePost(ctx context.Context, post *models.Post) error {
	defer s.lock()()
	post.ID = s.allocID()
	post.CreatedAt = time.Now()
	s.st.posts[post.ID] = *post
	return nil
}

func (s *Store) GetPostByID(ctx context.Context, id uint) (*models.Post, error) {
	defer s.lock()()
	post, ok := s.st.posts[id]
	if !ok || post.DeletedAt.Valid {
		return nil, gorm.ErrRecordNotFound
	}
	return &post, nil
}

func (s *Store) GetPostByPublicID(ctx context.Context, publicID string) (*models.Post, error) {
	defer s.lock()()
	for _, post := range s.st.posts {
		if post.PublicID == publicID && !post.DeletedAt.Valid {
			p := post
			return &p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *Store) GetPostsByAuthorID(ctx context.Context, authorID uint, offset, limit int) ([]models.Post, error) {
	defer s.lock()()
	var posts []models.Post
	for _, post := range s.st.posts {
		if post.AuthorID == authorID && !post.DeletedAt.Valid {
			posts = append(posts, post)
		}
	}
	return pagePosts(posts, offset, limit), nil
}

func (s *Store) GetFeedPosts(ctx context.Context, authorIDs []uint, offset, limit int) ([]models.Post, error) {
	defer s.lock()()
	wanted := make(map[uint]bool, len(authorIDs))
	for _, id := range authorIDs {
		wanted[id] = true
	}
	var posts []models.Post
	for _, post := range s.st.posts {
		if wanted[post.AuthorID] && !post.DeletedAt.Valid {
			posts = append(posts, post)
		}
	}
	return pagePosts(posts, offset, limit), nil
}

func pagePosts(posts []models.Post, offset, limit int) []models.Post {
	sort.Slice(posts, func(i, j int) bool { return posts[i].CreatedAt.After(posts[j].CreatedAt) })
	if offset >= len(posts) {
		return nil
	}
	posts = posts[offset:]
	if limit > 0 && limit < len(posts) {
		posts = posts[:limit]
	}
	return posts
}

func (s *Store) UpdatePost(ctx context.Context, post *models.Post) error {
	defer s.lock()()
	existing, ok := s.st.posts[post.ID]
	if !ok || existing.DeletedAt.Valid {
		return gorm.ErrRecordNotFound
	}
	s.st.posts[post.ID] = *post
	return nil
}

func (s *Store) SoftDeletePost(ctx context.Context, id uint) error {
	defer s.lock()()
	post, ok := s.st.posts[id]
	if !ok || post.DeletedAt.Valid {
		return gorm.ErrRecordNotFound
	}
	post.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	s.st.posts[id] = post
	return nil
}

// --- comments ---

func (s *Store) CreateComment(ctx context.Context, comment *models.Comment) error {
	defer s.lock()()
	comment.ID = s.allocID()
	comment.CreatedAt = time.Now()
	s.st.comments[comment.ID] = *comment
	return nil
}

func (s *Store) GetCommentByID(ctx context.Context, id uint) (*models.Comment, error) {
	defer s.lock()()
	comment, ok := s.st.comments[id]
	if !ok || comment.DeletedAt.Valid {
		return nil, gorm.ErrRecordNotFound
	}
	return &comment, nil
}

func (s *Store) GetCommentByPublicID(ctx context.Context, publicID string) (*models.Comment, error) {
	defer s.lock()()
	for _, comment := range s.st.comments {
		if comment.PublicID == publicID && !comment.DeletedAt.Valid {
			c := comment
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *Store) GetCommentsByPostID(ctx context.Context, postID uint) ([]models.Comment, error) {
	defer s.lock()()
	var comments []models.Comment
	for _, comment := range s.st.comments {
		if comment.PostID == postID && !comment.DeletedAt.Valid {
			comments = append(comments, comment)
		}
	}
	sort.Slice(comments, func(i, j int) bool { return comments[i].CreatedAt.Before(comments[j].CreatedAt) })
	return comments, nil
}

func (s *Store) UpdateComment(ctx context.Context, comment *models.Comment) error {
	defer s.lock()()
	existing, ok := s.st.comments[comment.ID]
	if !ok || existing.DeletedAt.Valid {
		return gorm.ErrRecordNotFound
	}
	s.st.comments[comment.ID] = *comment
	return nil
}

func (s *Store) SoftDeleteComment(ctx context.Context, id uint) error {
	defer s.lock()()
	comment, ok := s.st.comments[id]
	if !ok || comment.DeletedAt.Valid {
		return gorm.ErrRecordNotFound
	}
	comment.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	s.st.comments[id] = comment
	return nil
}

func (s *Store) SoftDeleteReplies(ctx context.Context, parentID uint) (int64, error) {
	defer s.lock()()
	var affected int64
	for id, comment := range s.st.comments {
		if comment.ParentID != nil && *comment.ParentID == parentID && !comment.DeletedAt.Valid {
			comment.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
			s.st.comments[id] = comment
			affected++
		}
	}
	return affected, nil
}

// --- likes ---

func (s *Store) CreateLike(ctx context.Context, like *models.Like) error {
	defer s.lock()()
	for _, l := range s.st.likes {
		if l.UserID == like.UserID && l.PostID == like.PostID {
			return gorm.ErrDuplicatedKey
		}
	}
	like.ID = s.allocID()
	like.CreatedAt = time.Now()
	s.st.likes[like.ID] = *like
	return nil
}

func (s *Store) DeleteLike(ctx context.Context, postID, userID uint) (bool, error) {
	defer s.lock()()
	for id, like := range s.st.likes {
		if like.PostID == postID && like.UserID == userID {
			delete(s.st.likes, id)
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) HasUserLikedPost(ctx context.Context, postID, userID uint) (bool, error) {
	defer s.lock()()
	for _, like := range s.st.likes {
		if like.PostID == postID && like.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

// --- saved posts ---

func (s *Store) SavePost(ctx context.Context, savedPost *models.SavedPost) error {
	defer s.lock()()
	for _, sp := range s.st.savedPosts {
		if sp.UserID == savedPost.UserID && sp.PostID == savedPost.PostID {
			return gorm.ErrDuplicatedKey
		}
	}
	savedPost.ID = s.allocID()
	savedPost.CreatedAt = time.Now()
	s.st.savedPosts[savedPost.ID] = *savedPost
	return nil
}

func (s *Store) UnsavePost(ctx context.Context, userID, postID uint) (bool, error) {
	defer s.lock()()
	for id, sp := range s.st.savedPosts {
		if sp.UserID == userID && sp.PostID == postID {
			delete(s.st.savedPosts, id)
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) IsPostSaved(ctx context.Context, userID, postID uint) (bool, error) {
	defer s.lock()()
	for _, sp := range s.st.savedPosts {
		if sp.UserID == userID && sp.PostID == postID {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) GetSavedPostsByUser(ctx context.Context, userID uint) ([]models.SavedPost, error) {
	defer s.lock()()
	var saved []models.SavedPost
	for _, sp := range s.st.savedPosts {
		if sp.UserID == userID {
			saved = append(saved, sp)
		}
	}
	sort.Slice(saved, func(i, j int) bool { return saved[i].CreatedAt.After(saved[j].CreatedAt) })
	return saved, nil
}

// --- follows ---

func (s *Store) CreateFollow(ctx context.Context, follow *models.Follow) error {
	defer s.lock()()
	for _, f := range s.st.follows {
		if f.FollowerID == follow.FollowerID && f.FollowingID == follow.FollowingID {
			return gorm.ErrDuplicatedKey
		}
	}
	follow.ID = s.allocID()
	follow.CreatedAt = time.Now()
	s.st.follows[follow.ID] = *follow
	return nil
}

func (s *Store) DeleteFollow(ctx context.Context, followerID, followingID uint) (bool, error) {
	defer s.lock()()
	for id, f := range s.st.follows {
		if f.FollowerID == followerID && f.FollowingID == followingID {
			delete(s.st.follows, id)
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) IsFollowing(ctx context.Context, followerID, followingID uint) (bool, error) {
	defer s.lock()()
	for _, f := range s.st.follows {
		if f.FollowerID == followerID && f.FollowingID == followingID {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) GetFollowers(ctx context.Context, userID uint) ([]models.User, error) {
	defer s.lock()()
	var users []models.User
	for _, f := range s.st.follows {
		if f.FollowingID == userID {
			if user, ok := s.st.users[f.FollowerID]; ok {
				users = append(users, user)
			}
		}
	}
	return users, nil
}

func (s *Store) GetFollowing(ctx context.Context, userID uint) ([]models.User, error) {
	defer s.lock()()
	var users []models.User
	for _, f := range s.st.follows {
		if f.FollowerID == userID {
			if user, ok := s.st.users[f.FollowingID]; ok {
				users = append(users, user)
			}
		}
	}
	return users, nil
}

func (s *Store) GetFollowingIDs(ctx context.Context, userID uint) ([]uint, error) {
	defer s.lock()()
	var ids []uint
	for _, f := range s.st.follows {
		if f.FollowerID == userID {
			ids = append(ids, f.FollowingID)
		}
	}
	return ids, nil
}

// --- flags ---

func (s *Store) CreateFlag(ctx context.Context, flag *models.Flag) error {
	defer s.lock()()
	for _, f := range s.st.flags {
		if f.ReporterID != flag.ReporterID {
			continue
		}
		if flag.FlaggedPostID != nil && f.FlaggedPostID != nil && *f.FlaggedPostID == *flag.FlaggedPostID {
			return gorm.ErrDuplicatedKey
		}
		if flag.FlaggedCommentID != nil && f.FlaggedCommentID != nil && *f.FlaggedCommentID == *flag.FlaggedCommentID {
			return gorm.ErrDuplicatedKey
		}
	}
	flag.ID = s.allocID()
	flag.CreatedAt = time.Now()
	s.st.flags[flag.ID] = *flag
	return nil
}

func (s *Store) GetFlagByPublicID(ctx context.Context, publicID string) (*models.Flag, error) {
	defer s.lock()()
	for _, flag := range s.st.flags {
		if flag.PublicID == publicID {
			f := flag
			return &f, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *Store) UpdateFlag(ctx context.Context, flag *models.Flag) error {
	defer s.lock()()
	if _, ok := s.st.flags[flag.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	s.st.flags[flag.ID] = *flag
	return nil
}

// ResolveFlagFrom applies the review fields only when the stored status
// still equals prior, mirroring the conditional UPDATE that touches zero
// rows after a concurrent review commits first.
func (s *Store) ResolveFlagFrom(ctx context.Context, flag *models.Flag, prior models.FlagStatus) (bool, error) {
	defer s.lock()()
	current, ok := s.st.flags[flag.ID]
	if !ok {
		return false, nil
	}
	if current.Status != prior {
		return false, nil
	}
	current.Status = flag.Status
	current.ActionTaken = flag.ActionTaken
	current.AdminNotes = flag.AdminNotes
	current.ReviewedByID = flag.ReviewedByID
	current.ReviewedAt = flag.ReviewedAt
	s.st.flags[flag.ID] = current
	return true, nil
}

func (s *Store) CountByReporterSince(ctx context.Context, reporterID uint, since time.Time) (int64, error) {
	defer s.lock()()
	var count int64
	for _, flag := range s.st.flags {
		if flag.ReporterID == reporterID && !flag.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (s *Store) HasUserFlaggedPost(ctx context.Context, reporterID, postID uint) (bool, error) {
	defer s.lock()()
	for _, flag := range s.st.flags {
		if flag.ReporterID == reporterID && flag.FlaggedPostID != nil && *flag.FlaggedPostID == postID {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) HasUserFlaggedComment(ctx context.Context, reporterID, commentID uint) (bool, error) {
	defer s.lock()()
	for _, flag := range s.st.flags {
		if flag.ReporterID == reporterID && flag.FlaggedCommentID != nil && *flag.FlaggedCommentID == commentID {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) GetFlagsByStatus(ctx context.Context, status models.FlagStatus, offset, limit int) ([]models.Flag, error) {
	defer s.lock()()
	var flags []models.Flag
	for _, flag := range s.st.flags {
		if flag.Status == status {
			flags = append(flags, flag)
		}
	}
	sort.Slice(flags, func(i, j int) bool { return flags[i].CreatedAt.Before(flags[j].CreatedAt) })
	if offset >= len(flags) {
		return nil, nil
	}
	flags = flags[offset:]
	if limit > 0 && limit < len(flags) {
		flags = flags[:limit]
	}
	return flags, nil
}

// --- notifications ---

func (s *Store) CreateNotification(ctx context.Context, notification *models.Notification) error {
	defer s.lock()()
	notification.ID = s.allocID()
	notification.CreatedAt = time.Now()
	s.st.notifications[notification.ID] = *notification
	return nil
}

func (s *Store) GetByRecipientID(ctx context.Context, recipientID uint, page, limit int) ([]models.Notification, int64, error) {
	defer s.lock()()
	var notifications []models.Notification
	for _, n := range s.st.notifications {
		if n.RecipientID == recipientID {
			notifications = append(notifications, n)
		}
	}
	sort.Slice(notifications, func(i, j int) bool {
		return notifications[i].CreatedAt.After(notifications[j].CreatedAt)
	})
	total := int64(len(notifications))
	offset := (page - 1) * limit
	if offset >= len(notifications) {
		return nil, total, nil
	}
	notifications = notifications[offset:]
	if limit > 0 && limit < len(notifications) {
		notifications = notifications[:limit]
	}
	return notifications, total, nil
}

func (s *Store) GetUnreadCount(ctx context.Context, recipientID uint) (int64, error) {
	defer s.lock()()
	var count int64
	for _, n := range s.st.notifications {
		if n.RecipientID == recipientID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (s *Store) MarkAsRead(ctx context.Context, notificationID uint) error {
	defer s.lock()()
	n, ok := s.st.notifications[notificationID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	n.IsRead = true
	s.st.notifications[notificationID] = n
	return nil
}

func (s *Store) MarkAllAsRead(ctx context.Context, recipientID uint) error {
	defer s.lock()()
	for id, n := range s.st.notifications {
		if n.RecipientID == recipientID && !n.IsRead {
			n.IsRead = true
			s.st.notifications[id] = n
		}
	}
	return nil
}

// --- counters ---

// Adjust mirrors the conditional UPDATE of the Postgres implementation:
// soft-deleted rows are out of scope, and a floor-guarded decrement is a
// no-op when the counter is not above zero.
func (s *Store) Adjust(ctx context.Context, counter repositories.Counter, id uint, delta int, floorGuard bool) error {
	defer s.lock()()
	s.withCounter(counter, id, func(value *int) {
		if floorGuard && delta < 0 && *value <= 0 {
			return
		}
		*value += delta
	})
	return nil
}

func (s *Store) Value(ctx context.Context, counter repositories.Counter, id uint) (int64, error) {
	defer s.lock()()
	var out int64
	s.withCounter(counter, id, func(value *int) {
		out = int64(*value)
	})
	return out, nil
}

// withCounter is a no-op when the row is missing or soft-deleted, matching
// a conditional UPDATE that touches zero rows.
func (s *Store) withCounter(counter repositories.Counter, id uint, fn func(*int)) {
	switch counter {
	case repositories.PostLikes, repositories.PostComments, repositories.PostSaves, repositories.PostFlags:
		post, ok := s.st.posts[id]
		if !ok || post.DeletedAt.Valid {
			return
		}
		switch counter {
		case repositories.PostLikes:
			fn(&post.LikesCount)
		case repositories.PostComments:
			fn(&post.CommentsCount)
		case repositories.PostSaves:
			fn(&post.SavesCount)
		default:
			fn(&post.FlagsCount)
		}
		s.st.posts[id] = post
	case repositories.CommentFlags:
		comment, ok := s.st.comments[id]
		if !ok || comment.DeletedAt.Valid {
			return
		}
		fn(&comment.FlagsCount)
		s.st.comments[id] = comment
	default:
		user, ok := s.st.users[id]
		if !ok {
			return
		}
		switch counter {
		case repositories.UserFollowers:
			fn(&user.FollowersCount)
		case repositories.UserFollowing:
			fn(&user.FollowingCount)
		default:
			fn(&user.SavedCount)
		}
		s.st.users[id] = user
	}
}
