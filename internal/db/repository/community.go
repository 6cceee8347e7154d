package repository

import (
	"context"
	"fmt"

	"github.com/agri4/agri-server/internal/db/models"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// AllPostCategories disables the category filter of community listings.
const AllPostCategories = "all"

const DefaultPostLimit = 20

type PostFilter struct {
	Category string
	Limit    int
	Skip     int
}

type IPostRepository interface {
	Repository[models.Post]
	List(ctx context.Context, filter PostFilter) ([]models.Post, int, error)
	ToggleLike(ctx context.Context, postID, userID string) (bool, int, error)
}

type PostRepository struct {
	db bun.IDB
}

func NewPostRepository(db bun.IDB) IPostRepository {
	return &PostRepository{db: db}
}

func (r *PostRepository) Create(ctx context.Context, post *models.Post) (*models.Post, error) {
	if post == nil {
		return nil, fmt.Errorf("post model is nil")
	}

	if _, err := r.db.NewInsert().Model(post).Exec(ctx); err != nil {
		return nil, err
	}
	post.SetLikes(nil)

	return post, nil
}

func (r *PostRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	postID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrNotFound
	}

	var post models.Post
	if err := r.db.NewSelect().Model(&post).Where("id = ?", postID).Scan(ctx); err != nil {
		return nil, notFound(err)
	}

	likes, err := r.likesFor(ctx, postID)
	if err != nil {
		return nil, err
	}
	post.SetLikes(likes[postID])

	return &post, nil
}


// DeleteByID removes the post with its comments and likes.
func (r *PostRepository) DeleteByID(ctx context.Context, id string) error {
	postID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}

	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewDelete().Model(&models.Post{}).Where("id = ?", postID).Exec(ctx)
		if err != nil {
			return err
		}
		if err := requireAffected(res); err != nil {
			return err
		}

		if _, err := tx.NewDelete().Model(&models.Comment{}).Where("post_id = ?", postID).Exec(ctx); err != nil {
			return err
		}
		_, err = tx.NewDelete().Model(&models.PostLike{}).Where("post_id = ?", postID).Exec(ctx)
		return err
	})
}

// List returns a page of posts, newest first, and the number of posts matching the filter.
func (r *PostRepository) List(ctx context.Context, filter PostFilter) ([]models.Post, int, error) {
	if filter.Limit <= 0 {
		filter.Limit = DefaultPostLimit
	}
	if filter.Skip < 0 {
		filter.Skip = 0
	}

	posts := []models.Post{}
	query := r.db.NewSelect().Model(&posts)
	if filter.Category != "" && filter.Category != AllPostCategories {
		query = query.Where("category = ?", filter.Category)
	}

	total, err := query.
		Order("created_at DESC").
		Limit(filter.Limit).
		Offset(filter.Skip).
		ScanAndCount(ctx)
	if err != nil {
		return nil, 0, err
	}

	ids := make([]uuid.UUID, len(posts))
	for i := range posts {
		ids[i] = posts[i].ID
	}
	likes, err := r.likesFor(ctx, ids...)
	if err != nil {
		return nil, 0, err
	}
	for i := range posts {
		posts[i].SetLikes(likes[posts[i].ID])
	}

	return posts, total, nil
}

// ToggleLike likes the post for userID, or removes an existing like, and
// reports the resulting state and like count.
func (r *PostRepository) ToggleLike(ctx context.Context, postID, userID string) (bool, int, error) {
	id, err := uuid.Parse(postID)
	if err != nil {
		return false, 0, ErrNotFound
	}

	var (
		liked bool
		count int
	)
	err = r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().Model((*models.Post)(nil)).Where("id = ?", id).Exists(ctx)
		if err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}

		res, err := tx.NewDelete().
			Model((*models.PostLike)(nil)).
			Where("post_id = ?", id).
			Where("user_id = ?", userID).
			Exec(ctx)
		if err != nil {
			return err
		}

		removed, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if removed == 0 {
			like := &models.PostLike{PostID: id, UserID: userID, CreatedAt: now()}
			if _, err := tx.NewInsert().Model(like).Exec(ctx); err != nil {
				return err
			}
			liked = true
		}

		count, err = tx.NewSelect().Model((*models.PostLike)(nil)).Where("post_id = ?", id).Count(ctx)
		return err
	})
	if err != nil {
		return false, 0, err
	}

	return liked, count, nil
}

func (r *PostRepository) likesFor(ctx context.Context, postIDs ...uuid.UUID) (map[uuid.UUID][]string, error) {
	likes := make(map[uuid.UUID][]string, len(postIDs))
	if len(postIDs) == 0 {
		return likes, nil
	}

	var rows []models.PostLike
	err := r.db.NewSelect().
		Model(&rows).
		Where("post_id IN (?)", bun.In(postIDs)).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		likes[row.PostID] = append(likes[row.PostID], row.UserID)
	}

	return likes, nil
}

type ICommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) (*models.Comment, error)
	GetByID(ctx context.Context, id string) (*models.Comment, error)
	DeleteByID(ctx context.Context, id string) error
	ListByPost(ctx context.Context, postID string) ([]models.Comment, error)
}

type CommentRepository struct {
	db bun.IDB
}

func NewCommentRepository(db bun.IDB) ICommentRepository {
	return &CommentRepository{db: db}
}

// Create inserts the comment and bumps the post's comment_count. It returns
// ErrNotFound when the post does not exist.
func (r *CommentRepository) Create(ctx context.Context, comment *models.Comment) (*models.Comment, error) {
	if comment == nil {
		return nil, fmt.Errorf("comment model is nil")
	}

	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model((*models.Post)(nil)).
			Set("comment_count = comment_count + 1").
			Where("id = ?", comment.PostID).
			Exec(ctx)
		if err != nil {
			return err
		}
		if err := requireAffected(res); err != nil {
			return err
		}

		_, err = tx.NewInsert().Model(comment).Exec(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	return comment, nil
}

func (r *CommentRepository) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	commentID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrNotFound
	}

	var comment models.Comment
	if err := r.db.NewSelect().Model(&comment).Where("id = ?", commentID).Scan(ctx); err != nil {
		return nil, notFound(err)
	}

	return &comment, nil
}

// DeleteByID removes the comment and decrements its post's comment_count.
func (r *CommentRepository) DeleteByID(ctx context.Context, id string) error {
	comment, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}

	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewDelete().Model((*models.Comment)(nil)).Where("id = ?", comment.ID).Exec(ctx)
		if err != nil {
			return err
		}
		if err := requireAffected(res); err != nil {
			return err
		}

		_, err = tx.NewUpdate().
			Model((*models.Post)(nil)).
			Set("comment_count = comment_count - 1").
			Where("id = ?", comment.PostID).
			Where("comment_count > 0").
			Exec(ctx)
		return err
	})
}

// ListByPost returns the post's comments, oldest first.
func (r *CommentRepository) ListByPost(ctx context.Context, postID string) ([]models.Comment, error) {
	id, err := uuid.Parse(postID)
	if err != nil {
		return []models.Comment{}, nil
	}

	comments := []models.Comment{}
	if err := r.db.NewSelect().Model(&comments).Where("post_id = ?", id).Order("created_at ASC").Scan(ctx); err != nil {
		return nil, err
	}

	return comments, nil
}
