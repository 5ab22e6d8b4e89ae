package sqlstore

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/hackcelestial/sports-bridge/bridge"
	"github.com/hackcelestial/sports-bridge/store"
)

const newestFirst = ` ORDER BY created_at DESC, id DESC`

type postRepo struct{ s *Store }

func (r postRepo) Create(ctx context.Context, p *bridge.Post) error {
	id, err := r.s.insert(ctx, r.s.db, `INSERT INTO posts
		(user_id, title, description, post_type, image_url, like_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		p.UserID, p.Title, p.Description, p.PostType, p.ImageURL, p.LikeCount, p.CreatedAt)
	if err != nil {
		return err
	}
	p.ID = id
	return nil
}

func (r postRepo) Get(ctx context.Context, id int64) (*bridge.Post, error) {
	p := &bridge.Post{}
	if err := r.s.get(ctx, p, `SELECT * FROM posts WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return p, nil
}

func (r postRepo) Delete(ctx context.Context, id int64) error {
	return r.s.tx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, r.s.q(`DELETE FROM likes WHERE post_id = ?`), id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, r.s.q(`DELETE FROM invitations WHERE post_id = ?`), id); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, r.s.q(`DELETE FROM posts WHERE id = ?`), id)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return store.ErrNotFound
		}
		return nil
	})
}

func (r postRepo) Page(ctx context.Context, offset, limit int) ([]*bridge.Post, int64, error) {
	total, err := r.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	posts := []*bridge.Post{}
	if err := r.s.sel(ctx, &posts, `SELECT * FROM posts`+newestFirst+` LIMIT ? OFFSET ?`, limit, offset); err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

func (r postRepo) Search(ctx context.Context, query string) ([]*bridge.Post, error) {
	if strings.TrimSpace(query) == "" {
		return r.All(ctx)
	}
	pattern := like(query)
	posts := []*bridge.Post{}
	err := r.s.sel(ctx, &posts, `SELECT p.* FROM posts p JOIN users u ON u.id = p.user_id
		WHERE LOWER(p.title) LIKE ?`+likeEscape+` OR LOWER(p.description) LIKE ?`+likeEscape+`
		OR LOWER(u.full_name) LIKE ?`+likeEscape+`
		ORDER BY p.created_at DESC, p.id DESC`, pattern, pattern, pattern)
	return posts, err
}

func (r postRepo) ByType(ctx context.Context, t bridge.PostType) ([]*bridge.Post, error) {
	posts := []*bridge.Post{}
	err := r.s.sel(ctx, &posts, `SELECT * FROM posts WHERE post_type = ?`+newestFirst, t)
	return posts, err
}

func (r postRepo) All(ctx context.Context) ([]*bridge.Post, error) {
	posts := []*bridge.Post{}
	err := r.s.sel(ctx, &posts, `SELECT * FROM posts`+newestFirst)
	return posts, err
}

func (r postRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.s.get(ctx, &n, `SELECT COUNT(*) FROM posts`)
	return n, err
}

type likeRepo struct{ s *Store }

func (r likeRepo) Toggle(ctx context.Context, userID, postID int64) (bool, int64, error) {
	var liked bool
	var count int64
	err := r.s.tx(ctx, func(tx *sqlx.Tx) error {
		var exists int
		if err := tx.GetContext(ctx, &exists, r.s.q(`SELECT COUNT(*) FROM posts WHERE id = ?`), postID); err != nil {
			return err
		}
		if exists == 0 {
			return store.ErrNotFound
		}
		var mine int
		if err := tx.GetContext(ctx, &mine, r.s.q(`SELECT COUNT(*) FROM likes WHERE user_id = ? AND post_id = ?`), userID, postID); err != nil {
			return err
		}
		if mine > 0 {
			if _, err := tx.ExecContext(ctx, r.s.q(`DELETE FROM likes WHERE user_id = ? AND post_id = ?`), userID, postID); err != nil {
				return err
			}
		} else {
			if _, err := tx.ExecContext(ctx, r.s.q(`INSERT INTO likes (user_id, post_id, created_at) VALUES (?, ?, ?)`),
				userID, postID, time.Now().UTC()); err != nil {
				return translate(err)
			}
			liked = true
		}
		if err := tx.GetContext(ctx, &count, r.s.q(`SELECT COUNT(*) FROM likes WHERE post_id = ?`), postID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, r.s.q(`UPDATE posts SET like_count = ? WHERE id = ?`), count, postID)
		return err
	})
	if err != nil {
		return false, 0, err
	}
	return liked, count, nil
}

func (r likeRepo) LikedBy(ctx context.Context, userID int64, postIDs []int64) (map[int64]bool, error) {
	out := map[int64]bool{}
	if len(postIDs) == 0 {
		return out, nil
	}
	query, args, err := r.s.in(`SELECT post_id FROM likes WHERE user_id = ? AND post_id IN (?)`, userID, postIDs)
	if err != nil {
		return nil, err
	}
	ids := []int64{}
	if err := r.s.db.SelectContext(ctx, &ids, query, args...); err != nil {
		return nil, translate(err)
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}
