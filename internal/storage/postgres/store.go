package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/UkralStul/graphql-blog-service/internal/apperrors"
	"github.com/UkralStul/graphql-blog-service/internal/domain"
	"github.com/UkralStul/graphql-blog-service/internal/storage"
)

// Store реализует интерфейс Storage с использованием PostgreSQL.
type Store struct {
	db *gorm.DB
}

var _ storage.Storage = (*Store)(nil)

// New подключается к базе. Схему создает Migrate.
func New(dsn string, log *zap.Logger) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.New(zap.NewStdLog(log.Named("gorm")), logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return &Store{db: db}, nil
}

// Migrate выполняет миграцию схемы.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(allModels()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

func (s *Store) Users() domain.UserRepository                       { return userRepo{s.db} }
func (s *Store) Posts() domain.PostRepository                       { return postRepo{s.db} }
func (s *Store) Categories() domain.CategoryRepository              { return categoryRepo{s.db} }
func (s *Store) Comments() domain.CommentRepository                 { return commentRepo{s.db} }
func (s *Store) CommentResponses() domain.CommentResponseRepository { return responseRepo{s.db} }

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// === Users ===

type userRepo struct{ db *gorm.DB }

func (r userRepo) Save(ctx context.Context, u *domain.User) (*domain.User, error) {
	m := userModelOf(storage.UserRecordOf(u))
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if u.IsNew() {
			m.ID = 0
			return tx.Create(&m).Error
		}
		return updateRow(tx, &userModel{}, m.ID, map[string]interface{}{
			"email":      m.Email,
			"username":   m.Username,
			"password":   m.Password,
			"role":       m.Role,
			"updated_at": m.UpdatedAt,
		}, "User")
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, domain.NewEmailTakenError(u.Email())
		}
		return nil, err
	}
	return m.record().Restore()
}

func (r userRepo) FindByID(ctx context.Context, id domain.Identifier) (*domain.User, error) {
	var m userModel
	if found, err := first(r.db.WithContext(ctx), &m, "id = ?", id.Value()); !found || err != nil {
		return nil, err
	}
	return m.record().Restore()
}

func (r userRepo) FindByEmail(ctx context.Context, email domain.Email) (*domain.User, error) {
	var m userModel
	if found, err := first(r.db.WithContext(ctx), &m, "email = ?", email.Value()); !found || err != nil {
		return nil, err
	}
	return m.record().Restore()
}

func (r userRepo) FindByIDs(ctx context.Context, ids []domain.Identifier) ([]*domain.User, error) {
	if len(ids) == 0 {
		return []*domain.User{}, nil
	}
	var ms []userModel
	if err := r.db.WithContext(ctx).Where("id IN ?", domain.IdentifierValues(ids)).Order("id").Find(&ms).Error; err != nil {
		return nil, err
	}
	return restoreModels(ms, func(m userModel) (*domain.User, error) { return m.record().Restore() })
}

func (r userRepo) FindAll(ctx context.Context) ([]*domain.User, error) {
	var ms []userModel
	if err := r.db.WithContext(ctx).Order("id").Find(&ms).Error; err != nil {
		return nil, err
	}
	return restoreModels(ms, func(m userModel) (*domain.User, error) { return m.record().Restore() })
}

// Delete: посты, комментарии и ответы удаляются каскадом по внешним ключам.
func (r userRepo) Delete(ctx context.Context, id domain.Identifier) (bool, error) {
	return deleteRow(r.db.WithContext(ctx), &userModel{}, id)
}

// === Posts ===

type postRepo struct{ db *gorm.DB }

// Save пишет пост и заменяет его строки в post_categories в одной транзакции.
func (r postRepo) Save(ctx context.Context, p *domain.Post) (*domain.Post, error) {
	rec := storage.PostRecordOf(p)
	m := postModelOf(rec)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if p.IsNew() {
			m.ID = 0
			if err := tx.Omit(clause.Associations).Create(&m).Error; err != nil {
				return err
			}
		} else {
			err := updateRow(tx, &postModel{}, m.ID, map[string]interface{}{
				"title":      m.Title,
				"content":    m.Content,
				"published":  m.Published,
				"updated_at": m.UpdatedAt,
			}, "Post")
			if err != nil {
				return err
			}
			if err := tx.Where("post_id = ?", m.ID).Delete(&postCategoryModel{}).Error; err != nil {
				return err
			}
		}
		if len(rec.CategoryIDs) == 0 {
			return nil
		}
		rows := make([]postCategoryModel, len(rec.CategoryIDs))
		for i, cid := range rec.CategoryIDs {
			rows[i] = postCategoryModel{PostID: m.ID, CategoryID: cid}
		}
		return tx.Omit(clause.Associations).Create(&rows).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return m.record(rec.CategoryIDs).Restore()
}

func (r postRepo) FindByID(ctx context.Context, id domain.Identifier) (*domain.Post, error) {
	db := r.db.WithContext(ctx)
	var m postModel
	if found, err := first(db, &m, "id = ?", id.Value()); !found || err != nil {
		return nil, err
	}
	posts, err := r.withCategories(db, []postModel{m})
	if err != nil {
		return nil, err
	}
	return posts[0], nil
}

func (r postRepo) Find(ctx context.Context, filter domain.PostFilter) ([]*domain.Post, error) {
	db := r.db.WithContext(ctx)
	q := applyPostFilter(db.Model(&postModel{}), db, filter).
		Order("created_at DESC").Order("id DESC").
		Offset(filter.Skip)
	if filter.Take > 0 {
		q = q.Limit(filter.Take)
	}
	var ms []postModel
	if err := q.Find(&ms).Error; err != nil {
		return nil, err
	}
	return r.withCategories(db, ms)
}

func (r postRepo) Count(ctx context.Context, filter domain.PostFilter) (int, error) {
	db := r.db.WithContext(ctx)
	var n int64
	if err := applyPostFilter(db.Model(&postModel{}), db, filter).Count(&n).Error; err != nil {
		return 0, err
	}
	return int(n), nil
}

func (r postRepo) Delete(ctx context.Context, id domain.Identifier) (bool, error) {
	return deleteRow(r.db.WithContext(ctx), &postModel{}, id)
}

func applyPostFilter(q, db *gorm.DB, f domain.PostFilter) *gorm.DB {
	if f.Published != nil {
		q = q.Where("published = ?", *f.Published)
	}
	if f.AuthorID != nil {
		q = q.Where("author_id = ?", f.AuthorID.Value())
	}
	if f.CategoryID != nil {
		sub := db.Model(&postCategoryModel{}).Select("post_id").Where("category_id = ?", f.CategoryID.Value())
		q = q.Where("id IN (?)", sub)
	}
	return q
}

// withCategories подгружает категории для всех постов одним запросом.
func (r postRepo) withCategories(db *gorm.DB, ms []postModel) ([]*domain.Post, error) {
	if len(ms) == 0 {
		return []*domain.Post{}, nil
	}
	ids := make([]int64, len(ms))
	for i, m := range ms {
		ids[i] = m.ID
	}
	var links []postCategoryModel
	if err := db.Where("post_id IN ?", ids).Order("post_id").Order("category_id").Find(&links).Error; err != nil {
		return nil, err
	}
	byPost := make(map[int64][]int64, len(ms))
	for _, l := range links {
		byPost[l.PostID] = append(byPost[l.PostID], l.CategoryID)
	}
	return restoreModels(ms, func(m postModel) (*domain.Post, error) { return m.record(byPost[m.ID]).Restore() })
}

// === Categories ===

type categoryRepo struct{ db *gorm.DB }

func (r categoryRepo) Save(ctx context.Context, c *domain.Category) (*domain.Category, error) {
	m := categoryModel{ID: c.ID().Value(), Name: c.Name().Value()}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if c.IsNew() {
			m.ID = 0
			return tx.Create(&m).Error
		}
		return updateRow(tx, &categoryModel{}, m.ID, map[string]interface{}{"name": m.Name}, "Category")
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, domain.NewCategoryNameTakenError(c.Name())
		}
		return nil, err
	}
	return m.record().Restore()
}

func (r categoryRepo) FindByID(ctx context.Context, id domain.Identifier) (*domain.Category, error) {
	var m categoryModel
	if found, err := first(r.db.WithContext(ctx), &m, "id = ?", id.Value()); !found || err != nil {
		return nil, err
	}
	return m.record().Restore()
}

func (r categoryRepo) FindByName(ctx context.Context, name domain.CategoryName) (*domain.Category, error) {
	var m categoryModel
	if found, err := first(r.db.WithContext(ctx), &m, "name = ?", name.Value()); !found || err != nil {
		return nil, err
	}
	return m.record().Restore()
}

func (r categoryRepo) FindByIDs(ctx context.Context, ids []domain.Identifier) ([]*domain.Category, error) {
	if len(ids) == 0 {
		return []*domain.Category{}, nil
	}
	var ms []categoryModel
	if err := r.db.WithContext(ctx).Where("id IN ?", domain.IdentifierValues(ids)).Order("id").Find(&ms).Error; err != nil {
		return nil, err
	}
	return restoreModels(ms, func(m categoryModel) (*domain.Category, error) { return m.record().Restore() })
}

func (r categoryRepo) FindAll(ctx context.Context) ([]*domain.Category, error) {
	var ms []categoryModel
	if err := r.db.WithContext(ctx).Order("id").Find(&ms).Error; err != nil {
		return nil, err
	}
	return restoreModels(ms, func(m categoryModel) (*domain.Category, error) { return m.record().Restore() })
}

func (r categoryRepo) Delete(ctx context.Context, id domain.Identifier) (bool, error) {
	return deleteRow(r.db.WithContext(ctx), &categoryModel{}, id)
}

// === Comments ===

type commentRepo struct{ db *gorm.DB }

func (r commentRepo) Save(ctx context.Context, c *domain.Comment) (*domain.Comment, error) {
	m := commentModelOf(storage.CommentRecordOf(c))
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if c.IsNew() {
			m.ID = 0
			return tx.Omit(clause.Associations).Create(&m).Error
		}
		return updateRow(tx, &commentModel{}, m.ID, map[string]interface{}{
			"content":    m.Content,
			"updated_at": m.UpdatedAt,
		}, "Comment")
	})
	if err != nil {
		return nil, translate(err)
	}
	return m.record().Restore()
}

func (r commentRepo) FindByID(ctx context.Context, id domain.Identifier) (*domain.Comment, error) {
	var m commentModel
	if found, err := first(r.db.WithContext(ctx), &m, "id = ?", id.Value()); !found || err != nil {
		return nil, err
	}
	return m.record().Restore()
}

func (r commentRepo) FindByPostID(ctx context.Context, postID domain.Identifier) ([]*domain.Comment, error) {
	var ms []commentModel
	err := r.db.WithContext(ctx).
		Where("post_id = ?", postID.Value()).
		Order("created_at ASC").Order("id ASC").
		Find(&ms).Error
	if err != nil {
		return nil, err
	}
	return restoreModels(ms, func(m commentModel) (*domain.Comment, error) { return m.record().Restore() })
}

func (r commentRepo) Delete(ctx context.Context, id domain.Identifier) (bool, error) {
	return deleteRow(r.db.WithContext(ctx), &commentModel{}, id)
}

// === Comment responses ===

type responseRepo struct{ db *gorm.DB }

func (r responseRepo) Save(ctx context.Context, resp *domain.CommentResponse) (*domain.CommentResponse, error) {
	m := commentResponseModelOf(storage.CommentResponseRecordOf(resp))
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if resp.IsNew() {
			m.ID = 0
			return tx.Omit(clause.Associations).Create(&m).Error
		}
		return updateRow(tx, &commentResponseModel{}, m.ID, map[string]interface{}{
			"content":    m.Content,
			"updated_at": m.UpdatedAt,
		}, "Comment response")
	})
	if err != nil {
		return nil, translate(err)
	}
	return m.record().Restore()
}

func (r responseRepo) FindByID(ctx context.Context, id domain.Identifier) (*domain.CommentResponse, error) {
	var m commentResponseModel
	if found, err := first(r.db.WithContext(ctx), &m, "id = ?", id.Value()); !found || err != nil {
		return nil, err
	}
	return m.record().Restore()
}

// FindByCommentIDs загружает ответы для всех комментариев одним запросом.
func (r responseRepo) FindByCommentIDs(ctx context.Context, commentIDs []domain.Identifier) ([]*domain.CommentResponse, error) {
	if len(commentIDs) == 0 {
		return []*domain.CommentResponse{}, nil
	}
	var ms []commentResponseModel
	err := r.db.WithContext(ctx).
		Where("comment_id IN ?", domain.IdentifierValues(commentIDs)).
		Order("created_at ASC").Order("id ASC").
		Find(&ms).Error
	if err != nil {
		return nil, err
	}
	return restoreModels(ms, func(m commentResponseModel) (*domain.CommentResponse, error) { return m.record().Restore() })
}

func (r responseRepo) Delete(ctx context.Context, id domain.Identifier) (bool, error) {
	return deleteRow(r.db.WithContext(ctx), &commentResponseModel{}, id)
}

// === helpers ===

// first возвращает found=false без ошибки, если запись не найдена.
func first(db *gorm.DB, dest interface{}, query string, args ...interface{}) (bool, error) {
	err := db.Where(query, args...).Take(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return err == nil, err
}

func updateRow(tx *gorm.DB, model interface{}, id int64, values map[string]interface{}, entity string) error {
	res := tx.Model(model).Where("id = ?", id).Updates(values)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.NewEntityNotFoundError(entity, domain.NewIdentifier(id))
	}
	return nil
}

func deleteRow(db *gorm.DB, model interface{}, id domain.Identifier) (bool, error) {
	res := db.Where("id = ?", id.Value()).Delete(model)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// translate превращает нарушение внешнего ключа в NotFound.
func translate(err error) error {
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return apperrors.NewNotFoundError("Referenced entity not found.").WithCause(err)
	}
	return err
}

func restoreModels[M any, E any](ms []M, restore func(M) (E, error)) ([]E, error) {
	out := make([]E, 0, len(ms))
	for _, m := range ms {
		e, err := restore(m)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}
