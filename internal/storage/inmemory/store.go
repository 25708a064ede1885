package inmemory

import (
	"context"
	"sort"
	"sync"

	"github.com/UkralStul/graphql-blog-service/internal/domain"
	"github.com/UkralStul/graphql-blog-service/internal/storage"
)

// Store реализует интерфейс Storage в памяти.
// Все репозитории делят один мьютекс, поэтому каскадные удаления атомарны.
type Store struct {
	mu        sync.RWMutex
	seq       map[string]int64
	users     map[int64]storage.UserRecord
	posts     map[int64]storage.PostRecord
	cats      map[int64]storage.CategoryRecord
	comments  map[int64]storage.CommentRecord
	responses map[int64]storage.CommentResponseRecord
}

var _ storage.Storage = (*Store)(nil)

// New создает новый экземпляр in-memory хранилища.
func New() *Store {
	return &Store{
		seq:       make(map[string]int64),
		users:     make(map[int64]storage.UserRecord),
		posts:     make(map[int64]storage.PostRecord),
		cats:      make(map[int64]storage.CategoryRecord),
		comments:  make(map[int64]storage.CommentRecord),
		responses: make(map[int64]storage.CommentResponseRecord),
	}
}

func (s *Store) Users() domain.UserRepository                       { return userRepo{s} }
func (s *Store) Posts() domain.PostRepository                       { return postRepo{s} }
func (s *Store) Categories() domain.CategoryRepository              { return categoryRepo{s} }
func (s *Store) Comments() domain.CommentRepository                 { return commentRepo{s} }
func (s *Store) CommentResponses() domain.CommentResponseRepository { return responseRepo{s} }

func (s *Store) Close() error { return nil }

// nextID - аналог serial: свой счетчик на каждую таблицу. Только под блокировкой записи.
func (s *Store) nextID(table string) int64 {
	s.seq[table]++
	return s.seq[table]
}

// === Users ===

type userRepo struct{ s *Store }

func (r userRepo) Save(_ context.Context, u *domain.User) (*domain.User, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := storage.UserRecordOf(u)
	for _, other := range s.users {
		if other.Email == rec.Email && other.ID != rec.ID {
			return nil, domain.NewEmailTakenError(u.Email())
		}
	}
	if u.IsNew() {
		rec.ID = s.nextID("users")
	} else if _, ok := s.users[rec.ID]; !ok {
		return nil, domain.NewEntityNotFoundError("User", u.ID())
	}
	s.users[rec.ID] = rec
	return rec.Restore()
}

func (r userRepo) FindByID(_ context.Context, id domain.Identifier) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rec, ok := r.s.users[id.Value()]
	if !ok {
		return nil, nil
	}
	return rec.Restore()
}

func (r userRepo) FindByEmail(_ context.Context, email domain.Email) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, rec := range r.s.users {
		if rec.Email == email.Value() {
			return rec.Restore()
		}
	}
	return nil, nil
}

func (r userRepo) FindByIDs(_ context.Context, ids []domain.Identifier) ([]*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*domain.User, 0, len(ids))
	for _, id := range uniqueValues(ids) {
		if rec, ok := r.s.users[id]; ok {
			u, err := rec.Restore()
			if err != nil {
				return nil, err
			}
			out = append(out, u)
		}
	}
	return out, nil
}

func (r userRepo) FindAll(_ context.Context) ([]*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return restoreAll(sortedByID(r.s.users), storage.UserRecord.Restore)
}

// Delete удаляет пользователя вместе с его постами, комментариями и ответами.
func (r userRepo) Delete(_ context.Context, id domain.Identifier) (bool, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id.Value()]; !ok {
		return false, nil
	}
	delete(s.users, id.Value())
	for pid, p := range s.posts {
		if p.AuthorID == id.Value() {
			s.deletePostLocked(pid)
		}
	}
	for cid, c := range s.comments {
		if c.AuthorID == id.Value() {
			s.deleteCommentLocked(cid)
		}
	}
	for rid, resp := range s.responses {
		if resp.AuthorID == id.Value() {
			delete(s.responses, rid)
		}
	}
	return true, nil
}

// === Posts ===

type postRepo struct{ s *Store }

func (r postRepo) Save(_ context.Context, p *domain.Post) (*domain.Post, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := storage.PostRecordOf(p)
	if _, ok := s.users[rec.AuthorID]; !ok {
		return nil, domain.NewEntityNotFoundError("User", p.AuthorID())
	}
	for _, cid := range p.CategoryIDs() {
		if _, ok := s.cats[cid.Value()]; !ok {
			return nil, domain.NewEntityNotFoundError("Category", cid)
		}
	}
	if p.IsNew() {
		rec.ID = s.nextID("posts")
	} else if _, ok := s.posts[rec.ID]; !ok {
		return nil, domain.NewEntityNotFoundError("Post", p.ID())
	}
	s.posts[rec.ID] = rec
	return rec.Restore()
}

func (r postRepo) FindByID(_ context.Context, id domain.Identifier) (*domain.Post, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rec, ok := r.s.posts[id.Value()]
	if !ok {
		return nil, nil
	}
	return rec.Restore()
}

func (r postRepo) Find(_ context.Context, filter domain.PostFilter) ([]*domain.Post, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	matched, err := r.matching(filter)
	if err != nil {
		return nil, err
	}
	// от новых к старым; ключ разрешает равные метки времени
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.CreatedAt().Equal(b.CreatedAt()) {
			return a.CreatedAt().After(b.CreatedAt())
		}
		return a.ID().Value() > b.ID().Value()
	})

	start := filter.Skip
	if start >= len(matched) {
		return []*domain.Post{}, nil
	}
	end := len(matched)
	if filter.Take > 0 && start+filter.Take < end {
		end = start + filter.Take
	}
	return matched[start:end], nil
}

func (r postRepo) Count(_ context.Context, filter domain.PostFilter) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	matched, err := r.matching(filter)
	return len(matched), err
}

func (r postRepo) matching(filter domain.PostFilter) ([]*domain.Post, error) {
	out := make([]*domain.Post, 0, len(r.s.posts))
	for _, rec := range r.s.posts {
		p, err := rec.Restore()
		if err != nil {
			return nil, err
		}
		if filter.Matches(p) {
			out = append(out, p)
		}
	}
	return out, nil
}

// Delete удаляет пост вместе с комментариями и ответами к нему.
func (r postRepo) Delete(_ context.Context, id domain.Identifier) (bool, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[id.Value()]; !ok {
		return false, nil
	}
	s.deletePostLocked(id.Value())
	return true, nil
}

func (s *Store) deletePostLocked(id int64) {
	delete(s.posts, id)
	for cid, c := range s.comments {
		if c.PostID == id {
			s.deleteCommentLocked(cid)
		}
	}
	for rid, resp := range s.responses {
		if resp.PostID == id {
			delete(s.responses, rid)
		}
	}
}

// === Categories ===

type categoryRepo struct{ s *Store }

func (r categoryRepo) Save(_ context.Context, c *domain.Category) (*domain.Category, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := storage.CategoryRecordOf(c)
	for _, other := range s.cats {
		if other.Name == rec.Name && other.ID != rec.ID {
			return nil, domain.NewCategoryNameTakenError(c.Name())
		}
	}
	if c.IsNew() {
		rec.ID = s.nextID("categories")
	} else if _, ok := s.cats[rec.ID]; !ok {
		return nil, domain.NewEntityNotFoundError("Category", c.ID())
	}
	s.cats[rec.ID] = rec
	return rec.Restore()
}

func (r categoryRepo) FindByID(_ context.Context, id domain.Identifier) (*domain.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rec, ok := r.s.cats[id.Value()]
	if !ok {
		return nil, nil
	}
	return rec.Restore()
}

func (r categoryRepo) FindByName(_ context.Context, name domain.CategoryName) (*domain.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, rec := range r.s.cats {
		if rec.Name == name.Value() {
			return rec.Restore()
		}
	}
	return nil, nil
}

func (r categoryRepo) FindByIDs(_ context.Context, ids []domain.Identifier) ([]*domain.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*domain.Category, 0, len(ids))
	for _, id := range uniqueValues(ids) {
		if rec, ok := r.s.cats[id]; ok {
			c, err := rec.Restore()
			if err != nil {
				return nil, err
			}
			out = append(out, c)
		}
	}
	return out, nil
}

func (r categoryRepo) FindAll(_ context.Context) ([]*domain.Category, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return restoreAll(sortedByID(r.s.cats), storage.CategoryRecord.Restore)
}

// Delete снимает категорию со всех постов.
func (r categoryRepo) Delete(_ context.Context, id domain.Identifier) (bool, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cats[id.Value()]; !ok {
		return false, nil
	}
	delete(s.cats, id.Value())
	for pid, p := range s.posts {
		kept := p.CategoryIDs[:0:0]
		for _, cid := range p.CategoryIDs {
			if cid != id.Value() {
				kept = append(kept, cid)
			}
		}
		p.CategoryIDs = kept
		s.posts[pid] = p
	}
	return true, nil
}

// === Comments ===

type commentRepo struct{ s *Store }

func (r commentRepo) Save(_ context.Context, c *domain.Comment) (*domain.Comment, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := storage.CommentRecordOf(c)
	if _, ok := s.posts[rec.PostID]; !ok {
		return nil, domain.NewEntityNotFoundError("Post", c.PostID())
	}
	if _, ok := s.users[rec.AuthorID]; !ok {
		return nil, domain.NewEntityNotFoundError("User", c.AuthorID())
	}
	if c.IsNew() {
		rec.ID = s.nextID("comments")
	} else if _, ok := s.comments[rec.ID]; !ok {
		return nil, domain.NewEntityNotFoundError("Comment", c.ID())
	}
	s.comments[rec.ID] = rec
	return rec.Restore()
}

func (r commentRepo) FindByID(_ context.Context, id domain.Identifier) (*domain.Comment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rec, ok := r.s.comments[id.Value()]
	if !ok {
		return nil, nil
	}
	return rec.Restore()
}

func (r commentRepo) FindByPostID(_ context.Context, postID domain.Identifier) ([]*domain.Comment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	recs := make([]storage.CommentRecord, 0)
	for _, rec := range sortedByID(r.s.comments) {
		if rec.PostID == postID.Value() {
			recs = append(recs, rec)
		}
	}
	return restoreAll(recs, storage.CommentRecord.Restore)
}

func (r commentRepo) Delete(_ context.Context, id domain.Identifier) (bool, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.comments[id.Value()]; !ok {
		return false, nil
	}
	s.deleteCommentLocked(id.Value())
	return true, nil
}

func (s *Store) deleteCommentLocked(id int64) {
	delete(s.comments, id)
	for rid, resp := range s.responses {
		if resp.CommentID == id {
			delete(s.responses, rid)
		}
	}
}

// === Comment responses ===

type responseRepo struct{ s *Store }

func (r responseRepo) Save(_ context.Context, resp *domain.CommentResponse) (*domain.CommentResponse, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := storage.CommentResponseRecordOf(resp)
	if _, ok := s.comments[rec.CommentID]; !ok {
		return nil, domain.NewEntityNotFoundError("Comment", resp.CommentID())
	}
	if _, ok := s.users[rec.AuthorID]; !ok {
		return nil, domain.NewEntityNotFoundError("User", resp.AuthorID())
	}
	if resp.IsNew() {
		rec.ID = s.nextID("comment_responses")
	} else if _, ok := s.responses[rec.ID]; !ok {
		return nil, domain.NewEntityNotFoundError("Comment response", resp.ID())
	}
	s.responses[rec.ID] = rec
	return rec.Restore()
}

func (r responseRepo) FindByID(_ context.Context, id domain.Identifier) (*domain.CommentResponse, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rec, ok := r.s.responses[id.Value()]
	if !ok {
		return nil, nil
	}
	return rec.Restore()
}

func (r responseRepo) FindByCommentIDs(_ context.Context, commentIDs []domain.Identifier) ([]*domain.CommentResponse, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	wanted := make(map[int64]struct{}, len(commentIDs))
	for _, id := range commentIDs {
		wanted[id.Value()] = struct{}{}
	}
	recs := make([]storage.CommentResponseRecord, 0)
	for _, rec := range sortedByID(r.s.responses) {
		if _, ok := wanted[rec.CommentID]; ok {
			recs = append(recs, rec)
		}
	}
	return restoreAll(recs, storage.CommentResponseRecord.Restore)
}

func (r responseRepo) Delete(_ context.Context, id domain.Identifier) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.responses[id.Value()]; !ok {
		return false, nil
	}
	delete(r.s.responses, id.Value())
	return true, nil
}

// === helpers ===

func sortedByID[R any](m map[int64]R) []R {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	out := make([]R, len(keys))
	for i, k := range keys {
		out[i] = m[k]
	}
	return out
}

func restoreAll[R any, E any](recs []R, restore func(R) (E, error)) ([]E, error) {
	out := make([]E, 0, len(recs))
	for _, rec := range recs {
		e, err := restore(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// uniqueValues сохраняет порядок первого вхождения.
func uniqueValues(ids []domain.Identifier) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id.Value()]; ok {
			continue
		}
		seen[id.Value()] = struct{}{}
		out = append(out, id.Value())
	}
	return out
}
