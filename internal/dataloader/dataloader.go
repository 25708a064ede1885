package dataloader

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/graph-gophers/dataloader"

	"github.com/UkralStul/graphql-blog-service/internal/application/bus"
	"github.com/UkralStul/graphql-blog-service/internal/application/dto"
	"github.com/UkralStul/graphql-blog-service/internal/application/query"
)

type contextKey string

const key = contextKey("dataloaders")

// Loaders содержит все дата-лоадеры приложения.
type Loaders struct {
	UserByID     *dataloader.Loader
	CategoryByID *dataloader.Loader
}

// New создает лоадеры поверх шины запросов. Кеш живет в пределах одного запроса.
func New(queries bus.Asker) *Loaders {
	return &Loaders{
		UserByID: dataloader.NewBatchedLoader(
			batchBy(queries, func(ids []int64) any { return query.GetUsersByIDs{IDs: ids} },
				func(u *dto.UserDTO) int64 { return u.ID }),
			dataloader.WithWait(time.Millisecond*1),
		),
		CategoryByID: dataloader.NewBatchedLoader(
			batchBy(queries, func(ids []int64) any { return query.GetCategoriesByIDs{IDs: ids} },
				func(c *dto.CategoryDTO) int64 { return c.ID }),
			dataloader.WithWait(time.Millisecond*1),
		),
	}
}

// Middleware для внедрения лоадеров в контекст запроса.
func Middleware(queries bus.Asker, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(WithLoaders(r.Context(), New(queries))))
	})
}

func WithLoaders(ctx context.Context, l *Loaders) context.Context {
	return context.WithValue(ctx, key, l)
}

// For извлекает лоадеры из контекста. Вне HTTP-запроса (подписки) создает новые.
func For(ctx context.Context, queries bus.Asker) *Loaders {
	if l, ok := ctx.Value(key).(*Loaders); ok {
		return l
	}
	return New(queries)
}

// LoadUser возвращает nil без ошибки, если пользователь не найден.
func (l *Loaders) LoadUser(ctx context.Context, id int64) (*dto.UserDTO, error) {
	return load[dto.UserDTO](ctx, l.UserByID, id)
}

func (l *Loaders) LoadCategories(ctx context.Context, ids []int64) ([]*dto.CategoryDTO, error) {
	keys := make(dataloader.Keys, len(ids))
	for i, id := range ids {
		keys[i] = idKey(id)
	}
	values, errs := l.CategoryByID.LoadMany(ctx, keys)()
	out := make([]*dto.CategoryDTO, 0, len(values))
	for i, v := range values {
		if len(errs) > i && errs[i] != nil {
			return nil, errs[i]
		}
		if c, ok := v.(*dto.CategoryDTO); ok && c != nil {
			out = append(out, c)
		}
	}
	return out, nil
}

func load[T any](ctx context.Context, loader *dataloader.Loader, id int64) (*T, error) {
	v, err := loader.Load(ctx, idKey(id))()
	if err != nil {
		return nil, err
	}
	t, _ := v.(*T)
	return t, nil
}

func idKey(id int64) dataloader.Key {
	return dataloader.StringKey(strconv.FormatInt(id, 10))
}

// batchBy делает ОДИН запрос на всю пачку ключей и раскладывает ответ в порядке ключей.
func batchBy[T any](queries bus.Asker, makeQuery func([]int64) any, idOf func(*T) int64) dataloader.BatchFunc {
	return func(ctx context.Context, keys dataloader.Keys) []*dataloader.Result {
		ids := make([]int64, len(keys))
		results := make([]*dataloader.Result, len(keys))
		for i, k := range keys {
			id, err := strconv.ParseInt(k.String(), 10, 64)
			if err != nil {
				results[i] = &dataloader.Result{Error: err}
				continue
			}
			ids[i] = id
		}

		found, err := bus.Ask[[]*T](ctx, queries, makeQuery(ids))
		if err != nil {
			// В случае ошибки, возвращаем ее для всех ключей
			for i := range results {
				results[i] = &dataloader.Result{Error: err}
			}
			return results
		}

		byID := make(map[int64]*T, len(found))
		for _, item := range found {
			byID[idOf(item)] = item
		}
		for i, id := range ids {
			if results[i] == nil {
				results[i] = &dataloader.Result{Data: byID[id]}
			}
		}
		return results
	}
}
