package dto

import "github.com/UkralStul/graphql-blog-service/internal/domain"

// Мапперы: nil -> nil для одиночных значений, nil/пустой срез -> пустой срез.

func UserToDTO(u *domain.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:        u.ID().Value(),
		Email:     u.Email().Value(),
		Username:  u.Username(),
		Role:      string(u.Role()),
		CreatedAt: u.CreatedAt(),
		UpdatedAt: u.UpdatedAt(),
	}
}

func UsersToDTOs(users []*domain.User) []*UserDTO {
	return mapAll(users, UserToDTO)
}

func CategoryToDTO(c *domain.Category) *CategoryDTO {
	if c == nil {
		return nil
	}
	return &CategoryDTO{ID: c.ID().Value(), Name: c.Name().Value()}
}

func CategoriesToDTOs(categories []*domain.Category) []*CategoryDTO {
	return mapAll(categories, CategoryToDTO)
}

func PostToDTO(p *domain.Post) *PostDTO {
	if p == nil {
		return nil
	}
	return &PostDTO{
		ID:          p.ID().Value(),
		Title:       p.Title().Value(),
		Content:     p.Content().Value(),
		Published:   p.Published(),
		AuthorID:    p.AuthorID().Value(),
		CategoryIDs: domain.IdentifierValues(p.CategoryIDs()),
		CreatedAt:   p.CreatedAt(),
		UpdatedAt:   p.UpdatedAt(),
	}
}

func PostsToDTOs(posts []*domain.Post) []*PostDTO {
	return mapAll(posts, PostToDTO)
}

func CommentResponseToDTO(r *domain.CommentResponse) *CommentResponseDTO {
	if r == nil {
		return nil
	}
	return &CommentResponseDTO{
		ID:        r.ID().Value(),
		Content:   r.Content().Value(),
		CommentID: r.CommentID().Value(),
		PostID:    r.PostID().Value(),
		AuthorID:  r.AuthorID().Value(),
		CreatedAt: r.CreatedAt(),
		UpdatedAt: r.UpdatedAt(),
	}
}

func CommentResponsesToDTOs(responses []*domain.CommentResponse) []*CommentResponseDTO {
	return mapAll(responses, CommentResponseToDTO)
}

// CommentToDTO отображает комментарий вместе с ответами.
func CommentToDTO(c *domain.Comment) *CommentDTO {
	if c == nil {
		return nil
	}
	return &CommentDTO{
		ID:        c.ID().Value(),
		Content:   c.Content().Value(),
		PostID:    c.PostID().Value(),
		AuthorID:  c.AuthorID().Value(),
		Replies:   CommentResponsesToDTOs(c.Responses()),
		CreatedAt: c.CreatedAt(),
		UpdatedAt: c.UpdatedAt(),
	}
}

func CommentsToDTOs(comments []*domain.Comment) []*CommentDTO {
	return mapAll(comments, CommentToDTO)
}

func mapAll[E any, D any](in []*E, fn func(*E) *D) []*D {
	out := make([]*D, 0, len(in))
	for _, e := range in {
		if d := fn(e); d != nil {
			out = append(out, d)
		}
	}
	return out
}
