package domain

import (
	"strconv"

	"github.com/UkralStul/graphql-blog-service/internal/apperrors"
)

// Identifier - обертка над числовым первичным ключом.
// Нулевое значение означает, что сущность еще не сохранена.
type Identifier struct {
	value int64
}

// NewIdentifier создает идентификатор из числа.
func NewIdentifier(value int64) Identifier {
	return Identifier{value: value}
}

// ParseIdentifier разбирает строковый идентификатор (например, GraphQL ID).
func ParseIdentifier(raw string) (Identifier, error) {
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		return Identifier{}, apperrors.NewArgumentInvalid("Invalid identifier \"" + raw + "\".")
	}
	return Identifier{value: v}, nil
}

func (id Identifier) Value() int64 {
	return id.value
}

func (id Identifier) String() string {
	return strconv.FormatInt(id.value, 10)
}

// Equals сравнивает идентификаторы по значению.
func (id Identifier) Equals(other Identifier) bool {
	return id.value == other.value
}

// IsNew сообщает, что сущность еще не получила ключ от хранилища.
func (id Identifier) IsNew() bool {
	return id.value == 0
}

// MarshalJSON - идентификатор сериализуется как число.
func (id Identifier) MarshalJSON() ([]byte, error) {
	return []byte(id.String()), nil
}

// IdentifierValues переводит список идентификаторов в числа.
func IdentifierValues(ids []Identifier) []int64 {
	out := make([]int64, len(ids))
	for i, id := range ids {
		out[i] = id.value
	}
	return out
}

// NewIdentifiers переводит список чисел в идентификаторы.
func NewIdentifiers(values []int64) []Identifier {
	out := make([]Identifier, len(values))
	for i, v := range values {
		out[i] = Identifier{value: v}
	}
	return out
}
