package domain

import "errors"

var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrCategoryExists   = errors.New("category already exists")
)

// Category groups products. Deleting a category deletes every product that
// references it.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
