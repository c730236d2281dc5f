package service

import "errors"

var (
	ErrValidation        = errors.New("validation failed")
	ErrCategoryNameTaken = errors.New("category with this name already exists")
	ErrSearchUnavailable = errors.New("expense search is not available")
)
