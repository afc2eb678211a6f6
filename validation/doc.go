// Package validation validates structs with go-playground/validator tags and
// reports failures as INVALID_INPUT application errors.
//
//	type createUser struct {
//	    Username string `json:"username" validate:"required"`
//	}
//	if err := validation.Validate(req); err != nil {
//	    return err // *errors.AppError, 400
//	}
//
// Field names in messages follow the json, mapstructure or yaml tag.
package validation
