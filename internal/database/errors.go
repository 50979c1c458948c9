package database

import (
	"errors"

	"siteflow/internal/apperr"

	"gorm.io/gorm"
)

// notFound translates gorm.ErrRecordNotFound into an apperr.NotFound
// carrying msg; any other error becomes Internal.
func notFound(err error, msg string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.Wrap(apperr.NotFound, msg, err)
	}
	return apperr.Wrap(apperr.Internal, "database error", err)
}

func internal(err error, msg string) error {
	if err == nil {
		return nil
	}
	return apperr.Wrap(apperr.Internal, msg, err)
}
