// internal/app/features/profile/handler.go
package profile

import (
	uierrors "github.com/dalemusser/mansiuk/internal/app/features/errors"
	userstore "github.com/dalemusser/mansiuk/internal/app/store/users"
	"github.com/dalemusser/mansiuk/internal/app/system/docstore"
	"go.uber.org/zap"
)

// Handler owns the signed-in user's own profile endpoints.
type Handler struct {
	Users  *userstore.Store
	Log    *zap.Logger
	ErrLog *uierrors.ErrorLogger
}

// NewHandler constructs a Handler bound to the given document store and logger.
func NewHandler(db docstore.DB, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Users:  userstore.New(db),
		Log:    logger,
		ErrLog: errLog,
	}
}
