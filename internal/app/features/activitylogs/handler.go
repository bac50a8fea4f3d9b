// internal/app/features/activitylogs/handler.go
package activitylogs

import (
	uierrors "github.com/dalemusser/mansiuk/internal/app/features/errors"
	activitylogstore "github.com/dalemusser/mansiuk/internal/app/store/activitylog"
	"github.com/dalemusser/mansiuk/internal/app/system/docstore"
	"go.uber.org/zap"
)

type Handler struct {
	Logs   *activitylogstore.Store
	Log    *zap.Logger
	ErrLog *uierrors.ErrorLogger
}

// NewHandler constructs an activity log feature handler bound to
// the given document store and logger.
func NewHandler(db docstore.DB, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Logs:   activitylogstore.New(db),
		Log:    logger,
		ErrLog: errLog,
	}
}
