// internal/app/features/applications/handler.go
package applications

import (
	uierrors "github.com/dalemusser/mansiuk/internal/app/features/errors"
	applicationstore "github.com/dalemusser/mansiuk/internal/app/store/applications"
	"github.com/dalemusser/mansiuk/internal/app/system/docstore"
	"github.com/dalemusser/mansiuk/internal/app/workflow"
	"go.uber.org/zap"
)

// Handler serves the volunteer application endpoints.
type Handler struct {
	Svc    *workflow.Service
	Apps   *applicationstore.Store
	Log    *zap.Logger
	ErrLog *uierrors.ErrorLogger
}

// NewHandler constructs an applications Handler.
func NewHandler(db docstore.DB, svc *workflow.Service, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Svc:    svc,
		Apps:   applicationstore.New(db),
		Log:    logger,
		ErrLog: errLog,
	}
}
