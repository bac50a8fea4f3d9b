// internal/app/features/requests/handler.go
package requests

import (
	uierrors "github.com/dalemusser/mansiuk/internal/app/features/errors"
	applicationstore "github.com/dalemusser/mansiuk/internal/app/store/applications"
	requeststore "github.com/dalemusser/mansiuk/internal/app/store/requests"
	"github.com/dalemusser/mansiuk/internal/app/system/docstore"
	"github.com/dalemusser/mansiuk/internal/app/workflow"
	"go.uber.org/zap"
)

// Handler serves the help request endpoints. Reads go straight to the
// stores; every mutation goes through the workflow service.
type Handler struct {
	Svc      *workflow.Service
	Requests *requeststore.Store
	Apps     *applicationstore.Store
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
}

// NewHandler constructs a requests Handler.
func NewHandler(db docstore.DB, svc *workflow.Service, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Svc:      svc,
		Requests: requeststore.New(db),
		Apps:     applicationstore.New(db),
		Log:      logger,
		ErrLog:   errLog,
	}
}
