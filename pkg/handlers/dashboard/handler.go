package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/de-tools/posture-atlas/pkg/adapters"
	"github.com/de-tools/posture-atlas/pkg/models/api"
	"github.com/de-tools/posture-atlas/pkg/models/domain"
	"github.com/de-tools/posture-atlas/pkg/services/refresh"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Reader is the read side of the cache store.
type Reader interface {
	GetDashboard(ctx context.Context, projectID string) (*domain.DashboardDocument, error)
	GetProjects(ctx context.Context) (*domain.ProjectList, error)
}

type Handler struct {
	reader     Reader
	controller refresh.Controller
}

func NewHandler(reader Reader, controller refresh.Controller) *Handler {
	return &Handler{
		reader:     reader,
		controller: controller,
	}
}

func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	folder := r.URL.Query().Get("folderName")

	list, err := h.reader.GetProjects(ctx)
	if err != nil {
		writeError(ctx, w, readStatus(err), err)
		return
	}
	view := *list
	if folder != "" {
		view.Projects = make([]domain.ProjectRef, 0, len(list.Projects))
		for _, p := range list.Projects {
			if p.FolderName == folder {
				view.Projects = append(view.Projects, p)
			}
		}
	}
	writeJSON(ctx, w, http.StatusOK, adapters.MapProjectListDomainToApi(view))
}

func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	project := chi.URLParam(r, "project")

	doc, err := h.reader.GetDashboard(ctx, project)
	if err != nil {
		writeError(ctx, w, readStatus(err), err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, adapters.MapDashboardDomainToApi(*doc))
}

func (h *Handler) RefreshProject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	project := chi.URLParam(r, "project")

	doc, err := h.controller.RefreshProject(ctx, project)
	if err != nil {
		writeError(ctx, w, http.StatusBadGateway, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, adapters.MapDashboardDomainToApi(*doc))
}

func (h *Handler) CancelRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	project := chi.URLParam(r, "project")

	if err := h.controller.Cancel(ctx, project); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrNotFound) {
			status = http.StatusNotFound
		}
		writeError(ctx, w, status, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) RefreshOrganization(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	outcome, err := h.controller.RefreshOrganization(ctx)
	if err != nil {
		writeError(ctx, w, http.StatusBadGateway, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, adapters.MapBatchOutcomeDomainToApi(outcome))
}

func readStatus(err error) int {
	if errors.Is(err, domain.ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	logger := zerolog.Ctx(ctx)
	event := logger.Warn()
	if status >= http.StatusInternalServerError {
		event = logger.Error()
	}
	event.Err(err).Int("status", status).Msg("request failed")
	writeJSON(ctx, w, status, api.ErrorResponse{Error: err.Error()})
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to encode response")
	}
}
