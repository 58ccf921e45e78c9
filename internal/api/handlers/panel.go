package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/cloo-solutions/molpanel/internal/api"
	"github.com/cloo-solutions/molpanel/internal/domain"
	"github.com/cloo-solutions/molpanel/internal/pagination"
	"github.com/cloo-solutions/molpanel/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type PanelService interface {
	Strategy() string
	Create(ctx context.Context) (domain.PanelState, error)
	Get(ctx context.Context, id string) (domain.PanelState, error)
	EditorReady(ctx context.Context, id string) (string, domain.PanelState, error)
	EditorFailed(ctx context.Context, id, message string) (domain.PanelState, error)
	Retrieve(ctx context.Context, id, smiles, editorErr string) (bool, domain.PanelState, error)
	Close(ctx context.Context, id string) error
}

// RetrievalHistory lists the stored retrievals of a panel.
type RetrievalHistory interface {
	ListByPanel(ctx context.Context, panelID string, limit int, cursor *pagination.Cursor) ([]service.RetrievalLog, error)
}

type PanelHandler struct {
	svc     PanelService
	history RetrievalHistory
}

// NewPanelHandler creates a PanelHandler. history may be nil when no
// database is configured.
func NewPanelHandler(svc PanelService, history RetrievalHistory) *PanelHandler {
	return &PanelHandler{svc: svc, history: history}
}

type ResultResponse struct {
	SMILES          string  `json:"smiles"`
	Similarity      float64 `json:"similarity"`
	SimilarityLabel string  `json:"similarity_label"`
}

type PanelResponse struct {
	ID                 string           `json:"id"`
	Strategy           string           `json:"strategy"`
	EditorReady        bool             `json:"editor_ready"`
	SMILES             string           `json:"smiles"`
	SimilarStructures  []ResultResponse `json:"similar_structures"`
	CommercialReagents []ResultResponse `json:"commercial_reagents"`
	PubChemResults     []ResultResponse `json:"pubchem_results"`
	Error              string           `json:"error,omitempty"`
	Loading            bool             `json:"loading"`
	CreatedAt          string           `json:"created_at"`
	UpdatedAt          string           `json:"updated_at"`
}

type ReadyResponse struct {
	Structure string        `json:"structure"`
	Panel     PanelResponse `json:"panel"`
}

type EditorErrorRequest struct {
	Message string `json:"message"`
}

type RetrieveRequest struct {
	SMILES string `json:"smiles"`
	Error  string `json:"error"`
}

type RetrieveResponse struct {
	Performed bool          `json:"performed"`
	Panel     PanelResponse `json:"panel"`
}

func resultsToResponse(results []domain.SearchResult) []ResultResponse {
	out := make([]ResultResponse, 0, len(results))
	for _, r := range results {
		out = append(out, ResultResponse{
			SMILES:          r.SMILES,
			Similarity:      r.Similarity,
			SimilarityLabel: domain.FormatSimilarity(r.Similarity),
		})
	}
	return out
}

func panelToResponse(s domain.PanelState, strategy string) PanelResponse {
	return PanelResponse{
		ID:                 s.ID,
		Strategy:           strategy,
		EditorReady:        s.EditorReady,
		SMILES:             s.SMILES,
		SimilarStructures:  resultsToResponse(s.Results.Similar),
		CommercialReagents: resultsToResponse(s.Results.Commercial),
		PubChemResults:     resultsToResponse(s.Results.PubChem),
		Error:              s.Error,
		Loading:            s.Loading,
		CreatedAt:          s.CreatedAt.Format(time.RFC3339),
		UpdatedAt:          s.UpdatedAt.Format(time.RFC3339),
	}
}

// decodeOptional decodes a JSON body into v, treating an empty body as zero.
func decodeOptional(r *http.Request, v interface{}) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (h *PanelHandler) Create(w http.ResponseWriter, r *http.Request) {
	state, err := h.svc.Create(r.Context())
	if err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusCreated, panelToResponse(state, h.svc.Strategy()))
}

func (h *PanelHandler) Get(w http.ResponseWriter, r *http.Request) {
	state, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, panelToResponse(state, h.svc.Strategy()))
}

// Ready is called by the page once the editor has mounted. The response
// carries the structure the page must load into it.
func (h *PanelHandler) Ready(w http.ResponseWriter, r *http.Request) {
	structure, state, err := h.svc.EditorReady(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, ReadyResponse{
		Structure: structure,
		Panel:     panelToResponse(state, h.svc.Strategy()),
	})
}

func (h *PanelHandler) EditorError(w http.ResponseWriter, r *http.Request) {
	var req EditorErrorRequest
	if err := decodeOptional(r, &req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	state, err := h.svc.EditorFailed(r.Context(), chi.URLParam(r, "id"), req.Message)
	if err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, panelToResponse(state, h.svc.Strategy()))
}

// Retrieve runs a retrieval with the encoding the page read from its editor.
// A failed retrieval is still a 200; the failure is in panel.error.
func (h *PanelHandler) Retrieve(w http.ResponseWriter, r *http.Request) {
	var req RetrieveRequest
	if err := decodeOptional(r, &req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	performed, state, err := h.svc.Retrieve(r.Context(), chi.URLParam(r, "id"), req.SMILES, req.Error)
	if err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, RetrieveResponse{
		Performed: performed,
		Panel:     panelToResponse(state, h.svc.Strategy()),
	})
}

func (h *PanelHandler) Close(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Close(r.Context(), chi.URLParam(r, "id")); err != nil {
		api.HandleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// History lists stored retrievals for a panel, newest first, one page at a
// time.
func (h *PanelHandler) History(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		api.Error(w, http.StatusNotImplemented, "retrieval log not configured")
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 500 {
			api.Error(w, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = n
	}

	cursor, err := pagination.DecodeCursor(r.URL.Query().Get("cursor"))
	if err == nil && cursor != nil {
		// Retrieval log IDs are UUIDs; anything else would fail in the query.
		_, err = uuid.Parse(cursor.LastID)
	}
	if err != nil {
		api.Error(w, http.StatusBadRequest, "invalid cursor")
		return
	}

	logs, err := h.history.ListByPanel(r.Context(), chi.URLParam(r, "id"), limit+1, cursor)
	if err != nil {
		api.Error(w, http.StatusInternalServerError, "failed to list retrievals")
		return
	}

	api.Success(w, http.StatusOK, pagination.NewPage(logs, limit, func(l service.RetrievalLog) (string, time.Time) {
		return l.ID, l.CreatedAt
	}))
}
