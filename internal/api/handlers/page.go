package handlers

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"os"

	"github.com/cloo-solutions/molpanel/internal/api"
	"github.com/cloo-solutions/molpanel/internal/domain"
	"github.com/cloo-solutions/molpanel/internal/logging"
)

//go:embed web
var webFS embed.FS

const pageTitle = "Structure Editor"

var pageTemplate = template.Must(template.ParseFS(webFS, "web/index.html"))

// PanelCreator starts a panel session for each page render.
type PanelCreator interface {
	Strategy() string
	Create(ctx context.Context) (domain.PanelState, error)
}

// PageConfig points the page at the editor. EditorScriptURL must define
// window.KetcherEditor.mount; EditorAppURL is the same-origin page it frames.
type PageConfig struct {
	EditorScriptURL string
	EditorAppURL    string
}

type PageHandler struct {
	svc    PanelCreator
	cfg    PageConfig
	tmpl   *template.Template
	logger logging.Logger
}

func NewPageHandler(svc PanelCreator, cfg PageConfig, logger logging.Logger) *PageHandler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &PageHandler{svc: svc, cfg: cfg, tmpl: pageTemplate, logger: logger.Named("page")}
}

type pageSection struct {
	Key   string
	Title string
}

type pageData struct {
	Title           string
	PanelID         string
	Strategy        string
	EditorScriptURL string
	EditorAppURL    string
	Sections        []pageSection
}

// Index renders the page chrome with exactly one panel mounted.
func (h *PageHandler) Index(w http.ResponseWriter, r *http.Request) {
	state, err := h.svc.Create(r.Context())
	if err != nil {
		h.logger.Error("failed to create panel for page", logging.Err(err))
		api.HandleError(w, err)
		return
	}

	data := pageData{
		Title:           pageTitle,
		PanelID:         state.ID,
		Strategy:        h.svc.Strategy(),
		EditorScriptURL: h.cfg.EditorScriptURL,
		EditorAppURL:    h.cfg.EditorAppURL,
	}
	for _, c := range domain.Categories {
		data.Sections = append(data.Sections, pageSection{Key: string(c), Title: c.Title()})
	}

	var buf bytes.Buffer
	if err := h.tmpl.Execute(&buf, data); err != nil {
		h.logger.Error("failed to render page", logging.String("panel_id", state.ID), logging.Err(err))
		api.Error(w, http.StatusInternalServerError, "failed to render page")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// StaticHandler serves the page scripts and styles under /static/.
func StaticHandler() http.Handler {
	sub, err := fs.Sub(webFS, "web/static")
	if err != nil {
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}

// EditorAssetsPrefix is where the editor build is served from.
const EditorAssetsPrefix = "/ketcher/"

// EditorAssetsHandler serves an unpacked Ketcher standalone build from dir
// under EditorAssetsPrefix. The frame must share the page's origin for the
// panel script to reach the editor instance.
func EditorAssetsHandler(dir string) (http.Handler, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("editor assets: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("editor assets: %s is not a directory", dir)
	}
	return http.StripPrefix(EditorAssetsPrefix, http.FileServer(http.Dir(dir))), nil
}
