package handler

import (
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sandeepkv93/shortlink-backend/internal/http/middleware"
	"github.com/sandeepkv93/shortlink-backend/internal/http/response"
	"github.com/sandeepkv93/shortlink-backend/internal/observability"
	"github.com/sandeepkv93/shortlink-backend/internal/service"
)

type LinkHandler struct {
	links    service.LinkServiceInterface
	resolver service.AliasResolverInterface
}

func NewLinkHandler(links service.LinkServiceInterface, resolver service.AliasResolverInterface) *LinkHandler {
	return &LinkHandler{links: links, resolver: resolver}
}

type resolveAliasRequest struct {
	IP string `json:"ip"`
}

type createLinkRequest struct {
	URL         string `json:"url"`
	CustomAlias string `json:"custom_alias"`
}

// ResolveAlias returns the target of an alias and records the hit. The
// requester IP comes from the body when the caller is a trusted frontend,
// otherwise from the connection.
func (h *LinkHandler) ResolveAlias(w http.ResponseWriter, r *http.Request) {
	var req resolveAliasRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadBody(w, r)
		return
	}
	alias := chi.URLParam(r, "alias")
	meta := service.AccessMetadata{
		IP:        strings.TrimSpace(req.IP),
		UserAgent: r.UserAgent(),
	}
	if meta.IP == "" {
		meta.IP = remoteIP(r)
	}

	target, err := h.resolver.Resolve(r.Context(), alias, meta)
	if err != nil {
		observability.AuditResult(r, "link.resolve", service.ErrorCode(err), "alias", alias)
		writeError(w, r, "resolve_alias", err)
		return
	}
	observability.AuditResult(r, "link.resolve", "", "alias", alias, "client_ip", meta.IP)
	response.JSON(w, r, http.StatusOK, map[string]string{"alias": alias, "url": target})
}

func (h *LinkHandler) CreateLink(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, service.CodeUnauthorized, "unauthorized", nil)
		return
	}
	var req createLinkRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadBody(w, r)
		return
	}
	link, err := h.links.CreateLink(r.Context(), userID, req.URL, req.CustomAlias)
	if err != nil {
		observability.AuditResult(r, "link.create", service.ErrorCode(err), "user_id", userID)
		writeError(w, r, "create_link", err)
		return
	}
	observability.AuditResult(r, "link.create", "", "user_id", userID, "alias", link.Alias)
	response.JSON(w, r, http.StatusCreated, link)
}

func (h *LinkHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, service.CodeUnauthorized, "unauthorized", nil)
		return
	}
	stats, err := h.links.Stats(r.Context(), userID, chi.URLParam(r, "alias"))
	if err != nil {
		writeError(w, r, "link_stats", err)
		return
	}
	response.JSON(w, r, http.StatusOK, stats)
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return host
}
