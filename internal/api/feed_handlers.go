package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/joetm/ckanext-feeds/internal/auth"
	"github.com/joetm/ckanext-feeds/internal/config"
	"github.com/joetm/ckanext-feeds/internal/feeds"
	"github.com/joetm/ckanext-feeds/internal/i18n"
	"github.com/joetm/ckanext-feeds/internal/models"
)

// ActivityLister is the activity-list query service the feed handler consumes:
// four entity-filtered variants plus the unfiltered dashboard variant.
type ActivityLister interface {
	PackageActivityList(ctx context.Context, id string, offset, limit int) ([]models.Activity, error)
	UserActivityList(ctx context.Context, id string, offset, limit int) ([]models.Activity, error)
	GroupActivityList(ctx context.Context, id string, offset, limit int) ([]models.Activity, error)
	OrganizationActivityList(ctx context.Context, id string, offset, limit int) ([]models.Activity, error)
	DashboardActivityList(ctx context.Context, userID string, offset, limit int, onlyNew bool, q string) ([]models.Activity, error)
	MarkActivitiesOld(ctx context.Context, userID string) error
}

// FeedMetrics records rendered feed documents.
type FeedMetrics interface {
	ObserveFeedRender(format string, itemCount int)
}

// FeedHandler serves the dashboard activity stream as an RSS or Atom feed.
type FeedHandler struct {
	activities  ActivityLister
	transformer *feeds.Transformer
	translator  *i18n.Translator
	site        config.SiteConfig
	feed        config.FeedConfig
	metrics     FeedMetrics
	fallback    http.Handler
	logger      *slog.Logger
}

// NewFeedHandler creates the dashboard feed handler. The fallback handler
// serves the plain dashboard view when no feed format is requested.
func NewFeedHandler(activities ActivityLister, transformer *feeds.Transformer, translator *i18n.Translator,
	site config.SiteConfig, feed config.FeedConfig, metrics FeedMetrics, fallback http.Handler, logger *slog.Logger) *FeedHandler {
	return &FeedHandler{
		activities:  activities,
		transformer: transformer,
		translator:  translator,
		site:        site,
		feed:        feed,
		metrics:     metrics,
		fallback:    fallback,
		logger:      logger,
	}
}

// GetDashboardFeed handles GET /dashboard. Without a format parameter the
// request falls through to the plain dashboard view; with one, the user's
// activity stream is rendered as a feed document.
func (h *FeedHandler) GetDashboardFeed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "You must be logged in to access your dashboard", http.StatusUnauthorized)
		return
	}

	params := r.URL.Query()

	format := params.Get("format")
	if format == "" {
		h.fallback.ServeHTTP(w, r)
		return
	}

	locale := h.locale(r)

	builder, err := feeds.NewBuilder(format, params.Get("version"), feeds.Metadata{
		Title:       locale.Gettext(h.site.Title),
		Link:        h.site.URL + "/dashboard",
		Description: locale.Gettext(h.site.Description),
		Language:    locale.Language(),
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	offset := intParam(params.Get("offset"), 0)
	limit := intParam(params.Get("limit"), h.feed.DefaultLimit)
	if limit > h.feed.MaxLimit {
		limit = h.feed.MaxLimit
	}

	ctx := r.Context()

	activities, err := h.listActivities(ctx, userID, params.Get("type"), params.Get("name"), params.Get("q"),
		offset, limit, boolParam(params.Get("is_new")))
	if err != nil {
		h.logger.Error("failed to query activity stream", "user_id", userID, "error", err)
		http.Error(w, "Failed to retrieve activity stream", http.StatusInternalServerError)
		return
	}

	items, err := h.transformer.Run(ctx, locale, activities)
	if err != nil {
		h.logger.Error("failed to render activity stream", "user_id", userID, "error", err)
		h.writeError(w, err)
		return
	}

	for _, item := range items {
		if err := builder.AddItem(item); err != nil {
			h.writeError(w, err)
			return
		}
	}

	body, contentType, err := builder.Serialize()
	if err != nil {
		h.logger.Error("failed to serialize feed", "format", format, "error", err)
		http.Error(w, "Failed to serialize feed", http.StatusInternalServerError)
		return
	}

	// Viewing the dashboard feed marks the user's new activities as old.
	if err := h.activities.MarkActivitiesOld(ctx, userID); err != nil {
		h.logger.Error("failed to mark activities old", "user_id", userID, "error", err)
		http.Error(w, "Failed to update dashboard", http.StatusInternalServerError)
		return
	}

	if h.metrics != nil {
		h.metrics.ObserveFeedRender(format, len(items))
	}

	w.Header().Set("Content-Type", contentType+"; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		h.logger.Error("failed to write feed response", "error", err)
	}
}

func (h *FeedHandler) listActivities(ctx context.Context, userID, filterType, filterID, q string, offset, limit int, onlyNew bool) ([]models.Activity, error) {
	switch filterType {
	case "dataset":
		return h.activities.PackageActivityList(ctx, filterID, offset, limit)
	case "user":
		return h.activities.UserActivityList(ctx, filterID, offset, limit)
	case "group":
		return h.activities.GroupActivityList(ctx, filterID, offset, limit)
	case "organization":
		return h.activities.OrganizationActivityList(ctx, filterID, offset, limit)
	default:
		return h.activities.DashboardActivityList(ctx, userID, offset, limit, onlyNew, q)
	}
}

func (h *FeedHandler) locale(r *http.Request) i18n.Locale {
	preference := r.Header.Get("Accept-Language")
	if preference == "" {
		preference = h.site.Language
	}
	return h.translator.Locale(preference)
}

// writeError maps domain errors to HTTP status codes. Feed rendering has no
// partial output: any failure aborts the whole response.
func (h *FeedHandler) writeError(w http.ResponseWriter, err error) {
	var unknownFormat feeds.UnknownFormatError
	var unimplemented feeds.UnimplementedError
	var lookup feeds.LookupError

	switch {
	case errors.As(err, &unknownFormat):
		http.Error(w, "Unknown feed format", http.StatusBadRequest)
	case errors.As(err, &unimplemented):
		http.Error(w, unimplemented.Error(), http.StatusInternalServerError)
	case errors.As(err, &lookup):
		http.Error(w, lookup.Error(), http.StatusInternalServerError)
	default:
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func intParam(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	if n == 0 {
		return fallback
	}
	return n
}

func boolParam(raw string) bool {
	v, err := strconv.ParseBool(raw)
	return err == nil && v
}
