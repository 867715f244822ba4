package api

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chickadee/reader/app/activity"
	"github.com/chickadee/reader/app/database"
	"github.com/chickadee/reader/app/fetch"
	"github.com/chickadee/reader/app/follows"
	"github.com/chickadee/reader/app/resource"
	"github.com/chickadee/reader/app/tasks"
)

func NewHandler(itemRepo database.ItemRepository, followRepo database.FollowRepository,
	followsCache *follows.Cache, source *activity.Source, orchestrator *activity.Orchestrator,
	scheduler tasks.TaskSchedulerInterface, httpClient *http.Client, userAgent string) *Handler {
	return &Handler{
		itemRepo:     itemRepo,
		followRepo:   followRepo,
		followsCache: followsCache,
		source:       source,
		orchestrator: orchestrator,
		scheduler:    scheduler,
		httpClient:   httpClient,
		userAgent:    userAgent,
	}
}

func (h *Handler) newRefreshTask() tasks.TaskInterface {
	return tasks.NewRefreshFollowsTask(h.followsCache.GetURLs(), h.orchestrator, h.followRepo, h.itemRepo)
}

// GetTimeline returns the aggregated items as an OrderedCollection,
// newest first. Items published in the future stay hidden until due.
func (h *Handler) GetTimeline(c *gin.Context) {
	limit := h.followsCache.GetSettings().MaxItems
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed < limit {
			limit = parsed
		}
	}

	items, err := h.itemRepo.GetTimeline(limit, time.Now().UTC())
	if err != nil {
		slog.Error("Database error", "operation", "get_timeline", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	timeline := resource.Object{
		ID:           resource.URIBase + "/timeline",
		Type:         resource.TypeOrderedCollection,
		OrderedItems: items,
	}

	c.Header("X-Timeline-Items", strconv.Itoa(len(items)))
	c.JSON(http.StatusOK, timeline)
}

// GetResource fetches and normalizes an arbitrary web resource
// addressed in the "/{host}/{base64url-path}" routing form.
func (h *Handler) GetResource(c *gin.Context) {
	host := c.Param("host")
	encoded := strings.TrimPrefix(c.Param("encoded"), "/")

	rawURL, err := resource.ParsePath(host, encoded)
	if err != nil {
		slog.Debug("Invalid resource path", "host", host, "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid resource path"})
		return
	}

	strategy := fetch.CacheFirst
	switch c.Query("strategy") {
	case string(fetch.NetworkFirst):
		strategy = fetch.NetworkFirst
	case string(fetch.Revalidate):
		strategy = fetch.Revalidate
	}

	obj, err := h.source.Get(c.Request.Context(), rawURL, strategy)
	if err != nil {
		slog.Error("Failed to get resource", "url", rawURL, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Resource unavailable"})
		return
	}

	c.JSON(http.StatusOK, obj)
}

// GetProxy forwards a request to the origin over TLS, giving browser
// clients a same-origin path to resources their CORS policy would
// otherwise block.
func (h *Handler) GetProxy(c *gin.Context) {
	host := c.Param("host")
	encoded := strings.TrimPrefix(c.Param("encoded"), "/")

	rawURL, err := resource.ParsePath(host, encoded)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid proxy path"})
		return
	}

	req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodGet, rawURL, nil)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid origin URL"})
		return
	}

	if accept := c.GetHeader("Accept"); accept != "" {
		req.Header.Set("Accept", accept)
	}
	req.Header.Set("User-Agent", h.userAgent)

	resp, err := h.httpClient.Do(req)
	if err != nil {
		slog.Debug("Proxy fetch failed", "url", rawURL, "error", err)
		c.Status(http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	c.Header("Content-Type", resp.Header.Get("Content-Type"))
	c.Status(resp.StatusCode)
	if _, err := io.Copy(c.Writer, resp.Body); err != nil {
		slog.Debug("Proxy copy failed", "url", rawURL, "error", err)
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if followCount, err := h.followRepo.GetFollowCount(); err == nil {
		health["follows"] = followCount
	}
	if itemCount, err := h.itemRepo.GetItemCount(); err == nil {
		health["items"] = itemCount
	}

	health["loaded_follows"] = h.followsCache.GetCount()

	c.JSON(http.StatusOK, health)
}

func (h *Handler) APIListFollows(c *gin.Context) {
	entries := h.followsCache.GetEntries()

	stored, err := h.followRepo.GetFollows()
	if err != nil {
		slog.Error("Database error", "operation", "get_follows", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	refreshedAt := make(map[string]*time.Time, len(stored))
	for _, follow := range stored {
		refreshedAt[follow.URL] = follow.LastRefreshedAt
	}

	follows := make([]map[string]interface{}, 0, len(entries))
	for _, entry := range entries {
		info := map[string]interface{}{
			"url":  entry.URL,
			"name": entry.Name,
		}
		if t, ok := refreshedAt[entry.URL]; ok && t != nil {
			info["last_refreshed_at"] = t
		}
		follows = append(follows, info)
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"follows": follows,
		"total":   len(follows),
	})
}

func (h *Handler) APIAddFollow(c *gin.Context) {
	var body struct {
		URL  string `json:"url" binding:"required"`
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing follow URL"})
		return
	}

	if err := h.followsCache.Add(body.URL, body.Name); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.followRepo.UpsertFollow(body.URL); err != nil {
		slog.Error("Database error", "operation", "upsert_follow", "url", body.URL, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"url":     body.URL,
	})
}

func (h *Handler) APIRemoveFollow(c *gin.Context) {
	followURL := c.Query("url")
	if followURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing url parameter"})
		return
	}

	if err := h.followsCache.Remove(followURL); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if err := h.followRepo.DeleteFollow(followURL); err != nil {
		slog.Error("Database error", "operation", "delete_follow", "url", followURL, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	// Items from the removed collection disappear on the next tick.
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"url":     followURL,
	})
}

func (h *Handler) APIRefresh(c *gin.Context) {
	task := h.newRefreshTask()
	if err := h.scheduler.EnqueueTask(task); err != nil {
		slog.Error("Error enqueueing refresh task", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to enqueue refresh task",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"task": gin.H{
			"id":   task.GetID(),
			"type": task.GetType(),
		},
	})
}
