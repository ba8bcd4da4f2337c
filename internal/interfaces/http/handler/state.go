package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/tecsitel/backend/internal/application/state"
)

// SyncSaver persists the current snapshot immediately, bypassing the
// background queue.
type SyncSaver interface {
	SaveNow(ctx context.Context) error
}

// StateHandler handles explicit persistence endpoints: forcing a save and
// reloading the state from the storage backend.
type StateHandler struct {
	BaseHandler
	store *state.Store
	saver SyncSaver
	repo  state.Repository
}

// NewStateHandler creates a new StateHandler
func NewStateHandler(store *state.Store, saver SyncSaver, repo state.Repository) *StateHandler {
	return &StateHandler{store: store, saver: saver, repo: repo}
}

// StateStatusResponse summarizes the in-memory state
type StateStatusResponse struct {
	Invoices       int    `json:"invoices"`
	Transactions   int    `json:"transactions"`
	InvoiceCounter int64  `json:"invoice_counter"`
	Username       string `json:"username"`
}

// Status handles GET /state
func (h *StateHandler) Status(c *gin.Context) {
	snapshot := h.store.Snapshot()
	h.Success(c, StateStatusResponse{
		Invoices:       len(snapshot.Invoices),
		Transactions:   len(snapshot.Transactions),
		InvoiceCounter: snapshot.InvoiceCounter,
		Username:       snapshot.User.Username,
	})
}

// Save handles POST /state/save, forcing a synchronous save
func (h *StateHandler) Save(c *gin.Context) {
	if err := h.saver.SaveNow(c.Request.Context()); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"saved": true})
}

// Reload handles POST /state/reload, replacing the in-memory state with
// whatever the storage backend holds. Unsaved local changes are discarded.
func (h *StateHandler) Reload(c *gin.Context) {
	loaded, err := h.repo.Load(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.store.Replace(loaded)
	h.Success(c, StateStatusResponse{
		Invoices:       len(loaded.Invoices),
		Transactions:   len(loaded.Transactions),
		InvoiceCounter: loaded.InvoiceCounter,
		Username:       loaded.User.Username,
	})
}

// RegisterRoutes registers all state routes
func (h *StateHandler) RegisterRoutes(rg *gin.RouterGroup) {
	st := rg.Group("/state")
	{
		st.GET("", h.Status)
		st.POST("/save", h.Save)
		st.POST("/reload", h.Reload)
	}
}
