package tasks

import (
	"context"
	"log"
	"sync"

	"taskboard/pkg/interfaces"
	"taskboard/pkg/types"
)

// DefaultPageSize matches the product's task table.
const DefaultPageSize = 5

// SessionInfo is the slice of the session controller the collection
// needs: an identity generation counter for stale-result rejection.
type SessionInfo interface {
	Epoch() uint64
}

// Controller owns the in-memory task collection, its selection set
// and its page window. It is the collection's single writer. The
// whole collection is loaded eagerly; paging is pure windowing over
// memory and never triggers a network call.
type Controller struct {
	api     interfaces.TaskAPI
	session SessionInfo

	mu          sync.Mutex
	tasks       []types.Task
	selected    map[string]struct{}
	filter      string
	pageSize    int
	currentPage int
}

// NewController creates a collection controller. pageSize <= 0 falls
// back to DefaultPageSize.
func NewController(api interfaces.TaskAPI, session SessionInfo, pageSize int) *Controller {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Controller{
		api:         api,
		session:     session,
		selected:    make(map[string]struct{}),
		pageSize:    pageSize,
		currentPage: 1,
	}
}

// Load replaces the collection wholesale from the task API, keeping
// server order. The selection set is intersected with the new id set
// and the page window is clamped. A result that completes after the
// session identity moved (logout or re-login while the fetch was in
// flight) is dropped rather than applied to torn-down state.
func (c *Controller) Load(ctx context.Context, assignedTo string) error {
	epoch := c.session.Epoch()

	fetched, err := c.api.ListTasks(ctx, assignedTo)
	if err != nil {
		return err
	}

	if c.session.Epoch() != epoch {
		log.Printf("Dropping stale task load: %d tasks", len(fetched))
		return ErrStaleResult
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.tasks = fetched
	c.filter = assignedTo

	ids := make(map[string]struct{}, len(fetched))
	for _, t := range fetched {
		ids[t.ID] = struct{}{}
	}
	for id := range c.selected {
		if _, ok := ids[id]; !ok {
			delete(c.selected, id)
		}
	}

	c.clampPageLocked()
	return nil
}

// ToggleSelect flips membership of id in the selection set. Ids not
// present in the collection are ignored, which keeps the selection a
// subset of the loaded ids at all times.
func (c *Controller) ToggleSelect(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.containsLocked(id) {
		return
	}
	if _, ok := c.selected[id]; ok {
		delete(c.selected, id)
	} else {
		c.selected[id] = struct{}{}
	}
}

// ToggleSelectAll selects every loaded task, or clears the selection
// when everything is already selected. Selection spans the whole
// collection, not just the visible page: bulk actions are
// collection-wide.
func (c *Controller) ToggleSelectAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.selected) == len(c.tasks) && len(c.tasks) > 0 {
		c.selected = make(map[string]struct{})
		return
	}
	for _, t := range c.tasks {
		c.selected[t.ID] = struct{}{}
	}
}

// IsSelected reports selection membership for one id.
func (c *Controller) IsSelected(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.selected[id]
	return ok
}

// Selected returns the selected ids in collection order.
func (c *Controller) Selected() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]string, 0, len(c.selected))
	for _, t := range c.tasks {
		if _, ok := c.selected[t.ID]; ok {
			out = append(out, t.ID)
		}
	}
	return out
}

// BulkUpdateStatus applies one status to every selected task as a
// single batch request. The batch is atomic from the UI's point of
// view: on success the collection is refreshed to reflect every
// update, on failure one error covers the whole batch. Either way the
// selection set is cleared so a stale multi-select never survives a
// refresh.
func (c *Controller) BulkUpdateStatus(ctx context.Context, status types.Status) error {
	if !types.IsValidStatus(status) {
		return types.ErrInvalidStatus
	}

	ids := c.Selected()
	if len(ids) == 0 {
		return types.ErrEmptySelection
	}

	epoch := c.session.Epoch()
	err := c.api.BulkUpdateStatus(ctx, ids, status)

	if c.session.Epoch() != epoch {
		log.Printf("Dropping stale bulk update completion: %d tasks", len(ids))
		return ErrStaleResult
	}

	c.mu.Lock()
	c.selected = make(map[string]struct{})
	filter := c.filter
	c.mu.Unlock()

	if err != nil {
		return err
	}
	// The refresh re-runs the query the collection was loaded with.
	return c.Load(ctx, filter)
}

// SetPage moves the page window, clamped to the valid range.
func (c *Controller) SetPage(page int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.currentPage = page
	c.clampPageLocked()
}

// Page returns the current page number.
func (c *Controller) Page() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentPage
}

// PageCount returns the number of pages, at least 1.
func (c *Controller) PageCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pageCountLocked()
}

// PageTasks returns the window of tasks visible on the current page.
func (c *Controller) PageTasks() []types.Task {
	c.mu.Lock()
	defer c.mu.Unlock()

	first := (c.currentPage - 1) * c.pageSize
	last := first + c.pageSize
	if first >= len(c.tasks) {
		return nil
	}
	if last > len(c.tasks) {
		last = len(c.tasks)
	}
	out := make([]types.Task, last-first)
	copy(out, c.tasks[first:last])
	return out
}

// ItemRange returns the 1-based first and last item numbers of the
// current page plus the total, for "Showing X to Y of Z entries".
func (c *Controller) ItemRange() (first, last, total int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	total = len(c.tasks)
	if total == 0 {
		return 0, 0, 0
	}
	first = (c.currentPage-1)*c.pageSize + 1
	last = c.currentPage * c.pageSize
	if last > total {
		last = total
	}
	return first, last, total
}

// Tasks returns a copy of the whole loaded collection.
func (c *Controller) Tasks() []types.Task {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]types.Task, len(c.tasks))
	copy(out, c.tasks)
	return out
}

// Len returns the loaded collection size.
func (c *Controller) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tasks)
}

func (c *Controller) containsLocked(id string) bool {
	for _, t := range c.tasks {
		if t.ID == id {
			return true
		}
	}
	return false
}

func (c *Controller) pageCountLocked() int {
	pages := (len(c.tasks) + c.pageSize - 1) / c.pageSize
	if pages < 1 {
		pages = 1
	}
	return pages
}

func (c *Controller) clampPageLocked() {
	if c.currentPage < 1 {
		c.currentPage = 1
	}
	if max := c.pageCountLocked(); c.currentPage > max {
		c.currentPage = max
	}
}
