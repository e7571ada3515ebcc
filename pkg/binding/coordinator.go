// Package binding propagates a newly created bag to the forms and views that
// depend on it.
package binding

import (
	"log/slog"
	"sync"

	"github.com/ariyeh/bagtag/pkg/form"
	"github.com/ariyeh/bagtag/pkg/inventory"
	"github.com/ariyeh/bagtag/pkg/models"
)

// Coordinator applies a bag creation to the Entrupy form and the inventory
// as one step.
type Coordinator struct {
	mu        sync.Mutex
	entrupy   *form.State
	inventory *inventory.Cache
	logger    *slog.Logger
}

// NewCoordinator wires the dependents of a bag creation.
func NewCoordinator(entrupy *form.State, inv *inventory.Cache, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{entrupy: entrupy, inventory: inv, logger: logger}
}

// OnBagCreated points the Entrupy form at the new bag and prepends the bag to
// the inventory. A response without a bag id changes nothing and returns false.
func (c *Coordinator) OnBagCreated(created models.BagWithTag) bool {
	id, ok := created.Bag.BagID()
	if !ok {
		c.logger.Debug("bag creation response has no bag id, skipping binding")
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entrupy.SetField(form.FieldBagID, id)
	c.inventory.Prepend(models.RowFromCreated(created))
	c.logger.Info("bag bound", "bagID", id, "tagCode", models.Value(tagCode(created.Tag)))
	return true
}

// Observe calls fn with the Entrupy form's bag id and the inventory rows
// read together, never between the two writes of OnBagCreated.
func (c *Coordinator) Observe(fn func(bagID int64, rows []models.InventoryRow)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, _ := c.entrupy.Int(form.FieldBagID)
	fn(id, c.inventory.Rows())
}

func tagCode(t *models.Tag) *string {
	if t == nil {
		return nil
	}
	return t.TagCode
}
