package registry

import (
	"fmt"
	"sync"

	"github.com/farmaintel/price-service/internal/adapters/base"
	"github.com/farmaintel/price-service/internal/adapters/suppliers"
	"github.com/farmaintel/price-service/internal/types"
)

// Registry manages supplier parser registration and retrieval
type Registry struct {
	mu       sync.RWMutex
	adapters map[types.SupplierID]base.SupplierParser
}

// DefaultRegistry is the global registry instance
var DefaultRegistry = NewRegistry()

// NewRegistry creates a new supplier registry
func NewRegistry() *Registry {
	return &Registry{
		adapters: make(map[types.SupplierID]base.SupplierParser),
	}
}

// Register registers a parser for a given supplier
func (r *Registry) Register(supplier types.SupplierID, adapter base.SupplierParser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[supplier] = adapter
}

// Get retrieves a registered parser by supplier
func (r *Registry) Get(supplier types.SupplierID) (base.SupplierParser, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	adapter, ok := r.adapters[supplier]
	return adapter, ok
}

// GetOrInit retrieves or initializes the parser for a supplier. Suppliers
// without a dedicated parser get the generic one.
func (r *Registry) GetOrInit(supplier types.SupplierID) (base.SupplierParser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if adapter, ok := r.adapters[supplier]; ok {
		return adapter, nil
	}

	if !supplier.Valid() {
		return nil, fmt.Errorf("no parser for supplier: %s", supplier)
	}

	adapter, err := newAdapter(supplier)
	if err != nil {
		return nil, fmt.Errorf("failed to create parser for %s: %w", supplier, err)
	}

	r.adapters[supplier] = adapter
	return adapter, nil
}

func newAdapter(supplier types.SupplierID) (base.SupplierParser, error) {
	switch supplier {
	case types.SupplierDroactiva:
		return suppliers.NewDroactivaAdapter()
	case types.SupplierDromarko:
		return suppliers.NewDromarkoAdapter()
	case types.SupplierCobeca:
		return suppliers.NewCobecaAdapter()
	case types.SupplierNena:
		return suppliers.NewNenaAdapter()
	case types.SupplierF24:
		return suppliers.NewF24Adapter()
	default:
		return suppliers.NewGenericAdapter(supplier)
	}
}

// List returns all registered suppliers in declaration order
func (r *Registry) List() []types.SupplierID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]types.SupplierID, 0, len(r.adapters))
	for _, id := range types.SupplierIDs {
		if _, ok := r.adapters[id]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// IsRegistered checks if a supplier is registered
func (r *Registry) IsRegistered(supplier types.SupplierID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.adapters[supplier]
	return ok
}

// Unregister removes a supplier parser from the registry
func (r *Registry) Unregister(supplier types.SupplierID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.adapters, supplier)
}

// GetAdapter is a convenience function to get a parser from the default registry
func GetAdapter(supplier types.SupplierID) (base.SupplierParser, error) {
	return DefaultRegistry.GetOrInit(supplier)
}

// RegisterAdapter is a convenience function to register a parser in the default registry
func RegisterAdapter(supplier types.SupplierID, adapter base.SupplierParser) {
	DefaultRegistry.Register(supplier, adapter)
}

// InitializeDefaultAdapters initializes parsers for every known supplier
func InitializeDefaultAdapters() error {
	for _, id := range types.SupplierIDs {
		if _, err := DefaultRegistry.GetOrInit(id); err != nil {
			return err
		}
	}
	return nil
}
