package op

import (
	"sort"
	"sync"

	"github.com/Masterminds/semver/v3"

	"github.com/clinpipe/clinpipe/errors"
)

// Registry holds the operations available for pipeline configuration,
// keyed by descriptor name. It is an explicit object handed to pipeline
// construction; there is no implicit process-wide registry.
type Registry struct {
	mu            sync.RWMutex
	ops           map[string]AnyOperation
	engineVersion string
}

// NewRegistry creates a registry bound to an engine version; operations
// declaring an incompatible engine constraint are rejected at registration.
func NewRegistry(engineVersion string) *Registry {
	return &Registry{
		ops:           make(map[string]AnyOperation),
		engineVersion: engineVersion,
	}
}

// Register adds an operation. Returns an error on a name conflict or an
// incompatible engine-version constraint.
func (r *Registry) Register(operation AnyOperation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	desc := operation.Descriptor()
	if desc.Name == "" {
		return errors.New("operation has no name")
	}
	if _, exists := r.ops[desc.Name]; exists {
		return errors.Wrapf(errors.ErrDuplicateID, "operation already registered: %s", desc.Name)
	}
	if err := r.validateConstraint(desc); err != nil {
		return errors.Wrapf(err, "engine version incompatible for %s", desc.Name)
	}
	r.ops[desc.Name] = operation
	return nil
}

// Get retrieves an operation by name.
func (r *Registry) Get(name string) (AnyOperation, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	operation, ok := r.ops[name]
	return operation, ok
}

// List returns all registered operation names in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.ops))
	for name := range r.ops {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) validateConstraint(desc Descriptor) error {
	if desc.EngineConstraint == "" {
		return nil
	}
	engineVer, err := semver.NewVersion(r.engineVersion)
	if err != nil {
		return errors.Wrapf(err, "invalid engine version %s", r.engineVersion)
	}
	constraint, err := semver.NewConstraint(desc.EngineConstraint)
	if err != nil {
		return errors.Wrapf(err, "invalid constraint %s", desc.EngineConstraint)
	}
	if !constraint.Check(engineVer) {
		return errors.Newf("operation requires engine %s, but running %s", desc.EngineConstraint, r.engineVersion)
	}
	return nil
}
