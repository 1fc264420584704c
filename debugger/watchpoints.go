package debugger

import (
	"fmt"
	"sync"

	"github.com/lookbusy1344/alya-vm/vm"
)

// WatchType represents the kind of watchpoint.
// NOTE: the current implementation can only detect value changes, not
// specific read/write operations. All watchpoint types behave the same
// way - they trigger when the monitored value differs from its previous
// value. True read-only or write-only tracking would require integration
// with the VM's memory access layer.
type WatchType int

const (
	WatchWrite     WatchType = iota // trigger on write (currently same as WatchReadWrite)
	WatchRead                       // trigger on read (currently same as WatchReadWrite)
	WatchReadWrite                  // trigger on read or write (value change detection)
)

// Watchpoint monitors a register or memory qword for value changes.
type Watchpoint struct {
	ID         int
	Type       WatchType
	Expression string // textual form (e.g., "r0", "[0x1000]") for display
	Address    uint64 // resolved address for memory watchpoints
	IsRegister bool   // true if watching a register
	Register   vm.Register
	Enabled    bool
	LastValue  uint64
	HitCount   int
}

// WatchpointManager manages all watchpoints.
type WatchpointManager struct {
	mu          sync.RWMutex
	watchpoints map[int]*Watchpoint
	nextID      int
}

// NewWatchpointManager creates a new watchpoint manager.
func NewWatchpointManager() *WatchpointManager {
	return &WatchpointManager{
		watchpoints: make(map[int]*Watchpoint),
		nextID:      1,
	}
}

// AddWatchpoint adds a new watchpoint.
func (wm *WatchpointManager) AddWatchpoint(wpType WatchType, expression string, address uint64, isRegister bool, register vm.Register) *Watchpoint {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	wp := &Watchpoint{
		ID:         wm.nextID,
		Type:       wpType,
		Expression: expression,
		Address:    address,
		IsRegister: isRegister,
		Register:   register,
		Enabled:    true,
	}

	wm.watchpoints[wp.ID] = wp
	wm.nextID++

	return wp
}

// DeleteWatchpoint removes a watchpoint by ID.
func (wm *WatchpointManager) DeleteWatchpoint(id int) error {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	if _, exists := wm.watchpoints[id]; !exists {
		return fmt.Errorf("watchpoint %d not found", id)
	}

	delete(wm.watchpoints, id)
	return nil
}

// EnableWatchpoint enables a watchpoint by ID.
func (wm *WatchpointManager) EnableWatchpoint(id int) error {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	wp, exists := wm.watchpoints[id]
	if !exists {
		return fmt.Errorf("watchpoint %d not found", id)
	}

	wp.Enabled = true
	return nil
}

// DisableWatchpoint disables a watchpoint by ID.
func (wm *WatchpointManager) DisableWatchpoint(id int) error {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	wp, exists := wm.watchpoints[id]
	if !exists {
		return fmt.Errorf("watchpoint %d not found", id)
	}

	wp.Enabled = false
	return nil
}

// GetWatchpoint gets a watchpoint by ID.
func (wm *WatchpointManager) GetWatchpoint(id int) *Watchpoint {
	wm.mu.RLock()
	defer wm.mu.RUnlock()

	return wm.watchpoints[id]
}

// GetAllWatchpoints returns all watchpoints.
func (wm *WatchpointManager) GetAllWatchpoints() []*Watchpoint {
	wm.mu.RLock()
	defer wm.mu.RUnlock()

	result := make([]*Watchpoint, 0, len(wm.watchpoints))
	for _, wp := range wm.watchpoints {
		result = append(result, wp)
	}

	return result
}

// CheckWatchpoints checks all watchpoints and returns the first that changed.
// NOTE: this uses value-change detection, not true read/write tracking. The
// Type field is currently not enforced - all types trigger the same way.
func (wm *WatchpointManager) CheckWatchpoints(machine *vm.VM) (*Watchpoint, bool) {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	for _, wp := range wm.watchpoints {
		if !wp.Enabled {
			continue
		}

		currentValue, err := wm.readValue(machine, wp)
		if err != nil {
			continue
		}

		if currentValue != wp.LastValue {
			wp.HitCount++
			wp.LastValue = currentValue
			return wp, true
		}
	}

	return nil, false
}

// InitializeWatchpoint initializes the last-known value for a watchpoint.
func (wm *WatchpointManager) InitializeWatchpoint(id int, machine *vm.VM) error {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	wp, exists := wm.watchpoints[id]
	if !exists {
		return fmt.Errorf("watchpoint %d not found", id)
	}

	value, err := wm.readValue(machine, wp)
	if err != nil {
		return fmt.Errorf("failed to initialize watchpoint: %w", err)
	}
	wp.LastValue = value

	return nil
}

func (wm *WatchpointManager) readValue(machine *vm.VM, wp *Watchpoint) (uint64, error) {
	if wp.IsRegister {
		return machine.Reg(wp.Register), nil
	}
	return machine.Memory.ReadQword(wp.Address)
}

// Clear removes all watchpoints.
func (wm *WatchpointManager) Clear() {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	wm.watchpoints = make(map[int]*Watchpoint)
}

// Count returns the number of watchpoints.
func (wm *WatchpointManager) Count() int {
	wm.mu.RLock()
	defer wm.mu.RUnlock()

	return len(wm.watchpoints)
}
