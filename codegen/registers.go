package codegen

import (
	"regexp"
	"strconv"

	"github.com/lookbusy1344/alya-vm/vm"
)

var namedRegisterPattern = regexp.MustCompile(`^r([0-9]|1[0-5])$`)
var floatAliasPattern = regexp.MustCompile(`^f([0-9]|1[0-5])$`)

// tmpName is the reserved scratch-register name the generator uses to
// materialise immediate right-hand operands.
const tmpName = "__tmp"

// registerAllocator maps source variable names to VM registers. Names
// matching r0..r15/sp/bp/ip/fl/f0..f15 resolve directly to that register
// (f* aliases the same general-purpose register index, since this VM has
// no separate float register file — floats reinterpret a register's bits).
// Any other name claims the next unused general-purpose register in
// ascending order, skipping indices already claimed by an explicit name.
type registerAllocator struct {
	names    map[string]vm.Register
	used     [16]bool // GP registers 0..15 claimed so far
	tmpAlias bool      // true once __tmp has fallen back to aliasing R15
}

func newRegisterAllocator() *registerAllocator {
	return &registerAllocator{names: make(map[string]vm.Register)}
}

// Resolve returns the register bound to name, allocating one if this is
// the first reference. Returns an error only when a non-reserved name
// exhausts the 16 general-purpose registers.
func (a *registerAllocator) Resolve(name string) (vm.Register, error) {
	if r, ok := a.names[name]; ok {
		return r, nil
	}

	switch name {
	case "sp":
		a.names[name] = vm.SP
		return vm.SP, nil
	case "bp":
		a.names[name] = vm.BP
		return vm.BP, nil
	case "ip":
		a.names[name] = vm.IP
		return vm.IP, nil
	case "fl":
		a.names[name] = vm.FL
		return vm.FL, nil
	}

	if m := namedRegisterPattern.FindStringSubmatch(name); m != nil {
		idx, _ := strconv.Atoi(m[1])
		r := vm.Register(idx)
		a.names[name] = r
		a.used[idx] = true
		return r, nil
	}
	if m := floatAliasPattern.FindStringSubmatch(name); m != nil {
		idx, _ := strconv.Atoi(m[1])
		r := vm.Register(idx)
		a.names[name] = r
		a.used[idx] = true
		return r, nil
	}

	if name == tmpName {
		if idx, ok := a.nextFree(); ok {
			r := vm.Register(idx)
			a.names[name] = r
			a.used[idx] = true
			return r, nil
		}
		// All 16 GP registers are claimed: __tmp aliases R15 as a
		// documented, lossy last resort (may corrupt R15's named variable).
		a.tmpAlias = true
		a.names[name] = vm.R15
		return vm.R15, nil
	}

	idx, ok := a.nextFree()
	if !ok {
		return 0, NewError(0, "register allocator exhausted: no free register for %q", name)
	}
	r := vm.Register(idx)
	a.names[name] = r
	a.used[idx] = true
	return r, nil
}

func (a *registerAllocator) nextFree() (int, bool) {
	for i := 0; i < 16; i++ {
		if !a.used[i] {
			return i, true
		}
	}
	return 0, false
}
