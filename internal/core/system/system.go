package system

import (
	"fmt"
	"strings"
	"time"

	"github.com/l1jgo/ecsrt/internal/core/ecs"
)

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseInput      Phase = iota // 0: feed external input into resources
	PhasePreUpdate               // 1: timekeeping, react to last tick's events
	PhaseUpdate                  // 2: simulation
	PhasePostUpdate              // 3: derived state, decay
	PhaseCleanup                 // 4: destroy queued entities
)

var phaseNames = [...]string{"input", "pre_update", "update", "post_update", "cleanup"}

func (p Phase) String() string {
	if p >= 0 && int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// ParsePhase accepts the names String produces.
func ParsePhase(s string) (Phase, error) {
	for i, name := range phaseNames {
		if strings.EqualFold(s, name) {
			return Phase(i), nil
		}
	}
	return 0, fmt.Errorf("unknown phase %q", s)
}

// System is the interface every runner-managed system implements. Manifest
// is read once, at registration; Update only sees what it declared.
type System interface {
	Name() string
	Phase() Phase
	Manifest() ecs.Manifest
	Update(dt time.Duration, a *ecs.Access) error
}
