// Package stage classifies a snapshot of the local identity into the
// onboarding stage an operator must be shown. It never drives transitions.
package stage

import (
	"encoding/json"
	"fmt"

	"github.com/lores-mesh/site-admin/internal/domain"
	"github.com/lores-mesh/site-admin/internal/result"
)

type Stage int

const (
	NoRegion Stage = iota
	RegionPendingNode
	Ready
)

var names = map[Stage]string{
	NoRegion:          "no_region",
	RegionPendingNode: "region_pending_node",
	Ready:             "ready",
}

func (s Stage) String() string {
	if name, ok := names[s]; ok {
		return name
	}
	return fmt.Sprintf("Stage(%d)", int(s))
}

// Parse is the inverse of String.
func Parse(name string) (Stage, error) {
	for s, n := range names {
		if n == name {
			return s, nil
		}
	}
	return NoRegion, fmt.Errorf("unknown stage %q", name)
}

func (s Stage) MarshalJSON() ([]byte, error) {
	name, ok := names[s]
	if !ok {
		return nil, fmt.Errorf("marshal stage: unknown value %d", int(s))
	}
	return json.Marshal(name)
}

func (s *Stage) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := Parse(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Resolve maps present/absent inputs onto exactly one stage.
func Resolve(region *domain.Region, local domain.Local) Stage {
	switch {
	case region == nil:
		return NoRegion
	case local == nil:
		return RegionPendingNode
	default:
		return Ready
	}
}

// Classify resolves from lookup outcomes. When either lookup failed the
// cause is returned and the stage must not be used; a failure is never
// reported as NoRegion. The local lookup is ignored while the region is
// absent.
func Classify(region result.Lookup[domain.Region], local result.Lookup[domain.Local]) (Stage, error) {
	if region.IsFailed() {
		return 0, fmt.Errorf("resolve region: %w", region.Cause())
	}
	r, ok := region.Value()
	if !ok {
		return Resolve(nil, nil), nil
	}
	if local.IsFailed() {
		return 0, fmt.Errorf("resolve local identity: %w", local.Cause())
	}
	l, _ := local.Value()
	return Resolve(&r, l), nil
}
