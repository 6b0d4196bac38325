package world

import (
	"fmt"
	"strings"

	"github.com/talgya/archipelago/internal/entropy"
)

// ResourceType enumerates the natural resources that can be gathered.
type ResourceType uint8

const (
	ResourceCoal ResourceType = iota
	ResourceIron
	ResourceGold
	ResourceWood
	ResourceWater
)

// NumResources is the number of resource types.
const NumResources = 5

var resourceNames = [NumResources]string{"coal", "iron", "gold", "wood", "water"}

// String returns the lowercase resource name.
func (t ResourceType) String() string {
	if int(t) < len(resourceNames) {
		return resourceNames[t]
	}
	return fmt.Sprintf("resource(%d)", uint8(t))
}

// MarshalText encodes the type by name (JSON keys, YAML values).
func (t ResourceType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText decodes a resource name, case-insensitively.
func (t *ResourceType) UnmarshalText(b []byte) error {
	v, err := ParseResourceType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// ParseResourceType resolves a resource name.
func ParseResourceType(name string) (ResourceType, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range resourceNames {
		if n == name {
			return ResourceType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown resource type %q", name)
}

// Distribution selects how resource types are drawn when scattering nodes.
type Distribution string

const (
	// DistributionLegacy draws one of five slots where the last two both map
	// to Wood, so Water never appears and Wood is twice as likely.
	DistributionLegacy Distribution = "legacy"
	// DistributionUniform draws each of the five types with equal weight.
	DistributionUniform Distribution = "uniform"
)

var legacySlots = [5]ResourceType{ResourceCoal, ResourceIron, ResourceGold, ResourceWood, ResourceWood}

// ChooseResourceType draws a resource type under the given distribution.
func ChooseResourceType(src entropy.Source, dist Distribution) ResourceType {
	i := src.Intn(5)
	if dist == DistributionUniform {
		return ResourceType(i)
	}
	return legacySlots[i]
}

// Pool is an island's harvested resource counts, indexed by ResourceType.
// Counts never go negative.
type Pool [NumResources]int

// Add credits n units of t. Negative n is ignored.
func (p *Pool) Add(t ResourceType, n int) {
	if n <= 0 || int(t) >= NumResources {
		return
	}
	p[t] += n
}

// Take debits n units of t if at least n are available.
func (p *Pool) Take(t ResourceType, n int) bool {
	if int(t) >= NumResources || n < 0 || p[t] < n {
		return false
	}
	p[t] -= n
	return true
}

// Get returns the count for t.
func (p Pool) Get(t ResourceType) int {
	if int(t) >= NumResources {
		return 0
	}
	return p[t]
}

// Map returns the counts keyed by resource name, for display.
func (p Pool) Map() map[string]int {
	m := make(map[string]int, NumResources)
	for i, n := range p {
		m[ResourceType(i).String()] = n
	}
	return m
}

// NodeID identifies a resource node. Zero means none.
type NodeID uint64

// ResourceNode is a harvestable deposit scattered at world setup.
type ResourceNode struct {
	ID       NodeID       `json:"id"`
	Type     ResourceType `json:"type"`
	Position Vec2         `json:"position"`
	Handle   Handle       `json:"-"`
}
