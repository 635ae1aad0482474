package capability

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mohammad-safakhou/webscout/tools/webfetch/extractors"
)

// ToolCard represents registry metadata for one site-specific extraction
// capability. The planner prompt is built from these, so a query matching a
// known host is steered toward the specialized search URL format.
type ToolCard struct {
	Site        string   `json:"site"`
	Hosts       []string `json:"hosts"`
	SearchURL   string   `json:"search_url"`
	Description string   `json:"description"`
}

// Registry holds the ToolCards the agent can plan against, keyed by site and
// host. Registration order is preserved for prompt stability.
type Registry struct {
	cards map[string]ToolCard
	hosts map[string]string // host -> site
	order []string
}

// NewRegistry builds a registry from the built-in extractors plus any JSON
// descriptor files in extraDir (one ToolCard per .json file). extraDir may be
// empty.
func NewRegistry(extraDir string) (*Registry, error) {
	reg := &Registry{
		cards: make(map[string]ToolCard),
		hosts: make(map[string]string),
	}
	for _, d := range extractors.Descriptors() {
		reg.register(ToolCard(d))
	}

	if extraDir == "" {
		return reg, nil
	}
	entries, err := os.ReadDir(extraDir)
	if err != nil {
		if os.IsNotExist(err) {
			return reg, nil
		}
		return nil, fmt.Errorf("reading capability dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(extraDir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading capability %s: %w", e.Name(), err)
		}
		var card ToolCard
		if err := json.Unmarshal(raw, &card); err != nil {
			return nil, fmt.Errorf("parsing capability %s: %w", e.Name(), err)
		}
		if card.Site == "" || card.SearchURL == "" {
			return nil, fmt.Errorf("capability %s: site and search_url are required", e.Name())
		}
		reg.register(card)
	}
	return reg, nil
}

func (r *Registry) register(card ToolCard) {
	if _, ok := r.cards[card.Site]; !ok {
		r.order = append(r.order, card.Site)
	}
	r.cards[card.Site] = card
	for _, h := range card.Hosts {
		r.hosts[strings.ToLower(h)] = card.Site
	}
}

// Card returns the ToolCard for a site.
func (r *Registry) Card(site string) (ToolCard, bool) {
	if r == nil {
		return ToolCard{}, false
	}
	card, ok := r.cards[site]
	return card, ok
}

// SupportedSites returns site names in registration order.
func (r *Registry) SupportedSites() []string {
	if r == nil {
		return nil
	}
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Cards returns all ToolCards in registration order.
func (r *Registry) Cards() []ToolCard {
	if r == nil {
		return nil
	}
	out := make([]ToolCard, 0, len(r.order))
	for _, site := range r.order {
		out = append(out, r.cards[site])
	}
	return out
}

// IsSupported reports whether a host belongs to a registered capability.
func (r *Registry) IsSupported(host string) bool {
	if r == nil {
		return false
	}
	host = strings.ToLower(host)
	if _, ok := r.hosts[host]; ok {
		return true
	}
	for h := range r.hosts {
		if strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}
