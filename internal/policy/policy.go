package policy

import "slices"

// Mode identifies an operating mode of the hosting system.
type Mode string

const (
	ModeLive   Mode = "live"
	ModeReplay Mode = "replay"
)

// InteractionState is what the user may be doing on the map.
type InteractionState string

const (
	StateInspect InteractionState = "inspect"
	StateCreate  InteractionState = "create"
	StateEdit    InteractionState = "edit"
	StateDraw    InteractionState = "draw"
	StateDelete  InteractionState = "delete"
)

// Layer names a visual layer a render sink may mount.
type Layer string

const (
	LayerGridCells       Layer = "grid-cells"
	LayerEntityPositions Layer = "entity-positions"
	LayerZones           Layer = "zones"
	LayerEvents          Layer = "events"
	LayerTimeline        Layer = "timeline"
	LayerBaseMap         Layer = "base-map"

	LayerDrawTools    Layer = "draw-tools"
	LayerZoneEditor   Layer = "zone-editor"
	LayerLiveEntities Layer = "live-entities"
	LayerLiveAlerts   Layer = "live-alerts"
)

// Policy is a static descriptor of what a mode permits.
type Policy struct {
	Mode                Mode               `json:"mode"`
	AllowedStates       []InteractionState `json:"allowed_states"`
	ReadOnly            bool               `json:"read_only"`
	ReceivesLiveData    bool               `json:"receives_live_data"`
	RequiresTimeContext bool               `json:"requires_time_context"`
	AllowedLayers       []Layer            `json:"allowed_layers"`
	ForbiddenLayers     []Layer            `json:"forbidden_layers"`
}

// Replay returns the replay mode policy. Each call returns a fresh copy.
func Replay() Policy {
	return Policy{
		Mode:                ModeReplay,
		AllowedStates:       []InteractionState{StateInspect},
		ReadOnly:            true,
		ReceivesLiveData:    false,
		RequiresTimeContext: true,
		AllowedLayers: []Layer{
			LayerBaseMap,
			LayerGridCells,
			LayerEntityPositions,
			LayerZones,
			LayerEvents,
			LayerTimeline,
		},
		ForbiddenLayers: []Layer{
			LayerDrawTools,
			LayerZoneEditor,
			LayerLiveEntities,
			LayerLiveAlerts,
		},
	}
}

// AllowsState reports whether s is legal while the mode is active.
func (p Policy) AllowsState(s InteractionState) bool {
	return slices.Contains(p.AllowedStates, s)
}

// AllowsLayer reports whether l may be mounted. The deny list wins over the
// allow list and layers on neither list are refused.
func (p Policy) AllowsLayer(l Layer) bool {
	if slices.Contains(p.ForbiddenLayers, l) {
		return false
	}
	return slices.Contains(p.AllowedLayers, l)
}

// FilterLayers returns the subset of layers the policy admits, in input order.
func (p Policy) FilterLayers(layers []Layer) []Layer {
	out := make([]Layer, 0, len(layers))
	for _, l := range layers {
		if p.AllowsLayer(l) {
			out = append(out, l)
		}
	}
	return out
}
