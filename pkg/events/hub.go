package events

// LoadInput asks the currently mounted tool to replace its input with Text.
type LoadInput struct {
	Text string
}

// HistoryUpdated announces that a history entry for ToolType was persisted.
type HistoryUpdated struct {
	ToolType string
}

// Hub groups the two event classes of the history subsystem.
type Hub struct {
	LoadInput      Bus[LoadInput]
	HistoryUpdated Bus[HistoryUpdated]
}

func NewHub() *Hub {
	return &Hub{}
}

// Default is the process-wide hub used when a component is not given one.
var Default = NewHub()

// Or returns h, or Default when h is nil.
func Or(h *Hub) *Hub {
	if h == nil {
		return Default
	}
	return h
}
