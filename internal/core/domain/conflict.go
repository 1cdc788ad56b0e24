package domain

// ResolutionOption enumerates the choices offered to a caller facing a
// conflict.
type ResolutionOption string

const (
	ResolutionUseRemote ResolutionOption = "use_remote"
	ResolutionUseLocal  ResolutionOption = "use_local"
	ResolutionMerge     ResolutionOption = "merge"
	ResolutionManual    ResolutionOption = "manual"
)

// ResolutionOptions is attached to every conflict regardless of which
// fields disagree.
var ResolutionOptions = []ResolutionOption{
	ResolutionUseRemote,
	ResolutionUseLocal,
	ResolutionMerge,
	ResolutionManual,
}

// ConflictInfo describes a disagreement between two snapshots of the same
// batch. ConflictFields is non-empty by construction: an empty diff yields
// no ConflictInfo at all.
type ConflictInfo struct {
	Local             *BatchState        `json:"local"`
	Remote            *BatchState        `json:"remote"`
	ConflictFields    []string           `json:"conflict_fields"`
	ResolutionOptions []ResolutionOption `json:"resolution_options"`
}
