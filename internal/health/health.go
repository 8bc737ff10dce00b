// Package health summarizes the sync state of a data table as a bitmask.
package health

import "strings"

// Health is a bitmask of independent table flags.
type Health int

const (
	Clean          Health = 0
	HasConflicts   Health = 1 << 0
	HasCheckpoints Health = 1 << 1
	HasChanges     Health = 1 << 2
)

func SetHasConflicts(h Health) Health   { return h | HasConflicts }
func SetHasCheckpoints(h Health) Health { return h | HasCheckpoints }
func SetHasChanges(h Health) Health     { return h | HasChanges }

// IsClean reports whether no flag is set.
func IsClean(h Health) bool {
	return h == Clean
}

func IsConflicted(h Health) bool  { return h&HasConflicts != 0 }
func IsCheckpointed(h Health) bool { return h&HasCheckpoints != 0 }
func IsChanged(h Health) bool     { return h&HasChanges != 0 }

// IsConflictedOrCheckpointed is true when the table needs user attention
// before it can be synced.
func IsConflictedOrCheckpointed(h Health) bool {
	return IsConflicted(h) || IsCheckpointed(h)
}

func (h Health) String() string {
	if IsClean(h) {
		return "clean"
	}
	var parts []string
	if IsConflicted(h) {
		parts = append(parts, "conflicts")
	}
	if IsCheckpointed(h) {
		parts = append(parts, "checkpoints")
	}
	if IsChanged(h) {
		parts = append(parts, "changes")
	}
	return strings.Join(parts, "|")
}
