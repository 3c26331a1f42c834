package habits

// ChangeKind names the mutation that produced a Change
type ChangeKind string

const (
	ChangeAdded    ChangeKind = "added"
	ChangeUpdated  ChangeKind = "updated"
	ChangeArchived ChangeKind = "archived"
	ChangeRestored ChangeKind = "restored"
	ChangeDeleted  ChangeKind = "deleted"
	ChangeToggled  ChangeKind = "toggled"
	ChangeImported ChangeKind = "imported"
	ChangeCleared  ChangeKind = "cleared"
)

// touchesCompletions reports whether the {id, completions} projection of
// the collection can differ after this kind of mutation.
func (k ChangeKind) touchesCompletions() bool {
	switch k {
	case ChangeAdded, ChangeDeleted, ChangeToggled, ChangeImported, ChangeCleared:
		return true
	}
	return false
}

// Change is delivered to subscribers after a mutation
type Change struct {
	Kind              ChangeKind
	HabitID           string // empty for collection-wide changes
	Version           uint64
	CompletionVersion uint64
}
