package listcore

// Capabilities are the boolean checks the list consumes from the session.
type Capabilities struct {
	CanCreate            bool
	CanEdit              bool
	CanDelete            bool
	CanPermanentlyDelete bool
}

// Action is something a user may do to one record.
type Action int

const (
	ActionEdit Action = iota
	ActionArchive
	ActionRestore
	ActionPermanentDelete
)

func (a Action) String() string {
	switch a {
	case ActionEdit:
		return "edit"
	case ActionArchive:
		return "archive"
	case ActionRestore:
		return "restore"
	case ActionPermanentDelete:
		return "permanent delete"
	}
	return "unknown"
}

// AvailableActions implements the two-tier delete: active records can be
// edited, archived or permanently deleted; archived records can only be
// restored or permanently deleted.
func AvailableActions[T Record[T]](r T, caps Capabilities) []Action {
	var out []Action
	if r.IsArchived() {
		if caps.CanDelete {
			out = append(out, ActionRestore)
		}
	} else {
		if caps.CanEdit {
			out = append(out, ActionEdit)
		}
		if caps.CanDelete {
			out = append(out, ActionArchive)
		}
	}
	if caps.CanPermanentlyDelete {
		out = append(out, ActionPermanentDelete)
	}
	return out
}

// Allows reports whether a is in AvailableActions for r.
func Allows[T Record[T]](r T, caps Capabilities, a Action) bool {
	for _, got := range AvailableActions(r, caps) {
		if got == a {
			return true
		}
	}
	return false
}

func (c Capabilities) allowsBulk(op BulkOp) bool {
	switch op {
	case BulkArchive, BulkRestore:
		return c.CanDelete
	case BulkDelete:
		return c.CanPermanentlyDelete
	}
	return false
}
