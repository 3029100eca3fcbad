package state

import (
	"fmt"
	"sort"
	"strings"
)

// BulkAction names a bulk conversation mutation.
type BulkAction string

const (
	BulkDelete    BulkAction = "delete"
	BulkArchive   BulkAction = "archive"
	BulkUnarchive BulkAction = "unarchive"
)

// PartialBulkError reports a bulk action where some per-id mutations
// succeeded and others failed. Succeeded ids have already been applied
// locally; there is no rollback and no automatic retry.
type PartialBulkError struct {
	Action    BulkAction
	Succeeded []string
	Failed    map[string]error
}

func (e *PartialBulkError) Error() string {
	return fmt.Sprintf("%s: %d of %d conversations failed (%s)",
		e.Action, len(e.Failed), len(e.Succeeded)+len(e.Failed),
		strings.Join(e.FailedIDs(), ", "))
}

// FailedIDs returns the failed ids in stable order.
func (e *PartialBulkError) FailedIDs() []string {
	ids := make([]string, 0, len(e.Failed))
	for id := range e.Failed {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
