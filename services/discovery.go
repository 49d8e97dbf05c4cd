package services

import "rental-notifier/utils"

// DiscoveryDiffer compares the ids visible on the index page with the
// known set.
type DiscoveryDiffer struct{}

// Diff returns current−known as the ids to process and current∪known as the
// set to persist. Ids missing from current stay known.
func (DiscoveryDiffer) Diff(current, known []string) (newIDs, updatedKnown []string) {
	cur := utils.NewIDSet(current...)
	old := utils.NewIDSet(known...)

	return cur.Difference(old).Sorted(), cur.Union(old).Sorted()
}
