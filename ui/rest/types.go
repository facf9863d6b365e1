package rest

import (
	domainTrigger "github.com/janushq/janus/domains/trigger"
)

// TriggerCheckResult is the check-triggers response body. Count duplicates
// len(Fired) so dashboards can read it without parsing the list.
type TriggerCheckResult struct {
	Fired []domainTrigger.FiredTrigger `json:"fired"`
	Count int                          `json:"count"`
}
