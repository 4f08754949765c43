// Package record converts fragments to and from flat, serializable records.
//
// A Fragment record carries the node's identity, flow, direction, flags,
// exchange values and terminations keyed by scenario. Exchange values use the
// reserved slot names "0" (cached) and "1" (observed); the default
// termination is stored under "0". A key for a tuple of scenarios is its
// members joined by scenario.Delimiter, so no real scenario name may contain
// the delimiter. Both directions of the conversion enforce that rule.
//
// Records are encoded with a Codec: JSON, YAML or MessagePack.
package record
