// Package room derives conversation identifiers.
//
// A room is not a stored entity — it is a pure function of the two
// participants. Both directions of a pairwise conversation map to the same
// identifier, so neither side needs to know who "created" the room.
package room

// Separator joins the two participant IDs. User IDs are xids (base32,
// no ':'), so the separator can never appear inside a participant ID.
const Separator = ":"

// ID returns the canonical room identifier for a pair of user IDs:
// the two IDs sorted lexicographically and joined with Separator.
// ID(a, b) == ID(b, a) for all a, b.
func ID(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + Separator + b
}
