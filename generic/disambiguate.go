/*
disambiguate.go - Positional CheckIn/CheckOut role assignment

PURPOSE:
  Time clocks record that someone badged, not whether they arrived or
  left. Given every punch of one employee in one work day, this assigns
  roles so that the sequence alternates CheckIn, CheckOut, CheckIn, ...

ALGORITHM:
  1. Order punches by Timestamp (ties by ID).
  2. Duplicate correction: if there are more than one and an odd number
     of punches, drop the second-to-last. The last punch is assumed to be
     the real check-out and the one just before it a double swipe.
  3. Even index -> CheckIn, odd index -> CheckOut.

  The dropped punch is returned separately so the caller can store it as
  Unknown.

KNOWN FAILURE MODES (not corrected):
  - Two duplicate swipes: count is even again, every later pair shifts.
  - A forgotten final check-out on an odd day: the second-to-last real
    punch is dropped instead.
  - A duplicate at check-in time (08:00, 08:01, 17:00): 08:01 is dropped,
    which happens to be right; a duplicate at 17:00 drops the real
    check-out's predecessor instead.
  - A single punch stays CheckIn and surfaces as an open record.

EXAMPLE:
  08:00 08:05 17:30  ->  08:00 CheckIn, 17:30 CheckOut, 08:05 discarded
*/
package generic

import "sort"

// Resolution is the outcome of AssignRoles.
type Resolution struct {
	// Punches are the kept punches, chronological, with roles assigned.
	Punches []Punch

	// Discarded is the duplicate removed by odd-count correction, with
	// Role reset to Unknown. Nil when nothing was removed.
	Discarded *Punch
}

// Updates returns the role changes to persist, discarded punch included.
func (r Resolution) Updates() []Punch {
	out := make([]Punch, 0, len(r.Punches)+1)
	out = append(out, r.Punches...)
	if r.Discarded != nil {
		out = append(out, *r.Discarded)
	}
	return out
}

// AssignRoles applies the duplicate correction and positional roles.
// The input slice is not modified.
func AssignRoles(punches []Punch) Resolution {
	if len(punches) == 0 {
		return Resolution{}
	}

	ordered := SortPunches(punches)

	var discarded *Punch
	if n := len(ordered); n > 1 && n%2 == 1 {
		d := ordered[n-2]
		d.Role = RoleUnknown
		discarded = &d
		ordered = append(ordered[:n-2], ordered[n-1])
	}

	for i := range ordered {
		if i%2 == 0 {
			ordered[i].Role = RoleCheckIn
		} else {
			ordered[i].Role = RoleCheckOut
		}
	}

	return Resolution{Punches: ordered, Discarded: discarded}
}

// SortPunches returns a chronologically ordered copy.
func SortPunches(punches []Punch) []Punch {
	out := make([]Punch, len(punches))
	copy(out, punches)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].ID < out[j].ID
		}
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

// Alternates reports whether roles run CheckIn, CheckOut, ... from the
// first punch on.
func Alternates(punches []Punch) bool {
	for i, p := range punches {
		want := RoleCheckIn
		if i%2 == 1 {
			want = RoleCheckOut
		}
		if p.Role != want {
			return false
		}
	}
	return true
}
