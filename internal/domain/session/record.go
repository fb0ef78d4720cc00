package session

import (
	"sort"
)

// Record is one stream observed in a single poll of the media server.
type Record struct {
	SessionID      string
	UserID         string
	Username       string
	MediaTitle     string
	LibrarySection string
	IPAddress      string
	MachineID      string
	Platform       string
	Product        string
	Device         string
	State          State
}

// Fingerprint identifies the physical device behind a stream: the player's
// machine identifier together with the address it streams to.
func (r Record) Fingerprint() string {
	return Fingerprint(r.MachineID, r.IPAddress)
}

func Fingerprint(machineID, ip string) string {
	return machineID + "_" + ip
}

// Snapshot groups the streams of one poll by owning user id.
type Snapshot map[string][]Record

// UserIDs returns the users in the snapshot in a stable order.
func (s Snapshot) UserIDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Count returns the total number of streams.
func (s Snapshot) Count() int {
	n := 0
	for _, recs := range s {
		n += len(recs)
	}
	return n
}

// Add appends a record under its user.
func (s Snapshot) Add(r Record) {
	s[r.UserID] = append(s[r.UserID], r)
}

// Find looks a stream up by session id.
func (s Snapshot) Find(sessionID string) (Record, bool) {
	for _, recs := range s {
		for _, r := range recs {
			if r.SessionID == sessionID {
				return r, true
			}
		}
	}
	return Record{}, false
}
