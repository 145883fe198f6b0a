package service

import (
	"time"

	"github.com/BrandonDHaskell/qrgate/internal/clock"
	"github.com/BrandonDHaskell/qrgate/internal/qrgate/types"
)

const reportRecent = 10

// Reporter summarises the station's current snapshots.
type Reporter struct {
	directory *Directory
	access    *AccessService
	clock     clock.Clock
	loc       *time.Location
}

// NewReporter buckets "today" in loc, the station's wall-clock zone. A nil
// loc means time.Local. Stored timestamps stay in UTC.
func NewReporter(dir *Directory, access *AccessService, clk clock.Clock, loc *time.Location) *Reporter {
	if loc == nil {
		loc = time.Local
	}
	return &Reporter{directory: dir, access: access, clock: clk, loc: loc}
}

// Build counts users per role and the accesses recorded on the current
// calendar day in the reporter's location.
func (r *Reporter) Build() types.Report {
	now := r.clock.Now()
	users := r.directory.List()
	logs := r.access.Logs()

	rep := types.Report{
		TotalUsers: len(users),
		ByRole: map[types.Role]int{
			types.RoleAdmin:   0,
			types.RoleGuard:   0,
			types.RoleStudent: 0,
		},
		Recent:      logs[:min(reportRecent, len(logs))],
		GeneratedAt: now,
	}
	for _, u := range users {
		rep.ByRole[u.Role]++
	}

	y, m, d := now.In(r.loc).Date()
	for _, e := range logs {
		ey, em, ed := e.Timestamp.In(r.loc).Date()
		if ey == y && em == m && ed == d {
			rep.TodayAccesses++
		}
	}
	return rep
}
