package user

import "time"

// LegacyRecord is the lifecycle shape of user records imported from older
// systems: independent nullable columns instead of a single state.
type LegacyRecord struct {
	BannedOn           *time.Time    `json:"banned_on,omitempty"`
	Deleted            *time.Time    `json:"deleted,omitempty"`
	DetainedTill       *time.Time    `json:"detained_till,omitempty"`
	DetainmentDuration time.Duration `json:"detainment_duration,omitempty"`
}

// DeriveLifecycle collapses a legacy record into a single Status at now.
// When several columns are set the precedence is banned, deleted, detained.
// Ban and deletion timestamps in the future are ignored, as is a detention
// that has already ended.
func DeriveLifecycle(rec LegacyRecord, now time.Time) Status {
	if rec.BannedOn != nil && !rec.BannedOn.After(now) {
		return BannedStatus(*rec.BannedOn)
	}
	if rec.Deleted != nil && !rec.Deleted.After(now) {
		return DeletedStatus(*rec.Deleted)
	}
	if rec.DetainedTill != nil && rec.DetainedTill.After(now) {
		return Status{
			State:    StateDetained,
			Since:    rec.DetainedTill.Add(-rec.DetainmentDuration),
			Until:    *rec.DetainedTill,
			Duration: rec.DetainmentDuration,
		}
	}
	return ActiveStatus(time.Time{})
}
