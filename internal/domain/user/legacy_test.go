package user_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	userDomain "github.com/lllypuk/commons/internal/domain/user"
)

func ptr(t time.Time) *time.Time { return &t }

func TestDeriveLifecycle(t *testing.T) {
	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)

	testCases := []struct {
		name string
		rec  userDomain.LegacyRecord
		want userDomain.Status
	}{
		{
			name: "no fields set",
			rec:  userDomain.LegacyRecord{},
			want: userDomain.ActiveStatus(time.Time{}),
		},
		{
			name: "banned",
			rec:  userDomain.LegacyRecord{BannedOn: ptr(past)},
			want: userDomain.BannedStatus(past),
		},
		{
			name: "deleted",
			rec:  userDomain.LegacyRecord{Deleted: ptr(past)},
			want: userDomain.DeletedStatus(past),
		},
		{
			name: "banned takes precedence over deleted",
			rec:  userDomain.LegacyRecord{BannedOn: ptr(past.Add(time.Hour)), Deleted: ptr(past)},
			want: userDomain.BannedStatus(past.Add(time.Hour)),
		},
		{
			name: "banned since comes from banned_on, not deleted",
			rec:  userDomain.LegacyRecord{BannedOn: ptr(past), Deleted: ptr(past.Add(time.Hour))},
			want: userDomain.BannedStatus(past),
		},
		{
			name: "deleted takes precedence over detained",
			rec: userDomain.LegacyRecord{
				Deleted:            ptr(past),
				DetainedTill:       ptr(future),
				DetainmentDuration: 48 * time.Hour,
			},
			want: userDomain.DeletedStatus(past),
		},
		{
			name: "detention running",
			rec:  userDomain.LegacyRecord{DetainedTill: ptr(future), DetainmentDuration: 48 * time.Hour},
			want: userDomain.Status{
				State:    userDomain.StateDetained,
				Since:    past,
				Until:    future,
				Duration: 48 * time.Hour,
			},
		},
		{
			name: "detention already over",
			rec:  userDomain.LegacyRecord{DetainedTill: ptr(past), DetainmentDuration: time.Hour},
			want: userDomain.ActiveStatus(time.Time{}),
		},
		{
			name: "future ban is ignored",
			rec:  userDomain.LegacyRecord{BannedOn: ptr(future), Deleted: ptr(past)},
			want: userDomain.DeletedStatus(past),
		},
		{
			name: "ban at exactly now applies",
			rec:  userDomain.LegacyRecord{BannedOn: ptr(now)},
			want: userDomain.BannedStatus(now),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, userDomain.DeriveLifecycle(tc.rec, now))
		})
	}
}

func TestUser_ImportLifecycle(t *testing.T) {
	// Arrange
	u := newTestUser(t)
	rec := userDomain.LegacyRecord{DetainedTill: ptr(now.Add(time.Hour)), DetainmentDuration: 2 * time.Hour}

	// Act
	u.ImportLifecycle(adminID, rec, now)

	// Assert
	assert.Equal(t, userDomain.StateDetained, u.Status(now).State)
	assert.Equal(t, now.Add(-time.Hour), u.Status(now).Since)
	events := u.UncommittedEvents()
	if assert.Len(t, events, 1) {
		assert.Equal(t, userDomain.EventTypeUserLifecycleImported, events[0].EventType())
	}
}
