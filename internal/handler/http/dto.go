package httphandler

import (
	"fmt"
	"time"

	"github.com/lllypuk/commons/internal/domain/paging"
	"github.com/lllypuk/commons/internal/domain/user"
	"github.com/lllypuk/commons/internal/domain/uuid"
)

type RegisterUserRequest struct {
	ExternalID  string `json:"external_id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

type DetainRequest struct {
	Duration string `json:"duration"`
}

// ImportUserRequest carries a user record from an older system, lifecycle
// columns included. Any combination of them may be set.
type ImportUserRequest struct {
	ExternalID         string     `json:"external_id"`
	Username           string     `json:"username"`
	Email              string     `json:"email"`
	DisplayName        string     `json:"display_name"`
	BannedOn           *time.Time `json:"banned_on"`
	Deleted            *time.Time `json:"deleted"`
	DetainedTill       *time.Time `json:"detained_till"`
	DetainmentDuration string     `json:"detainment_duration"`
}

func (r ImportUserRequest) record() (user.LegacyRecord, error) {
	rec := user.LegacyRecord{
		BannedOn:     r.BannedOn,
		Deleted:      r.Deleted,
		DetainedTill: r.DetainedTill,
	}
	if r.DetainmentDuration != "" {
		d, err := time.ParseDuration(r.DetainmentDuration)
		if err != nil {
			return user.LegacyRecord{}, fmt.Errorf("invalid detainment_duration: %w", err)
		}
		rec.DetainmentDuration = d
	}
	return rec, nil
}

type StatusResponse struct {
	UserID   string     `json:"user_id"`
	State    string     `json:"state"`
	Active   bool       `json:"active"`
	Since    *time.Time `json:"since,omitempty"`
	Until    *time.Time `json:"until,omitempty"`
	Duration string     `json:"duration,omitempty"`
}

type UserResponse struct {
	ID            string         `json:"id"`
	ExternalID    string         `json:"external_id"`
	Username      string         `json:"username"`
	Email         string         `json:"email"`
	DisplayName   string         `json:"display_name"`
	IsSystemAdmin bool           `json:"is_system_admin"`
	Status        StatusResponse `json:"status"`
	Version       int            `json:"version"`
	CreatedAt     string         `json:"created_at"`
	UpdatedAt     string         `json:"updated_at"`
}

type ListUsersResponse struct {
	Users []UserResponse `json:"users"`
	Page  paging.Window  `json:"page"`
	Links paging.Links   `json:"links"`
}

type ActionCheckResponse struct {
	Allowed bool           `json:"allowed"`
	Status  StatusResponse `json:"status"`
}

// ToUserResponse renders u with its lifecycle evaluated at now.
func ToUserResponse(u *user.User, now time.Time) UserResponse {
	return UserResponse{
		ID:            u.ID().String(),
		ExternalID:    u.ExternalID(),
		Username:      u.Username(),
		Email:         u.Email(),
		DisplayName:   u.DisplayName(),
		IsSystemAdmin: u.IsSystemAdmin(),
		Status:        ToStatusResponse(u.ID(), u.Status(now)),
		Version:       u.Version(),
		CreatedAt:     u.CreatedAt().Format(time.RFC3339),
		UpdatedAt:     u.UpdatedAt().Format(time.RFC3339),
	}
}

func ToStatusResponse(userID uuid.UUID, s user.Status) StatusResponse {
	resp := StatusResponse{
		UserID: userID.String(),
		State:  s.State.String(),
		Active: s.IsActive(),
	}
	if !s.Since.IsZero() {
		since := s.Since.UTC()
		resp.Since = &since
	}
	if !s.Until.IsZero() {
		until := s.Until.UTC()
		resp.Until = &until
	}
	if s.Duration > 0 {
		resp.Duration = s.Duration.String()
	}
	return resp
}
