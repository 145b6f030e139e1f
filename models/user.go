package models

import "time"

type User struct {
	ID                   string      `json:"id"`
	DisplayName          string      `json:"display_name"`
	Email                string      `json:"email"`
	Password             string      `json:"-"`
	CreatedAt            time.Time   `json:"created_at"`
	LastLogin            *time.Time  `json:"last_login,omitempty"`
	LastSeen             *time.Time  `json:"last_seen,omitempty"`
	Location             *Location   `json:"location,omitempty"`
	RegistrationLocation *Location   `json:"registration_location,omitempty"`
	Device               *DeviceInfo `json:"device_info,omitempty"`
}

type DeviceInfo struct {
	Brand     string `json:"brand"`
	ModelName string `json:"model_name"`
	OSName    string `json:"os_name"`
	OSVersion string `json:"os_version"`
	Platform  string `json:"platform"`
}

// ProfileUpdate is a merge-style write: nil fields are left untouched.
type ProfileUpdate struct {
	DisplayName          *string
	Email                *string
	LastLogin            *time.Time
	LastSeen             *time.Time
	Location             *Location
	RegistrationLocation *Location
	Device               *DeviceInfo
}

// Apply merges p into u.
func (p ProfileUpdate) Apply(u *User) {
	if p.DisplayName != nil {
		u.DisplayName = *p.DisplayName
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.LastLogin != nil {
		t := *p.LastLogin
		u.LastLogin = &t
	}
	if p.LastSeen != nil {
		t := *p.LastSeen
		u.LastSeen = &t
	}
	if p.Location != nil {
		l := *p.Location
		u.Location = &l
	}
	if p.RegistrationLocation != nil {
		l := *p.RegistrationLocation
		u.RegistrationLocation = &l
	}
	if p.Device != nil {
		d := *p.Device
		u.Device = &d
	}
}

type UserResponse struct {
	ID          string     `json:"id"`
	DisplayName string     `json:"display_name"`
	LastSeen    *time.Time `json:"last_seen,omitempty"`
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:          u.ID,
		DisplayName: u.DisplayName,
		LastSeen:    u.LastSeen,
	}
}
