package models

import "time"

// FileMakerCredential is the admin API login stored for a FileMaker server.
type FileMakerCredential struct {
	ServerID          string    `json:"server_id"`
	ServerName        string    `json:"server_name"`
	AdminURL          string    `json:"admin_url"`
	Username          string    `json:"username"`
	PasswordEncrypted string    `json:"-"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// FileMakerServerStatus is the canonical form of the admin API status response.
type FileMakerServerStatus struct {
	ServerID  string    `json:"server_id"`
	Version   string    `json:"version"`
	Running   bool      `json:"running"`
	CheckedAt time.Time `json:"checked_at"`
}
