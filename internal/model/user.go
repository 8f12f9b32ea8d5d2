// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account.
//
// We use Google OAuth as the identity provider, so the primary external
// identifier is the Google subject claim (a string). We still generate our own
// internal string ID (xid) so our primary keys aren't tied to a third-party's
// numbering scheme.
//
// WHY Handle string (not *string)?
// The handle is unique but assigned after account creation, so it can be
// transiently absent. We use the empty string as "no handle yet" rather than a
// nullable pointer — the DB column stores NULL for empty so the UNIQUE
// constraint never trips on two handle-less users.
type User struct {
	ID        string    `json:"id"        db:"id"`
	GoogleID  string    `json:"-"         db:"google_id"` // Google's "sub" claim — stable, never changes
	Handle    string    `json:"handle"    db:"handle"`    // Unique quantum ID, e.g. "alice-1234" (may be empty)
	Name      string    `json:"name"      db:"name"`
	Email     string    `json:"email"     db:"email"` // May be empty if hidden by the provider
	Image     string    `json:"image"     db:"image"` // Profile picture URL
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// Profile is the public subset of a User embedded in request lists, search
// results, and chat history. It never carries the Google subject or timestamps.
type Profile struct {
	ID     string `json:"id"`
	Handle string `json:"handle"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Image  string `json:"image"`
}

// Profile returns the public view of the user.
func (u *User) Profile() Profile {
	return Profile{
		ID:     u.ID,
		Handle: u.Handle,
		Name:   u.Name,
		Email:  u.Email,
		Image:  u.Image,
	}
}
