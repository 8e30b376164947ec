package model

import "time"

// Permission is a sharing grant: it authorizes a named external party to
// access one document. Grants are never hard-deleted, only deactivated, so
// the sharing history stays reconstructible.
type Permission struct {
	ID             string     `json:"id"`
	DocumentID     string     `json:"documentId"`
	GrantedBy      string     `json:"grantedBy"`
	GrantedToEmail string     `json:"grantedToEmail"`
	GrantedToName  string     `json:"grantedToName"`
	Role           string     `json:"role"`
	ExpiresAt      *time.Time `json:"expiresAt"`
	IsActive       bool       `json:"isActive"`
	AccessToken    string     `json:"accessToken"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// Expired reports whether the grant's expiry, if any, has passed.
func (p *Permission) Expired(now time.Time) bool {
	return p.ExpiresAt != nil && p.ExpiresAt.Before(now)
}
