// Package models defines server-side data models persisted in the database.
package models

import "time"

// Account is a registered user of the gateway. Provider credentials are
// stored as vault ciphertexts; an empty string means the field is unset.
type Account struct {
	ID           string    `db:"id"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`

	// Encrypted IPTV provider credentials ("hex(nonce):hex(ct)" tokens).
	ProviderURL      string `db:"provider_url"`
	ProviderUsername string `db:"provider_username"`
	ProviderPassword string `db:"provider_password"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// HasProviderCredentials reports whether all three provider fields are bound.
func (a *Account) HasProviderCredentials() bool {
	return a.ProviderURL != "" && a.ProviderUsername != "" && a.ProviderPassword != ""
}
