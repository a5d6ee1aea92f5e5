// Package models defines client-side data models used by the DocVault CLI.
package models

// Document is a single vault record as served by the backend.
// The server assigns Id; the collection treats it as the identity key.
type Document struct {
	// Id is the server-assigned unique identifier.
	Id string

	// Name is the user-facing document title.
	Name string

	// Type is a free-form category, e.g. "ID" or "License".
	Type string

	// Description is an optional longer text.
	Description string

	// ExpiryDate is the optional calendar date the document expires.
	// The zero value means "no expiry".
	ExpiryDate Date

	// FileUrl points at the stored attachment, when one exists.
	FileUrl string
}
