// Package api contains the HTTP client for the DocVault backend.
package api

import (
	"context"
	"io"

	"github.com/dmitrijs2005/docvault/internal/client/models"
)

// RegisterRequest carries the fields of a registration form.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResult is the successful outcome of register/login: the identity
// record and the opaque bearer token issued for it.
type AuthResult struct {
	User  models.User `json:"user"`
	Token string      `json:"token"`
}

// Attachment is a binary file streamed into a multipart upload.
type Attachment struct {
	// Name is the filename reported to the server.
	Name string
	// Content supplies the file bytes.
	Content io.Reader
}

// Upload carries the structured fields of a document create/update form
// plus an optional attachment. A nil File means the field is omitted from
// the multipart body entirely; on update the server reads that as "keep
// the existing file".
type Upload struct {
	Name        string
	Type        string
	Description string
	ExpiryDate  models.Date
	File        *Attachment
}

// Client is the request contract with the backend. Implementations must
// honor context cancellation on every call.
type Client interface {
	// SetToken installs the bearer token attached to subsequent requests.
	// An empty string detaches it.
	SetToken(token string)

	Register(ctx context.Context, req RegisterRequest) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)

	// ForgotPassword asks the server to dispatch an OTP out-of-band.
	// Returns the server's acknowledgment message.
	ForgotPassword(ctx context.Context, email string) (string, error)
	// VerifyOTP checks the OTP for email. A rejected code is reported as
	// ErrOTPRejected, distinct from transport or server errors.
	VerifyOTP(ctx context.Context, email, otp string) error
	// ResetPassword sets a new password for email after OTP verification.
	// Returns the server's acknowledgment message.
	ResetPassword(ctx context.Context, email, newPassword string) (string, error)

	ListDocuments(ctx context.Context) ([]models.Document, error)
	GetDocument(ctx context.Context, id string) (*models.Document, error)
	// UploadDocument creates a document. When the server echoes the created
	// record in the 201 body it is returned; otherwise the result is nil.
	UploadDocument(ctx context.Context, up Upload) (*models.Document, error)
	UpdateDocument(ctx context.Context, id string, up Upload) error
	DeleteDocument(ctx context.Context, id string) error
}
