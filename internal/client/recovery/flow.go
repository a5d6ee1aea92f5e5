// Package recovery implements the three-stage password recovery
// protocol: request an OTP, verify it, set a new password.
//
// The target email travels between stages inside an Attempt that the
// caller (the navigation layer) holds and passes into each stage entry
// point. It is never persisted and never enters the session store; once
// the flow exits — success, abandonment or a guard redirect — the caller
// drops it.
package recovery

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrijs2005/docvault/internal/client/api"
	"github.com/dmitrijs2005/docvault/internal/logging"
)

// ErrMissingEmail is returned when stage 2 or 3 is entered without an
// email inherited from the prior stage. It is a control-flow signal:
// the caller redirects to stage 1 and must not render it as an error.
var ErrMissingEmail = errors.New("recovery attempt has no email")

// ErrEmailRequired is returned by stage 1 for a blank email, before any
// request is dispatched.
var ErrEmailRequired = errors.New("email is required")

// User-facing messages for stage outcomes the server does not describe.
const (
	msgOTPSent     = "OTP sent successfully!"
	msgOTPSendFail = "Failed to send OTP."
	msgOTPInvalid  = "Invalid OTP. Please try again."
	msgVerifyFail  = "OTP verification failed."
	msgResetOK     = "Password reset successfully!"
	msgResetFail   = "Failed to reset password."
)

// Attempt is the ephemeral state of one in-progress recovery attempt.
type Attempt struct {
	Email string
}

// Flow drives the three stages. Each stage is a one-shot
// request/response exchange; stages 2 and 3 demand the attempt produced
// by the stage before them.
type Flow struct {
	api api.Client
	log logging.Logger
}

func NewFlow(apiClient api.Client, log logging.Logger) *Flow {
	return &Flow{api: apiClient, log: log.With("component", "recovery")}
}

// RequestOTP is stage 1. On success it returns the attempt carrying the
// email forward and a confirmation message; the server has dispatched an
// OTP out-of-band. On failure the returned message is what the caller
// should surface while staying on stage 1.
func (f *Flow) RequestOTP(ctx context.Context, email string) (*Attempt, string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, msgOTPSendFail, ErrEmailRequired
	}

	msg, err := f.api.ForgotPassword(ctx, email)
	if err != nil {
		return nil, api.Message(err, msgOTPSendFail), err
	}
	if msg == "" {
		msg = msgOTPSent
	}
	return &Attempt{Email: email}, msg, nil
}

// VerifyOTP is stage 2. A nil or email-less attempt means the stage was
// entered out of order; the caller redirects to stage 1. A wrong code
// keeps the caller on stage 2 with the returned message.
func (f *Flow) VerifyOTP(ctx context.Context, at *Attempt, otp string) (string, error) {
	if at == nil || at.Email == "" {
		f.log.Info(ctx, "verify stage entered without email, redirecting to start")
		return "", ErrMissingEmail
	}

	err := f.api.VerifyOTP(ctx, at.Email, otp)
	switch {
	case err == nil:
		return "", nil
	case errors.Is(err, api.ErrOTPRejected):
		return msgOTPInvalid, err
	default:
		return api.Message(err, msgVerifyFail), err
	}
}

// ResetPassword is stage 3. The same entry guard as stage 2 applies.
// On success the caller redirects to login after its confirmation delay.
func (f *Flow) ResetPassword(ctx context.Context, at *Attempt, newPassword string) (string, error) {
	if at == nil || at.Email == "" {
		f.log.Info(ctx, "reset stage entered without email, redirecting to start")
		return "", ErrMissingEmail
	}

	msg, err := f.api.ResetPassword(ctx, at.Email, newPassword)
	if err != nil {
		return api.Message(err, msgResetFail), err
	}
	if msg == "" {
		msg = msgResetOK
	}
	return msg, nil
}
