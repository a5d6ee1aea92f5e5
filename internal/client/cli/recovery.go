package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/docvault/internal/client/recovery"
)

// ForgotPassword is stage 1 of password recovery. On success the email
// travels forward inside a.attempt and the user advances to the verify
// stage; on failure they stay here.
func (a *App) ForgotPassword(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter your account email", a.out)
	if err != nil {
		return err
	}

	at, msg, err := a.recovery.RequestOTP(ctx, email)
	if err != nil {
		fmt.Fprintln(a.out, errorStyle.Render(msg))
		return nil
	}

	a.attempt = at
	fmt.Fprintln(a.out, okStyle.Render(msg))
	return a.VerifyOTP(ctx)
}

// VerifyOTP is stage 2. Entering it without an attempt from stage 1
// redirects back to ForgotPassword; a wrong code keeps the user here.
func (a *App) VerifyOTP(ctx context.Context) error {
	if a.attempt == nil {
		return a.redirectToStart(ctx)
	}

	otp, err := getSimpleText(a.reader, "Enter the OTP sent to "+a.attempt.Email, a.out)
	if err != nil {
		return err
	}

	msg, err := a.recovery.VerifyOTP(ctx, a.attempt, otp)
	if err != nil {
		if errors.Is(err, recovery.ErrMissingEmail) {
			return a.redirectToStart(ctx)
		}
		fmt.Fprintln(a.out, errorStyle.Render(msg))
		return nil
	}

	fmt.Fprintln(a.out, okStyle.Render("OTP verified."))
	return a.ResetPassword(ctx)
}

// ResetPassword is stage 3. On success the attempt is discarded and the
// user lands on the login view after a short confirmation pause.
func (a *App) ResetPassword(ctx context.Context) error {
	if a.attempt == nil {
		return a.redirectToStart(ctx)
	}

	password, err := getPassword("Enter new password", a.out)
	if err != nil {
		return err
	}

	msg, err := a.recovery.ResetPassword(ctx, a.attempt, password)
	if err != nil {
		if errors.Is(err, recovery.ErrMissingEmail) {
			return a.redirectToStart(ctx)
		}
		fmt.Fprintln(a.out, errorStyle.Render(msg))
		return nil
	}

	fmt.Fprintln(a.out, okStyle.Render(msg))
	a.sleep(a.config.ConfirmDelay)
	a.attempt = nil
	return a.Login(ctx)
}

func (a *App) redirectToStart(ctx context.Context) error {
	a.attempt = nil
	fmt.Fprintln(a.out, "Please request an OTP first.")
	return a.ForgotPassword(ctx)
}
