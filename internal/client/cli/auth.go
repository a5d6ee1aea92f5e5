package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/docvault/internal/client/api"
)

// Register is the account creation view. On success the session is
// established immediately, exactly like a login.
func (a *App) Register(ctx context.Context) error {
	a.attempt = nil // entering auth abandons any in-progress recovery

	name, err := getSimpleText(a.reader, "Enter name", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword("Enter password", a.out)
	if err != nil {
		return err
	}

	if err := a.session.Register(ctx, api.RegisterRequest{Name: name, Email: email, Password: password}); err != nil {
		fmt.Fprintln(a.out, errorStyle.Render(a.session.LastError()))
		return nil
	}

	fmt.Fprintln(a.out, okStyle.Render("Account created, you are now logged in."))
	return a.List(ctx)
}

// Login is the login view. It doubles as the redirect target for the
// route guard and for a finished password recovery.
func (a *App) Login(ctx context.Context) error {
	a.attempt = nil

	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword("Enter password", a.out)
	if err != nil {
		return err
	}

	if err := a.session.Login(ctx, email, password); err != nil {
		fmt.Fprintln(a.out, errorStyle.Render(a.session.LastError()))
		return nil
	}

	fmt.Fprintln(a.out, okStyle.Render("Logged in."))
	return a.List(ctx)
}

// Logout asks for confirmation, then clears the session and the
// document collection so nothing leaks into the next login.
func (a *App) Logout(ctx context.Context) error {
	if !a.session.Authenticated() {
		fmt.Fprintln(a.out, "Not logged in.")
		return nil
	}

	ok, err := confirm(a.reader, "Are you sure you want to logout?", a.out)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	if err := a.session.Logout(ctx); err != nil {
		fmt.Fprintln(a.out, errorStyle.Render("Logout failed."))
		return err
	}
	a.documents.Clear()
	fmt.Fprintln(a.out, "Logged out.")
	return nil
}
