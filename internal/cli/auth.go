package cli

import (
	"context"
	"errors"
)

// Register creates a cloud account and signs in.
func (a *App) Register(ctx context.Context) error {
	email, password, err := a.credentials()
	if err != nil {
		return a.fail(ctx, "input error", err)
	}
	if err := a.auth.Register(ctx, email, password); err != nil {
		return a.fail(ctx, "Registration unsuccessful", err)
	}
	printlnFn("Registered and signed in as", email)
	a.engine.StartAutoSync(ctx, a.autoSyncInterval)
	return nil
}

// Login signs in to the cloud and starts auto sync.
func (a *App) Login(ctx context.Context) error {
	email, password, err := a.credentials()
	if err != nil {
		return a.fail(ctx, "input error", err)
	}
	if err := a.auth.Login(ctx, email, password); err != nil {
		return a.fail(ctx, "Login unsuccessful", err)
	}
	printlnFn("Login successful")
	a.engine.StartAutoSync(ctx, a.autoSyncInterval)
	return nil
}

// Logout stops auto sync and signs out. Local data stays.
func (a *App) Logout(ctx context.Context) error {
	a.engine.StopAutoSync()
	if err := a.auth.Logout(ctx); err != nil {
		return a.fail(ctx, "Logout error", err)
	}
	printlnFn("Logged out")
	return nil
}

func (a *App) credentials() (string, []byte, error) {
	email, err := GetSimpleText(a.reader, "-Enter email", a.out)
	if err != nil {
		return "", nil, err
	}
	if email == "" {
		return "", nil, errors.New("email is required")
	}
	password, err := GetPassword(a.out)
	if err != nil {
		return "", nil, err
	}
	return email, password, nil
}
