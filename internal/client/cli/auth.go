package cli

import (
	"context"
	"os"
	"time"

	"github.com/dmitrijs2005/freshcart/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

type usageError string

func (u usageError) Error() string { return "usage: " + string(u) }

// Login signs in with email and password. The email may be passed as an
// argument; otherwise it is prompted for. The password is always read from
// the terminal without echo.
func (a *App) Login(ctx context.Context, args []string) error {
	var email string
	if len(args) > 0 {
		email = args[0]
	} else {
		var err error
		if email, err = getSimpleText(a.reader, "Enter email", os.Stdout); err != nil {
			return err
		}
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}

	if err := a.session.SignIn(ctx, email, string(password)); err != nil {
		return err
	}

	u, _ := a.session.User()
	a.ok("Welcome, %s!", u.Name)
	return nil
}

// TokenLogin signs in with an access token obtained elsewhere.
func (a *App) TokenLogin(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("token <access-token>")
	}
	if err := a.session.Login(ctx, args[0]); err != nil {
		return err
	}

	u, _ := a.session.User()
	a.ok("Welcome, %s!", u.Name)
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if err := a.session.Logout(ctx); err != nil {
		return err
	}
	a.ok("Logged out.")
	return nil
}

func (a *App) WhoAmI(ctx context.Context) error {
	u, ok := a.session.User()
	if !ok {
		a.say("Not logged in (%s).", a.session.Status())
		return nil
	}

	creds, _ := a.creds.Read(ctx)
	a.say("%s <%s>", u.Name, u.Email)
	a.say("role: %s", firstNonEmpty(u.RoleName(), creds.Role))

	if claims, err := common.ParseClaims(creds.AccessToken); err == nil && claims.ExpiresAt != nil {
		if claims.Expired(time.Now()) {
			a.say("access token: expired, renewed on next request")
		} else {
			a.say("access token expires: %s", claims.ExpiresAt.Local().Format(time.DateTime))
		}
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func (a *App) Goto(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("goto <path>")
	}
	a.router.Navigate(args[0])
	return nil
}
