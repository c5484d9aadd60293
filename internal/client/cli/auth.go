package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/aidolab/mgstudio/internal/client/api"
	"github.com/aidolab/mgstudio/internal/client/session"
)

// getSimpleText and getCode are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getCode = GetCode

// SendCode prompts for a phone number and requests an SMS verification code
// for it. The phone is remembered so the login prompt can offer it back.
func (a *App) SendCode(ctx context.Context) error {
	phone, err := getSimpleText(a.reader, "Enter phone number", os.Stdout)
	if err != nil {
		return err
	}

	msg, err := a.client.SendCode(ctx, phone)
	if err != nil {
		log.Printf("Sending code failed: %s", err.Error())
		return err
	}

	a.lastPhone = phone
	fmt.Println(msg)
	return nil
}

// Login prompts for phone and verification code and tries to authenticate.
//
// An empty phone input falls back to the number the last code was sent to.
// On success the credentials are handed to the session, which persists them
// and flips the in-memory state.
func (a *App) Login(ctx context.Context) error {
	prompt := "Enter phone number"
	if a.lastPhone != "" {
		prompt = fmt.Sprintf("Enter phone number (default %s)", a.lastPhone)
	}
	phone, err := getSimpleText(a.reader, prompt, os.Stdout)
	if err != nil {
		return err
	}
	if phone == "" {
		phone = a.lastPhone
	}

	code, err := getCode(os.Stdout)
	if err != nil {
		return err
	}

	res, err := a.client.Login(ctx, phone, code)
	if err != nil {
		log.Printf("Login unsuccessful: %s", err.Error())
		return err
	}

	a.session.Login(ctx, session.UserInfo{
		UserID:   res.UserID,
		Token:    res.Token,
		Phone:    res.Phone,
		Nickname: res.Nickname,
	})

	log.Printf("Login successful")
	if res.Message != "" {
		fmt.Println(res.Message)
	}
	return nil
}

// Logout revokes the server-side session and clears local state. Local
// state is cleared even when the remote call fails, so the client never
// stays half logged in.
func (a *App) Logout(ctx context.Context) error {
	if err := a.client.Logout(ctx); err != nil && !errors.Is(err, api.ErrUnauthorized) {
		log.Printf("Remote logout failed: %s", err.Error())
	}
	a.session.Logout(ctx)
	fmt.Println("Logged out")
	return nil
}

// Whoami prints the current user's identity fields.
func (a *App) Whoami(ctx context.Context) error {
	u, ok := a.session.UserInfo()
	if !ok {
		fmt.Println("Not logged in")
		return nil
	}
	fmt.Printf("User ID:  %s\n", u.UserID)
	fmt.Printf("Phone:    %s\n", u.Phone)
	fmt.Printf("Nickname: %s\n", u.Nickname)
	return nil
}
