package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/aidolab/mgstudio/internal/client/session"
)

// Nickname prompts for a new display name and applies it to the local
// profile. Only the nickname field is touched; phone and avatar keep their
// current values.
func (a *App) Nickname(ctx context.Context) error {
	nickname, err := getSimpleText(a.reader, "Enter new nickname", os.Stdout)
	if err != nil {
		return err
	}
	if nickname == "" {
		fmt.Println("Nickname cannot be empty")
		return nil
	}

	a.session.UpdateUserInfo(ctx, session.ProfileUpdate{Nickname: &nickname})
	fmt.Println("Nickname updated")
	return nil
}
