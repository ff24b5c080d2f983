package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/dmitrijs2005/passvault/internal/common"
	"github.com/dmitrijs2005/passvault/internal/models"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
)

var errPasswordMismatch = errors.New("passwords do not match")

func usage(s string) error {
	return fmt.Errorf("%w: %s", errUsage, s)
}

func (a *App) Status(ctx context.Context, _ []string) error {
	st, err := a.client.Status(ctx)
	if err != nil {
		a.online = false
		return err
	}
	a.online = true
	a.status = st
	fmt.Fprintf(a.out, "vault is %s\n", st.State())
	return nil
}

// readNewPassword asks for a password twice.
func (a *App) readNewPassword(prompt string) (string, error) {
	pw, err := getPassword(a.reader, prompt, a.out)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(pw)

	again, err := getPassword(a.reader, "Repeat password", a.out)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(again)

	if string(pw) != string(again) {
		return "", errPasswordMismatch
	}
	return string(pw), nil
}

func (a *App) Setup(ctx context.Context, _ []string) error {
	pw, err := a.readNewPassword("Choose master password")
	if err != nil {
		return err
	}
	if err := a.client.Setup(ctx, pw); err != nil {
		return err
	}
	a.refreshStatus(ctx)
	fmt.Fprintln(a.out, "Vault created and unlocked.")
	return nil
}

func (a *App) Unlock(ctx context.Context, _ []string) error {
	pw, err := getPassword(a.reader, "Master password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)

	if err := a.client.Unlock(ctx, string(pw)); err != nil {
		return err
	}
	a.refreshStatus(ctx)
	fmt.Fprintln(a.out, "Unlocked.")
	return nil
}

func (a *App) Lock(ctx context.Context, _ []string) error {
	if err := a.client.Lock(ctx); err != nil {
		return err
	}
	a.refreshStatus(ctx)
	fmt.Fprintln(a.out, "Locked.")
	return nil
}

func (a *App) ChangePassword(ctx context.Context, _ []string) error {
	old, err := getPassword(a.reader, "Current master password", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(old)

	next, err := a.readNewPassword("New master password")
	if err != nil {
		return err
	}

	degraded, err := a.client.ChangeMasterPassword(ctx, string(old), next)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Master password changed.")
	if len(degraded) > 0 {
		fmt.Fprintf(a.out, "%d record(s) could not be re-encrypted and stay under the old password:\n", len(degraded))
		for _, id := range degraded {
			fmt.Fprintln(a.out, "  ", id)
		}
	}
	return nil
}

func (a *App) printRecords(records []models.CredentialRecord) {
	if len(records) == 0 {
		fmt.Fprintln(a.out, "No entries.")
		return
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSITE\tUSERNAME\tCREATED")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.ID, r.Site, r.Username, r.CreatedAt.Format("2006-01-02 15:04"))
	}
	tw.Flush()
}

func (a *App) Find(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("find <domain>")
	}
	resp, err := a.client.GetCredentials(ctx, args[0])
	if err != nil {
		return err
	}
	a.printRecords(resp.Matches)
	if resp.Password != "" {
		fmt.Fprintf(a.out, "Best match: %s / %s\n", resp.Username, resp.Password)
	}
	return nil
}

func (a *App) List(ctx context.Context, _ []string) error {
	records, err := a.client.List(ctx)
	if err != nil {
		return err
	}
	a.printRecords(records)
	return nil
}

func (a *App) Show(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("show <id>")
	}
	pw, err := a.client.DecryptPassword(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, pw)
	return nil
}

func (a *App) readCandidate() (models.PendingSaveCandidate, error) {
	var c models.PendingSaveCandidate

	site, err := getSimpleText(a.reader, "Site", a.out)
	if err != nil {
		return c, err
	}
	user, err := getSimpleText(a.reader, "Username", a.out)
	if err != nil {
		return c, err
	}
	pw, err := getPassword(a.reader, "Password", a.out)
	if err != nil {
		return c, err
	}
	defer common.WipeByteArray(pw)

	return models.PendingSaveCandidate{Site: site, Username: user, Password: string(pw)}, nil
}

// Capture records a pending candidate without storing it.
func (a *App) Capture(ctx context.Context, _ []string) error {
	c, err := a.readCandidate()
	if err != nil {
		return err
	}
	if err := a.client.SaveCandidate(ctx, c); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Candidate captured. Use 'confirm' to save it.")
	return nil
}

func (a *App) Save(ctx context.Context, _ []string) error {
	c, err := a.readCandidate()
	if err != nil {
		return err
	}
	id, err := a.client.ConfirmSave(ctx, c)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Saved with id", id)
	return nil
}

func (a *App) Pending(ctx context.Context, _ []string) error {
	c, err := a.client.PendingSave(ctx)
	if err != nil {
		return err
	}
	if c == nil {
		fmt.Fprintln(a.out, "No pending save.")
		return nil
	}
	fmt.Fprintf(a.out, "Pending save: %s / %s\n", c.Site, c.Username)
	return nil
}

func (a *App) Confirm(ctx context.Context, _ []string) error {
	c, err := a.client.PendingSave(ctx)
	if err != nil {
		return err
	}
	if c == nil {
		fmt.Fprintln(a.out, "No pending save.")
		return nil
	}
	id, err := a.client.ConfirmSave(ctx, *c)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Saved with id", id)
	return nil
}

func (a *App) Dismiss(ctx context.Context, _ []string) error {
	if err := a.client.ClearCandidate(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Pending save dismissed.")
	return nil
}

func (a *App) Delete(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("delete <id>")
	}
	deleted, err := a.client.Delete(ctx, args[0])
	if err != nil {
		return err
	}
	if !deleted {
		fmt.Fprintln(a.out, "No entry with id", args[0])
		return nil
	}
	fmt.Fprintln(a.out, "Deleted.")
	return nil
}

func (a *App) Generate(ctx context.Context, args []string) error {
	length := 0
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return usage("generate [length]")
		}
		length = n
	}
	pw, err := a.client.GeneratePassword(ctx, length)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, pw)
	return nil
}
