package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"literacy-hub/backend/internal/model"
)

var errEmailTaken = errors.New("an account with this email already exists")

func (cli *commandLine) createAdmin(ctx context.Context, email, first, last, pwd string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	_, err := cli.users.GetByEmail(ctx, email)
	if err == nil {
		return errEmailTaken
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user := &model.User{
		FirstName:    strings.TrimSpace(first),
		LastName:     strings.TrimSpace(last),
		Email:        email,
		PasswordHash: string(hash),
		Role:         model.RoleSuperAdmin,
		IsActive:     true,
	}
	if err := cli.users.Create(ctx, user); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "super admin %s created\n", email)
	return nil
}

// resetPassword clears the forced-change flag; the account stays inactive if it was.
func (cli *commandLine) resetPassword(ctx context.Context, email, pwd string) error {
	user, err := cli.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("no account with email %q", email)
		}
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.PasswordHash = string(hash)
	user.MustChangePassword = false
	if err := cli.users.Update(ctx, user); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "password updated for %s\n", user.Email)
	return nil
}

func (cli *commandLine) purgeArchive(ctx context.Context) error {
	res, err := cli.archive.Purge(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "purged %d archive entries older than %s\n", res.Purged, res.Cutoff)
	return nil
}
