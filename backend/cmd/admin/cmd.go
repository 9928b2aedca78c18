package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"syscall"

	"golang.org/x/term"

	"literacy-hub/backend/internal/dto"
	"literacy-hub/backend/internal/model"
)

const minPasswordLen = 8

var (
	readPasswordFunc = term.ReadPassword // swapped in tests

	errHelp          = errors.New("help provided")
	errPasswordShort = fmt.Errorf("password must be at least %d characters", minPasswordLen)
	errPasswordMatch = errors.New("passwords do not match")
)

// userStore is the slice of the user repository the CLI touches.
type userStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
}

type archivePurger interface {
	Purge(ctx context.Context) (*dto.PurgeResponse, error)
}

type commandLine struct {
	users   userStore
	archive archivePurger
	migrate func() error
	out     io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  create-admin -email EMAIL -first NAME -last NAME  create a super admin; the password is prompted")
	fmt.Fprintln(cli.out, "  reset-password -email EMAIL                       set a new password for an account")
	fmt.Fprintln(cli.out, "  migrate                                           apply pending database migrations")
	fmt.Fprintln(cli.out, "  purge-archive                                     delete archive entries past retention")
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	switch args[1] {
	case "create-admin":
		fs := flag.NewFlagSet("create-admin", flag.ContinueOnError)
		fs.SetOutput(cli.out)
		email := fs.String("email", "", "login email of the new super admin")
		first := fs.String("first", "", "first name")
		last := fs.String("last", "", "last name")
		if err := fs.Parse(args[2:]); err != nil {
			return err
		}
		if strings.TrimSpace(*email) == "" || strings.TrimSpace(*first) == "" || strings.TrimSpace(*last) == "" {
			fs.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		return cli.createAdmin(ctx, *email, *first, *last, pwd)

	case "reset-password":
		fs := flag.NewFlagSet("reset-password", flag.ContinueOnError)
		fs.SetOutput(cli.out)
		email := fs.String("email", "", "login email of the account")
		if err := fs.Parse(args[2:]); err != nil {
			return err
		}
		if strings.TrimSpace(*email) == "" {
			fs.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		return cli.resetPassword(ctx, *email, pwd)

	case "migrate":
		if err := cli.migrate(); err != nil {
			return err
		}
		fmt.Fprintln(cli.out, "migrations applied")
		return nil

	case "purge-archive":
		return cli.purgeArchive(ctx)

	default:
		cli.printUsage()
		return errHelp
	}
}

// promptPassword reads the password twice without echo.
func (cli *commandLine) promptPassword() (string, error) {
	fmt.Fprint(cli.out, "Enter password: ")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	if len(pwd) < minPasswordLen {
		return "", errPasswordShort
	}

	fmt.Fprint(cli.out, "Confirm password: ")
	confirm, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	if string(pwd) != string(confirm) {
		return "", errPasswordMatch
	}
	return string(pwd), nil
}
