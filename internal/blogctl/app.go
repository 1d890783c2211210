// Package blogctl is the operator command line for the blog: it applies
// migrations, creates accounts and prints password reset links without going
// through the web forms.
package blogctl

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/gophblog/internal/common"
	"github.com/dmitrijs2005/gophblog/internal/server/models"
)

const usage = `usage: blogctl [config flags] <command> [options]

commands:
  migrate                              apply database migrations
  create-user -username U -email E     create an account (password is prompted)
  reset-link -email E                  print a password reset link
`

var ErrUsage = errors.New("invalid usage")

type accountCreator interface {
	Register(ctx context.Context, username, email, password string) (*models.User, error)
}

type userFinder interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

type tokenIssuer interface {
	Issue(user *models.User) (string, error)
}

type linkBuilder interface {
	ResetURL(token string) string
}

type App struct {
	accounts accountCreator
	users    userFinder
	tokens   tokenIssuer
	links    linkBuilder
	migrate  func(ctx context.Context) error

	in  *bufio.Reader
	out io.Writer
}

var commands = map[string]func(a *App, ctx context.Context, args []string) error{
	"migrate":     (*App).Migrate,
	"create-user": (*App).CreateUser,
	"reset-link":  (*App).ResetLink,
}

// Run finds the command among args (config flags may precede it) and runs it
// with the arguments that follow.
func (a *App) Run(ctx context.Context, args []string) error {
	for i, arg := range args {
		if cmd, ok := commands[arg]; ok {
			return cmd(a, ctx, args[i+1:])
		}
	}
	fmt.Fprint(a.out, usage)
	return ErrUsage
}

func (a *App) Migrate(ctx context.Context, _ []string) error {
	if err := a.migrate(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "migrations applied")
	return nil
}

func (a *App) CreateUser(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("create-user", flag.ContinueOnError)
	fs.SetOutput(a.out)
	username := fs.String("username", "", "username")
	email := fs.String("email", "", "email address")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}

	var err error
	if *username == "" {
		if *username, err = GetSimpleText(a.in, "Username", a.out); err != nil {
			return err
		}
	}
	if *email == "" {
		if *email, err = GetSimpleText(a.in, "Email", a.out); err != nil {
			return err
		}
	}

	password, err := GetPassword(a.in, "Password", a.out)
	if err != nil {
		return err
	}
	confirm, err := GetPassword(a.in, "Confirm password", a.out)
	if err != nil {
		return err
	}
	if password != confirm {
		return errors.New("passwords do not match")
	}

	user, err := a.accounts.Register(ctx, *username, *email, password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "created user %s (id %d)\n", user.Username, user.ID)
	return nil
}

func (a *App) ResetLink(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("reset-link", flag.ContinueOnError)
	fs.SetOutput(a.out)
	email := fs.String("email", "", "email address")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if strings.TrimSpace(*email) == "" {
		return fmt.Errorf("%w: -email is required", ErrUsage)
	}

	user, err := a.users.GetByEmail(ctx, strings.TrimSpace(*email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("no account with email %s", *email)
		}
		return err
	}

	token, err := a.tokens.Issue(user)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, a.links.ResetURL(token))
	return nil
}
