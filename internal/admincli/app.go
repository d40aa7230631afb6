// Package admincli implements the interactive admin tool for provisioning
// user accounts directly against the database, without going through a
// transport layer.
package admincli

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/shelterauth/internal/common"
	"github.com/dmitrijs2005/shelterauth/internal/logging"
	"github.com/dmitrijs2005/shelterauth/internal/server/config"
	"github.com/dmitrijs2005/shelterauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/shelterauth/internal/server/services"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	repos    repomanager.RepositoryManager
	identity *services.IdentityService
	reader   *bufio.Reader
	out      io.Writer
}

func NewApp(cfg *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stderr)

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	m := repomanager.NewPostgresRepositoryManager()
	identity := services.NewIdentityService(db, m, cfg)

	return &App{
		config:   cfg,
		logger:   logger,
		db:       db,
		repos:    m,
		identity: identity,
		reader:   bufio.NewReader(os.Stdin),
		out:      os.Stdout,
	}, nil
}

func (app *App) Close() error {
	return app.db.Close()
}

// Run migrates the schema, prompts for the new account's details and creates
// it. The password never touches the screen and is wiped after hashing.
func (app *App) Run(ctx context.Context) error {
	if err := app.repos.RunMigrations(ctx, app.db); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}

	email, err := GetSimpleText(app.reader, "Enter email", app.out)
	if err != nil {
		return err
	}
	username, err := GetSimpleText(app.reader, "Enter username", app.out)
	if err != nil {
		return err
	}
	password, err := GetPassword(app.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if email == "" || username == "" || len(password) == 0 {
		return errors.New("email, username and password are all required")
	}

	user, err := app.identity.Create(ctx, email, username, string(password))
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return fmt.Errorf("account %s already exists", email)
		}
		return err
	}

	app.logger.Info(ctx, "user created", "id", user.ID, "email", user.Email)
	fmt.Fprintf(app.out, "Created user %s (%s)\n", user.UserName, user.ID)
	return nil
}
