package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/dmitrijs2005/freshcart/internal/client/api"
	"github.com/dmitrijs2005/freshcart/internal/client/auth"
	"github.com/dmitrijs2005/freshcart/internal/client/cart"
	"github.com/dmitrijs2005/freshcart/internal/client/config"
	"github.com/dmitrijs2005/freshcart/internal/client/credentials"
	"github.com/dmitrijs2005/freshcart/internal/client/nav"
	"github.com/dmitrijs2005/freshcart/internal/client/session"
	"github.com/dmitrijs2005/freshcart/internal/client/storage"
	"github.com/dmitrijs2005/freshcart/internal/client/wishlist"
	"github.com/dmitrijs2005/freshcart/internal/logging"
)

type App struct {
	config   *config.Config
	db       *sql.DB
	logger   logging.Logger
	router   *nav.Router
	creds    *credentials.Store
	api      *api.Client
	session  *session.Manager
	cart     *cart.Store
	wishlist *wishlist.Store
	reader   *bufio.Reader
	out      io.Writer
}

func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	db, err := storage.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}
	kv := storage.NewSQLiteStore(db)

	jar, err := credentials.NewJar()
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	// The renewal client bypasses the coordinator so renewal never recurses.
	renewer, err := api.New(c.APIBaseURL, &http.Client{Timeout: c.RequestTimeout, Jar: jar}, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	creds := credentials.NewStore(kv, jar, renewer.BaseURL(), c.CookieTTL, logger)
	router := nav.NewRouter(c.HomePath)

	var sess *session.Manager
	coord := auth.NewCoordinator(http.DefaultTransport, creds, renewer, router, auth.Options{
		PublicPaths:  c.PublicPaths,
		LoginPath:    c.LoginPath,
		RenewTimeout: c.RequestTimeout,
		OnExpired:    func(ctx context.Context) { sess.Expire(ctx) },
	}, logger)

	client, err := api.New(c.APIBaseURL, &http.Client{Transport: coord, Timeout: c.RequestTimeout, Jar: jar}, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	sess = session.NewManager(client, creds, router, session.Options{HomePath: c.HomePath, LoginPath: c.LoginPath}, logger)
	wl := wishlist.New(client, creds, logger)

	sess.OnChange(func(ctx context.Context, s session.Status) {
		switch s {
		case session.StatusAuthenticated:
			if err := wl.Load(ctx); err != nil {
				logger.Warn(ctx, "wishlist not loaded", "error", err)
			}
		case session.StatusAnonymous:
			wl.Reset()
		}
	})

	a := &App{
		config:   c,
		db:       db,
		logger:   logger,
		router:   router,
		creds:    creds,
		api:      client,
		session:  sess,
		cart:     cart.New(kv, logger),
		wishlist: wl,
		reader:   bufio.NewReader(os.Stdin),
		out:      os.Stdout,
	}
	router.OnNavigate = a.navigated
	return a, nil
}

// navigated reports every location change, including forced ones.
func (a *App) navigated(path string) {
	a.say("Now at %s", path)
}

// Start restores the session and loads the cart.
func (a *App) Start(ctx context.Context) {
	status := a.session.Restore(ctx)
	a.logger.Info(ctx, "session restored", "status", status.String())

	if err := a.cart.Load(ctx); err != nil {
		a.logger.Error(ctx, "cart not loaded", "error", err)
	}
}

func (a *App) Run(ctx context.Context) {
	defer a.Close()

	a.Start(ctx)
	printlnFn(a.header())
	runREPL(ctx, a, a.getStatus, bufio.NewScanner(a.reader))
}

func (a *App) Close() error {
	return a.db.Close()
}

func (a *App) isLoggedIn() bool {
	return a.session.Status() == session.StatusAuthenticated
}

func (a *App) getStatus() string {
	who := "anonymous"
	if u, ok := a.session.User(); ok {
		who = u.Email
	}
	return fmt.Sprintf("(%s %s cart:%d)", who, a.router.Location(), a.cart.TotalItems())
}
