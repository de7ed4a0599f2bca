package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/moneta-finance/moneta/internal/event_bus"
	"github.com/moneta-finance/moneta/internal/utils"
	"github.com/moneta-finance/moneta/pkg/api"
	"github.com/moneta-finance/moneta/pkg/session"
	log "github.com/sirupsen/logrus"
)

type State string

const (
	Anonymous      State = "ANONYMOUS"
	Authenticating State = "AUTHENTICATING"
	Authenticated  State = "AUTHENTICATED"
)

type View string

const (
	ViewHome      View = "home"
	ViewAuth      View = "auth"
	ViewDashboard View = "dashboard"
)

type Mode string

const (
	ModeLogin    Mode = "login"
	ModeRegister Mode = "register"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeLogin:
		return ModeLogin, nil
	case ModeRegister:
		return ModeRegister, nil
	}
	return "", fmt.Errorf("%w: mode must be login or register, got %q", api.ErrValidation, s)
}

const (
	ExpiredNotice    = "Session expired. You have been logged out."
	RegisteredNotice = "Registered successfully. Please log in to continue."
)

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrAlreadyLoggedIn  = errors.New("already logged in")
	ErrLoginInProgress  = errors.New("login already in progress")
	ErrControllerClosed = errors.New("session controller is closed")
)

type LoginForm struct {
	Email    string
	Password string
}

type RegisterForm struct {
	Name     string
	Email    string
	Password string
}

// Snapshot is a consistent copy of everything the view renders.
type Snapshot struct {
	State    State
	View     View
	Mode     Mode
	Login    LoginForm
	Register RegisterForm
	// Error is shown inline on the auth form.
	Error string
	// Message is a non-error note on the auth form, such as a registration
	// confirmation.
	Message string
	// Notice is shown outside the auth form, such as the expiry notice.
	Notice string
}

// Controller owns the session state machine. It guards the authenticated
// state with an idle watchdog fed by input events from the bus and forces a
// logout when the watchdog expires or the backend rejects the token.
type Controller struct {
	mu       sync.Mutex
	client   api.Client
	session  *session.Session
	bus      *event_bus.EventBus
	watchdog *Watchdog

	snapshot    Snapshot
	unsubscribe []func()
	closed      bool
}

func NewController(client api.Client, s *session.Session, bus *event_bus.EventBus, clock utils.Clock, idleTimeout time.Duration) *Controller {
	c := &Controller{
		client:  client,
		session: s,
		bus:     bus,
		snapshot: Snapshot{
			State: Anonymous,
			View:  ViewHome,
			Mode:  ModeLogin,
		},
	}
	c.watchdog = NewWatchdog(clock, idleTimeout, c.expire)
	return c
}

// Start discards any token left by a previous run. Every run begins
// anonymous on the home view.
func (c *Controller) Start(ctx context.Context) error {
	_, hadToken := c.session.Token()

	c.mu.Lock()
	c.teardown()
	c.snapshot = Snapshot{State: Anonymous, View: ViewHome, Mode: ModeLogin}
	c.mu.Unlock()

	if err := c.session.ClearToken(ctx); err != nil {
		log.Errorf("Failed to discard persisted session: %v", err)
		return err
	}
	if hadToken {
		log.Info("Discarded session token from previous run")
		c.publish(ctx, event_bus.SessionLoggedOut, event_bus.SessionChange{Reason: event_bus.ReasonStartup})
	}
	return nil
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot.State
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot
}

// OpenAuth shows the auth form in the given mode.
func (c *Controller) OpenAuth(mode Mode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot.View = ViewAuth
	c.switchMode(mode)
}

// SwitchMode changes the auth form mode, clearing the fields of the mode
// switched to along with any error or message.
func (c *Controller) SwitchMode(mode Mode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.switchMode(mode)
}

func (c *Controller) switchMode(mode Mode) {
	c.snapshot.Mode = mode
	switch mode {
	case ModeLogin:
		c.snapshot.Login = LoginForm{}
	case ModeRegister:
		c.snapshot.Register = RegisterForm{}
	}
	c.snapshot.Error = ""
	c.snapshot.Message = ""
}

func (c *Controller) SetLoginForm(form LoginForm) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot.Login = form
}

func (c *Controller) SetRegisterForm(form RegisterForm) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot.Register = form
}

// DismissNotice clears the notice shown after a forced logout.
func (c *Controller) DismissNotice() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot.Notice = ""
}

// Login submits the login form. On success the session is authenticated and
// the watchdog armed; on failure the error is kept for the auth form.
func (c *Controller) Login(ctx context.Context) error {
	c.mu.Lock()
	if err := c.checkCanLogin(); err != nil {
		c.mu.Unlock()
		return err
	}
	form := c.snapshot.Login
	if strings.TrimSpace(form.Email) == "" || form.Password == "" {
		err := fmt.Errorf("%w: email and password are required", api.ErrValidation)
		c.snapshot.Error = "Email and password are required"
		c.mu.Unlock()
		return err
	}
	c.snapshot.State = Authenticating
	c.snapshot.Error = ""
	c.snapshot.Message = ""
	c.mu.Unlock()

	_, err := c.client.Login(ctx, api.Credentials{Email: strings.TrimSpace(form.Email), Password: form.Password})

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		if err == nil {
			if clearErr := c.session.ClearToken(ctx); clearErr != nil {
				log.Errorf("Failed to clear session token after close: %v", clearErr)
			}
		}
		return ErrControllerClosed
	}
	if err != nil {
		c.snapshot.State = Anonymous
		c.snapshot.Error = api.Message(err)
		c.mu.Unlock()
		log.Infof("Login failed: %v", err)
		return err
	}
	c.becomeAuthenticated()
	c.mu.Unlock()

	log.Info("Session authenticated")
	c.publish(ctx, event_bus.SessionLoggedIn, event_bus.SessionChange{})
	return nil
}

func (c *Controller) checkCanLogin() error {
	switch {
	case c.closed:
		return ErrControllerClosed
	case c.snapshot.State == Authenticating:
		return ErrLoginInProgress
	case c.snapshot.State == Authenticated:
		return ErrAlreadyLoggedIn
	}
	return nil
}

// becomeAuthenticated must be called with c.mu held.
func (c *Controller) becomeAuthenticated() {
	c.snapshot.State = Authenticated
	c.snapshot.View = ViewDashboard
	c.snapshot.Login = LoginForm{}
	c.snapshot.Register = RegisterForm{}
	c.snapshot.Error = ""
	c.snapshot.Message = ""
	c.snapshot.Notice = ""

	for _, eventType := range event_bus.ActivityEvents {
		c.unsubscribe = append(c.unsubscribe, c.bus.Subscribe(eventType, c.onActivity))
	}
	c.watchdog.Start()
}

// Register submits the register form. On success the form switches to login
// mode with a confirmation message; the user still has to log in.
func (c *Controller) Register(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return "", ErrControllerClosed
	}
	form := c.snapshot.Register
	if strings.TrimSpace(form.Name) == "" || strings.TrimSpace(form.Email) == "" || form.Password == "" {
		c.snapshot.Error = "Name, email and password are required"
		c.mu.Unlock()
		return "", fmt.Errorf("%w: name, email and password are required", api.ErrValidation)
	}
	c.snapshot.Error = ""
	c.snapshot.Message = ""
	c.mu.Unlock()

	message, err := c.client.Register(ctx, api.RegisterRequest{
		Name:     strings.TrimSpace(form.Name),
		Email:    strings.TrimSpace(form.Email),
		Password: form.Password,
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.snapshot.Error = api.Message(err)
		log.Infof("Registration failed: %v", err)
		return "", err
	}
	if message == "" {
		message = RegisteredNotice
	}
	c.switchMode(ModeLogin)
	c.snapshot.Register = RegisterForm{}
	c.snapshot.Message = message
	log.Infof("Registered %s", form.Email)
	return message, nil
}

// Logout ends the session at the user's request.
func (c *Controller) Logout(ctx context.Context) error {
	if !c.endSession(ctx, event_bus.ReasonExplicit, "") {
		return ErrNotAuthenticated
	}
	return nil
}

// HandleUnauthorized forces a logout after the backend rejected the session
// token. It is meant to be installed as the api client's UnauthorizedHandler.
func (c *Controller) HandleUnauthorized(ctx context.Context) {
	c.endSession(ctx, event_bus.ReasonUnauthorized, ExpiredNotice)
}

func (c *Controller) expire() {
	c.endSession(context.Background(), event_bus.ReasonIdleTimeout, ExpiredNotice)
}

func (c *Controller) onActivity(event_bus.Event) error {
	c.watchdog.Reset()
	return nil
}

// endSession moves an authenticated session back to anonymous. It reports
// false when there was no authenticated session, so concurrent triggers end
// a session only once.
func (c *Controller) endSession(ctx context.Context, reason event_bus.LogoutReason, notice string) bool {
	c.mu.Lock()
	if c.snapshot.State != Authenticated {
		c.mu.Unlock()
		return false
	}
	c.teardown()
	c.snapshot = Snapshot{
		State:  Anonymous,
		View:   ViewHome,
		Mode:   ModeLogin,
		Notice: notice,
	}
	c.mu.Unlock()

	if err := c.client.Logout(ctx); err != nil {
		log.Errorf("Failed to clear session token: %v", err)
	}
	log.Infof("Session ended (%s)", reason)

	eventType := event_bus.SessionLoggedOut
	if notice != "" {
		eventType = event_bus.SessionExpired
	}
	c.publish(ctx, eventType, event_bus.SessionChange{Reason: reason, Notice: notice})
	return true
}

// teardown must be called with c.mu held.
func (c *Controller) teardown() {
	c.watchdog.Stop()
	for _, unsubscribe := range c.unsubscribe {
		unsubscribe()
	}
	c.unsubscribe = nil
}

func (c *Controller) publish(ctx context.Context, eventType event_bus.EventType, change event_bus.SessionChange) {
	if err := c.bus.Publish(event_bus.NewEvent(ctx, eventType, change)); err != nil {
		log.Warnf("Failed to deliver %s: %v", eventType, err)
	}
}

// Close stops the watchdog and detaches from the bus. The session token is
// left untouched.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.teardown()
}
