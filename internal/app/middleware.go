package app

import (
	"github.com/moneta-finance/moneta/pkg/lifecycle"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

// requireSession rejects commands that need a logged in user.
func requireSession(deps *Dependencies) cli.BeforeFunc {
	return func(c *cli.Context) error {
		if deps.Controller.State() != lifecycle.Authenticated {
			log.Debugf("Command %q rejected, no active session", c.Command.Name)
			return lifecycle.ErrNotAuthenticated
		}
		return nil
	}
}

// requireAnonymous rejects auth commands while a session is active.
func requireAnonymous(deps *Dependencies) cli.BeforeFunc {
	return func(c *cli.Context) error {
		if deps.Controller.State() == lifecycle.Authenticated {
			return lifecycle.ErrAlreadyLoggedIn
		}
		return nil
	}
}
