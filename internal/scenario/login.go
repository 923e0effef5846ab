package scenario

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"loginload/internal/check"
	"loginload/internal/credentials"
	"loginload/internal/loginreq"
	"loginload/internal/vu"
)

// StatusOK is the single check run by checked-login.
var StatusOK = check.StatusIs[*loginreq.Response](200)

type randomLogin struct {
	selector *credentials.Selector
	invoker  *loginreq.Invoker
}

func (s *randomLogin) Name() string { return RandomLogin }

func (s *randomLogin) Iterate(ctx context.Context) error {
	_, err := s.invoker.Login(ctx, s.selector.Select())
	return err
}

type checkedLogin struct {
	selector *credentials.Selector
	invoker  *loginreq.Invoker
	checks   check.Recorder
	console  *zap.Logger
}

func (s *checkedLogin) Name() string { return CheckedLogin }

func (s *checkedLogin) Iterate(ctx context.Context) error {
	c := s.selector.Select()
	vu.Logger(ctx, s.console).Info(CredentialLine(c))

	resp, err := s.invoker.Login(ctx, c)
	if err != nil {
		// no response: checks see status 0 and fail
		check.Check(s.checks, &loginreq.Response{}, StatusOK)
		return err
	}

	check.Check(s.checks, resp, StatusOK)
	return nil
}

// CredentialLine formats the diagnostic line logged before each checked login.
func CredentialLine(c credentials.Credential) string {
	return fmt.Sprintf("username: %s  / password: %s", c.Username, c.Password)
}
