package auth

import (
	"context"
	"errors"

	"github.com/infolibrary/infolibrary/internal/administrators"
	"github.com/infolibrary/infolibrary/internal/shared"
)

// Directory looks administrators up for sign-in.
type Directory interface {
	Authenticate(ctx context.Context, email, password string) (administrators.Administrator, error)
	FindByEmail(ctx context.Context, email string) (administrators.Administrator, error)
	Get(ctx context.Context, id int64) (administrators.Administrator, error)
}

// CodeSender delivers a login code out of band.
type CodeSender interface {
	SendLoginCode(ctx context.Context, email, code string) error
}

// Codes issues and consumes one-time login codes.
type Codes interface {
	Issue(ctx context.Context, email string) (string, error)
	Consume(ctx context.Context, email, code string) (bool, error)
}

// AttemptRecorder counts sign-in attempts by method and result.
type AttemptRecorder interface {
	RecordLogin(method, result string)
}

// Service wraps authentication business rules.
type Service struct {
	directory Directory
	codes     Codes
	sender    CodeSender
	recorder  AttemptRecorder
}

// NewService constructs a new Service. recorder may be nil.
func NewService(directory Directory, codes Codes, sender CodeSender, recorder AttemptRecorder) *Service {
	return &Service{directory: directory, codes: codes, sender: sender, recorder: recorder}
}

// Login validates email and password credentials.
func (s *Service) Login(ctx context.Context, email, password string) (administrators.Administrator, error) {
	admin, err := s.directory.Authenticate(ctx, email, password)
	s.record("password", err)
	return admin, err
}

// RequestCode sends a fresh login code to a registered address. Unknown
// addresses yield shared.ErrNotFound.
func (s *Service) RequestCode(ctx context.Context, email string) error {
	admin, err := s.directory.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	code, err := s.codes.Issue(ctx, admin.Email)
	if err != nil {
		return err
	}
	return s.sender.SendLoginCode(ctx, admin.Email, code)
}

// LoginWithCode signs in with a previously requested code. Wrong, expired or
// reused codes yield shared.ErrInvalidCredentials.
func (s *Service) LoginWithCode(ctx context.Context, email, code string) (administrators.Administrator, error) {
	admin, err := s.loginWithCode(ctx, email, code)
	s.record("code", err)
	return admin, err
}

func (s *Service) loginWithCode(ctx context.Context, email, code string) (administrators.Administrator, error) {
	ok, err := s.codes.Consume(ctx, email, code)
	if err != nil {
		return administrators.Administrator{}, err
	}
	if !ok {
		return administrators.Administrator{}, shared.ErrInvalidCredentials
	}
	admin, err := s.directory.FindByEmail(ctx, email)
	if errors.Is(err, shared.ErrNotFound) {
		return administrators.Administrator{}, shared.ErrInvalidCredentials
	}
	return admin, err
}

// Lookup returns the administrator a token names.
func (s *Service) Lookup(ctx context.Context, id int64) (administrators.Administrator, error) {
	return s.directory.Get(ctx, id)
}

func (s *Service) record(method string, err error) {
	if s.recorder == nil {
		return
	}
	result := "success"
	switch {
	case errors.Is(err, shared.ErrInvalidCredentials):
		result = "rejected"
	case err != nil:
		result = "error"
	}
	s.recorder.RecordLogin(method, result)
}
