package lesson

import (
	"time"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/school"
	"github.com/trezcool/darasa/core/user"
)

type serviceMock struct {
	service
}

// NewServiceMock returns a Service whose clock is pinned to now.
func NewServiceMock(
	db core.DB,
	repo Repository,
	usrRepo user.Repository,
	schoolRepo school.Repository,
	meetSvc core.MeetingService,
	mailSvc core.EmailService,
	conf *core.Config,
	now time.Time,
) Service {
	return &serviceMock{
		service: service{
			db:         db,
			repo:       repo,
			usrRepo:    usrRepo,
			schoolRepo: schoolRepo,
			meetSvc:    meetSvc,
			mailSvc:    mailSvc,
			logger:     nopLogger{},
			conf:       conf,
			now:        func() time.Time { return now },
		},
	}
}

type nopLogger struct{}

func (nopLogger) Debug(msg string, args ...interface{}) {}
func (nopLogger) Info(msg string, args ...interface{})  {}
func (nopLogger) Warn(msg string, args ...interface{})  {}
func (nopLogger) Error(msg string, args ...interface{}) {}
func (nopLogger) Fatal(msg string, args ...interface{}) {}
