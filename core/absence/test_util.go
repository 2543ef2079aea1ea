package absence

import (
	"time"

	"github.com/trezcool/darasa/core/lesson"
)

type serviceMock struct {
	service
}

// NewServiceMock returns a Service whose clock is pinned to now.
func NewServiceMock(repo Repository, lsnRepo lesson.Repository, now time.Time) Service {
	return &serviceMock{
		service: service{
			repo:    repo,
			lsnRepo: lsnRepo,
			now:     func() time.Time { return now },
		},
	}
}
