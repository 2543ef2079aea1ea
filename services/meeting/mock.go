package meetingsvc

import (
	"context"
	"fmt"
	"sync"

	"github.com/trezcool/darasa/core"
)

// ServiceMock mints deterministic links in memory and records every request.
type ServiceMock struct {
	mu       sync.Mutex
	requests []core.MeetingRequest

	// Err, when set, fails every mint.
	Err error
	// FailTokens fails minting for specific correlation tokens only.
	FailTokens map[string]error
}

var _ core.MeetingService = (*ServiceMock)(nil)

func NewServiceMock() *ServiceMock {
	return &ServiceMock{}
}

func (svc *ServiceMock) MintMeetingLink(ctx context.Context, req core.MeetingRequest) (core.MeetingLink, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	svc.requests = append(svc.requests, req)
	if svc.Err != nil {
		return core.MeetingLink{}, svc.Err
	}
	if err, ok := svc.FailTokens[req.Token]; ok {
		return core.MeetingLink{}, err
	}
	return core.MeetingLink{
		Token: req.Token,
		URL:   fmt.Sprintf("https://meet.example.com/%s", req.Token),
	}, nil
}

// Requests returns every mint request seen so far.
func (svc *ServiceMock) Requests() []core.MeetingRequest {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	reqs := make([]core.MeetingRequest, len(svc.requests))
	copy(reqs, svc.requests)
	return reqs
}
