package core

import (
	"context"
	"time"
)

type (
	// MeetingRequest asks the provisioner for one meeting link covering a time window.
	// Token is an opaque correlation token matching the minted link back to the
	// originating slot within a batch.
	MeetingRequest struct {
		Summary   string
		Start     time.Time
		End       time.Time
		Attendees []string // attendee emails
		Token     string
	}

	MeetingLink struct {
		Token string
		URL   string
	}

	// MeetingService is any service that can mint meeting links for lessons.
	MeetingService interface {
		MintMeetingLink(ctx context.Context, req MeetingRequest) (MeetingLink, error)
	}
)
