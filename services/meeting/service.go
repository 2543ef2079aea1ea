// Package meetingsvc mints meeting links through a calendar provider.
//
// The provider has no link-only endpoint: the only way to obtain a meeting
// link is to create a calendar event with conferencing enabled and read the
// link off the response. The event itself is unwanted, so it is deleted right
// after. MintMeetingLink hides that two-step dance; callers only ever see the
// minted link.
package meetingsvc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/trezcool/darasa/core"
)

type calendarService struct {
	baseURL    string
	apiKey     string
	calendarID string
	client     rest.Client
	logger     core.Logger
}

var _ core.MeetingService = (*calendarService)(nil)

func NewCalendarService(conf *core.Config, logger core.Logger) core.MeetingService {
	return &calendarService{
		baseURL:    conf.Meeting.BaseURL,
		apiKey:     conf.Meeting.APIKey,
		calendarID: conf.Meeting.CalendarID,
		client:     rest.Client{HTTPClient: &http.Client{Timeout: conf.Meeting.Timeout}},
		logger:     logger,
	}
}

type (
	eventRequest struct {
		Summary      string   `json:"summary"`
		Start        string   `json:"start"`
		End          string   `json:"end"`
		Attendees    []string `json:"attendees,omitempty"`
		Conferencing bool     `json:"conferencing"`
	}

	eventResponse struct {
		ID            string `json:"id"`
		ConferenceURL string `json:"conference_url"`
	}
)

func (svc *calendarService) MintMeetingLink(ctx context.Context, req core.MeetingRequest) (core.MeetingLink, error) {
	event, err := svc.createEvent(req)
	if err != nil {
		return core.MeetingLink{}, err
	}

	// the event only existed to mint the link
	if err = svc.deleteEvent(event.ID); err != nil {
		svc.logger.Warn(fmt.Sprintf("deleting minted calendar event %s: %v", event.ID, err), err)
	}

	if event.ConferenceURL == "" {
		return core.MeetingLink{}, errors.New("calendar provider returned no conference link")
	}
	return core.MeetingLink{Token: req.Token, URL: event.ConferenceURL}, nil
}

func (svc *calendarService) createEvent(req core.MeetingRequest) (eventResponse, error) {
	body, err := json.Marshal(eventRequest{
		Summary:      req.Summary,
		Start:        req.Start.UTC().Format(time.RFC3339),
		End:          req.End.UTC().Format(time.RFC3339),
		Attendees:    req.Attendees,
		Conferencing: true,
	})
	if err != nil {
		return eventResponse{}, errors.Wrap(err, "encoding calendar event")
	}

	resp, err := svc.client.Send(rest.Request{
		Method:  rest.Post,
		BaseURL: fmt.Sprintf("%s/calendars/%s/events", svc.baseURL, svc.calendarID),
		Headers: svc.headers(),
		Body:    body,
	})
	if err != nil {
		return eventResponse{}, errors.Wrap(err, "creating calendar event")
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return eventResponse{}, errors.Errorf("creating calendar event: provider returned %d", resp.StatusCode)
	}

	var event eventResponse
	if err = json.Unmarshal([]byte(resp.Body), &event); err != nil {
		return eventResponse{}, errors.Wrap(err, "decoding calendar event")
	}
	return event, nil
}

func (svc *calendarService) deleteEvent(id string) error {
	resp, err := svc.client.Send(rest.Request{
		Method:  rest.Delete,
		BaseURL: fmt.Sprintf("%s/calendars/%s/events/%s", svc.baseURL, svc.calendarID, id),
		Headers: svc.headers(),
	})
	if err != nil {
		return err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return errors.Errorf("provider returned %d", resp.StatusCode)
	}
	return nil
}

func (svc *calendarService) headers() map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + svc.apiKey,
		"Content-Type":  "application/json",
	}
}
