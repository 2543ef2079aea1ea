package echoapi_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/trezcool/darasa/core/absence"
)

func Test_absenceApi_submit(t *testing.T) {
	f := setup(t)
	lsn := f.createLesson(t, "LSN20240001", "09:00", "10:00", f.student, f.student2)
	body := marshallObj(t, absence.NewRequest{LessonID: lsn.ID, Reason: "sick"})

	t.Run("auth required", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/absence-requests", body)
		f.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusUnauthorized, wantData: marshallObj(t, errMissingToken)}, rec)
	})

	t.Run("student on roster submits", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/absence-requests", getToken(t, f.conf, f.student), body)
		f.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("code = %v; want %v; body %s", rec.Code, http.StatusCreated, rec.Body.String())
		}

		var got absence.Request
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		if got.Status != absence.StatusProcessing || got.UserID != f.student.ID {
			t.Errorf("got status=%s user=%s; want %s by %s", got.Status, got.UserID, absence.StatusProcessing, f.student.ID)
		}
	})

	t.Run("second pending request is rejected", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/absence-requests", getToken(t, f.conf, f.student), body)
		f.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("code = %v; want %v; body %s", rec.Code, http.StatusBadRequest, rec.Body.String())
		}
	})

	t.Run("off-roster user is rejected", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/absence-requests", getToken(t, f.conf, f.teacher), body)
		f.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("code = %v; want %v; body %s", rec.Code, http.StatusBadRequest, rec.Body.String())
		}
	})
}

func Test_absenceApi_review(t *testing.T) {
	f := setup(t)
	lsn := f.createLesson(t, "LSN20240001", "09:00", "10:00", f.student, f.student2)
	body := marshallObj(t, absence.NewRequest{LessonID: lsn.ID, Reason: "sick"})

	submit := func(t *testing.T) absence.Request {
		t.Helper()
		req, rec := newAuthRequest(http.MethodPost, "/v1/absence-requests", getToken(t, f.conf, f.student), body)
		f.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("submit failed: %s", rec.Body.String())
		}
		var got absence.Request
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		return got
	}
	ar := submit(t)

	t.Run("students may not review", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/absence-requests/"+ar.ID+"/approve", getToken(t, f.conf, f.student2))
		f.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marshallObj(t, errForbidden)}, rec)
	})

	t.Run("teacher approves", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/absence-requests/"+ar.ID+"/approve", getToken(t, f.conf, f.teacher))
		f.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
		}

		var got absence.Request
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		if got.Status != absence.StatusApproved || got.ReviewedBy != f.teacher.ID {
			t.Errorf("got status=%s reviewer=%s; want %s by %s", got.Status, got.ReviewedBy, absence.StatusApproved, f.teacher.ID)
		}
	})

	t.Run("approved request can be filed again and unapproved", func(t *testing.T) {
		ar2 := submit(t)

		req, rec := newAuthRequest(http.MethodPost, "/v1/absence-requests/"+ar2.ID+"/unapprove", getToken(t, f.conf, f.admin))
		f.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v; want %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
		}

		var got absence.Request
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatalf("unmarshalling response: %v", err)
		}
		if got.Status != absence.StatusUnapproved {
			t.Errorf("status = %s; want %s", got.Status, absence.StatusUnapproved)
		}
	})

	t.Run("unknown request", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/absence-requests/00000000-0000-4000-8000-000000000000/approve", getToken(t, f.conf, f.teacher))
		f.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Errorf("code = %v; want %v; body %s", rec.Code, http.StatusNotFound, rec.Body.String())
		}
	})
}
