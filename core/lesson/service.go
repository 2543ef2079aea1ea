package lesson

import (
	"context"
	"net/mail"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/school"
	"github.com/trezcool/darasa/core/user"
)

type (
	Repository interface {
		CreateLessons(ctx context.Context, lessons []Lesson, exec ...core.DBExecutor) ([]Lesson, error)
		GetLesson(ctx context.Context, id string, exec ...core.DBExecutor) (Lesson, error)
		// QueryLessons applies AND operation on available QueryFilter fields.
		// QueryFilter.Status is ignored here; it is derived and filtered by the service.
		QueryLessons(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Lesson, error)
		// QueryOverlapping returns all non-deleted lessons on date whose time
		// window overlaps (startTime, endTime), touching boundaries excluded.
		// excludeID leaves one lesson out of the search.
		QueryOverlapping(ctx context.Context, date time.Time, startTime, endTime, excludeID string, exec ...core.DBExecutor) ([]Lesson, error)
		// MaxCodeSeq returns the highest code sequence used for the given prefix
		// and year; 0 when no lesson exists yet.
		MaxCodeSeq(ctx context.Context, prefix string, year int, exec ...core.DBExecutor) (int, error)
		UpdateLesson(ctx context.Context, lsn Lesson, exec ...core.DBExecutor) (Lesson, error)
		SoftDeleteLessons(ctx context.Context, ids []string, by string, at time.Time, exec ...core.DBExecutor) error
	}

	Service interface {
		CreateBatch(ctx context.Context, actor user.User, nb NewLessonBatch) ([]Lesson, error)
		GetByID(ctx context.Context, id string) (Lesson, error)
		Query(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]Lesson, error)
		Update(ctx context.Context, actor user.User, id string, patch UpdateLesson) (Lesson, error)
		Delete(ctx context.Context, actor user.User, ids ...string) error
	}

	service struct {
		db         core.DB
		repo       Repository
		usrRepo    user.Repository
		schoolRepo school.Repository
		meetSvc    core.MeetingService
		mailSvc    core.EmailService
		logger     core.Logger
		conf       *core.Config
		now        func() time.Time // mockable
	}
)

var _ Service = (*service)(nil)

func NewService(
	db core.DB,
	repo Repository,
	usrRepo user.Repository,
	schoolRepo school.Repository,
	meetSvc core.MeetingService,
	mailSvc core.EmailService,
	logger core.Logger,
	conf *core.Config,
) Service {
	return &service{
		db:         db,
		repo:       repo,
		usrRepo:    usrRepo,
		schoolRepo: schoolRepo,
		meetSvc:    meetSvc,
		mailSvc:    mailSvc,
		logger:     logger,
		conf:       conf,
		now:        time.Now,
	}
}

// CreateBatch creates one lesson per time slot, all sharing name, teacher,
// classroom, subject and roster. The whole batch commits in one transaction or
// not at all: any conflict, missing reference or provisioning failure aborts
// it with zero lessons persisted.
func (svc *service) CreateBatch(ctx context.Context, actor user.User, nb NewLessonBatch) ([]Lesson, error) {
	now := svc.now().UTC()

	slots := make([]TimeSlot, len(nb.Slots))
	copy(slots, nb.Slots)
	for i := range slots {
		if err := checkSlotWindow(slots[i]); err != nil {
			return nil, err
		}
		slots[i].Date = truncateDate(slots[i].Date)
		slots[i].Token = uuid.New().String()
	}

	teacher, students, err := svc.checkReferences(ctx, refSet{
		TeacherID:   nb.TeacherID,
		ClassroomID: nb.ClassroomID,
		CourseID:    nb.CourseID,
		SubjectID:   nb.SubjectID,
		SyllabusID:  nb.SyllabusID,
		LectureIDs:  nb.LectureIDs,
		StudentIDs:  nb.StudentIDs,
	})
	if err != nil {
		return nil, err
	}

	report, err := svc.detectConflicts(ctx, slots, Resources{
		ClassroomID: nb.ClassroomID,
		SubjectID:   nb.SubjectID,
		TeacherID:   nb.TeacherID,
		StudentIDs:  nb.StudentIDs,
	}, "" /* excludeID */)
	if err != nil {
		return nil, err
	}
	if !report.IsEmpty() {
		return nil, NewConflictError(report)
	}

	var links map[string]string
	if nb.WithMeeting {
		if links, err = svc.provisionMeetings(ctx, nb.Name, slots, attendeeEmails(teacher, students)); err != nil {
			return nil, err
		}
	}

	var created []Lesson
	err = core.Atomic(ctx, svc.db, func(tx core.DBTransactor) error {
		codes, err := svc.nextCodes(ctx, len(slots), now, tx)
		if err != nil {
			return err
		}

		lessons := make([]Lesson, 0, len(slots))
		for i, slot := range slots {
			lessons = append(lessons, Lesson{
				ID:          uuid.New().String(),
				Code:        codes[i],
				Name:        nb.Name,
				ClassroomID: nb.ClassroomID,
				CourseID:    nb.CourseID,
				SubjectID:   nb.SubjectID,
				TeacherID:   nb.TeacherID,
				StudentIDs:  nb.StudentIDs,
				Date:        slot.Date,
				StartTime:   slot.StartTime,
				EndTime:     slot.EndTime,
				Room:        nb.Room,
				MeetingURL:  links[slot.Token],
				SyllabusID:  nb.SyllabusID,
				LectureIDs:  nb.LectureIDs,
				CreatedAt:   now,
				CreatedBy:   actor.ID,
				UpdatedAt:   now,
				UpdatedBy:   actor.ID,
			})
		}

		created, err = svc.repo.CreateLessons(ctx, lessons, tx)
		return errors.Wrap(err, "inserting lessons")
	})
	if err != nil {
		return nil, err
	}

	svc.notify("New lesson scheduled", "lesson-scheduled", created, teacher, students)

	for i := range created {
		created[i].Status = created[i].DeriveStatus(now)
	}
	return created, nil
}

func (svc *service) GetByID(ctx context.Context, id string) (Lesson, error) {
	lsn, err := svc.repo.GetLesson(ctx, id)
	if err != nil {
		return Lesson{}, err
	}
	lsn.Status = lsn.DeriveStatus(svc.now().UTC())
	return lsn, nil
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]Lesson, error) {
	lessons, err := svc.repo.QueryLessons(ctx, filter, ordering)
	if err != nil {
		return nil, err
	}

	now := svc.now().UTC()
	for i := range lessons {
		lessons[i].Status = lessons[i].DeriveStatus(now)
	}

	if filter != nil && filter.Status != "" {
		filtered := lessons[:0]
		for _, lsn := range lessons {
			if lsn.Status == filter.Status {
				filtered = append(filtered, lsn)
			}
		}
		lessons = filtered
	}
	return lessons, nil
}

// Update applies a tagged patch to a lesson after gating it through the
// mutation policy and, when schedule fields change, a fresh conflict pass
// against the new values. A requested meeting link is always freshly minted;
// the previous one is never reused.
func (svc *service) Update(ctx context.Context, actor user.User, id string, patch UpdateLesson) (Lesson, error) {
	now := svc.now().UTC()

	lsn, err := svc.repo.GetLesson(ctx, id)
	if err != nil {
		return Lesson{}, err
	}

	updated := patch.apply(lsn)
	slot := TimeSlot{Date: updated.Date, StartTime: updated.StartTime, EndTime: updated.EndTime}
	if err = checkSlotWindow(slot); err != nil {
		return Lesson{}, err
	}

	if violations := guardUpdate(lsn, updated, &patch, now, svc.conf.Lesson.EditLeadTime); len(violations) > 0 {
		return Lesson{}, NewPolicyViolationError(violations)
	}

	teacher, students, err := svc.checkReferences(ctx, refSet{
		TeacherID:   updated.TeacherID,
		ClassroomID: updated.ClassroomID,
		CourseID:    updated.CourseID,
		SubjectID:   updated.SubjectID,
		SyllabusID:  updated.SyllabusID,
		LectureIDs:  updated.LectureIDs,
		StudentIDs:  updated.StudentIDs,
	})
	if err != nil {
		return Lesson{}, err
	}

	if patch.touchesSchedule() {
		report, err := svc.detectConflicts(ctx, []TimeSlot{slot}, Resources{
			ClassroomID: updated.ClassroomID,
			SubjectID:   updated.SubjectID,
			TeacherID:   updated.TeacherID,
			StudentIDs:  updated.StudentIDs,
		}, lsn.ID)
		if err != nil {
			return Lesson{}, err
		}
		if !report.IsEmpty() {
			return Lesson{}, NewConflictError(report)
		}
	}

	if patch.WithMeeting {
		start, end, _ := slot.Window()
		link, err := svc.meetSvc.MintMeetingLink(ctx, core.MeetingRequest{
			Summary:   updated.Name,
			Start:     start,
			End:       end,
			Attendees: attendeeEmails(teacher, students),
			Token:     uuid.New().String(),
		})
		if err != nil {
			return Lesson{}, NewProvisioningError([]SlotFailure{{Slot: slot, Reason: err.Error()}})
		}
		updated.MeetingURL = link.URL
	}

	updated.UpdatedAt = now
	updated.UpdatedBy = actor.ID

	err = core.Atomic(ctx, svc.db, func(tx core.DBTransactor) error {
		updated, err = svc.repo.UpdateLesson(ctx, updated, tx)
		return errors.Wrap(err, "updating lesson")
	})
	if err != nil {
		return Lesson{}, err
	}

	updated.Status = updated.DeriveStatus(now)
	return updated, nil
}

// Delete soft-deletes the targeted lessons all-or-nothing: policy violations
// across the batch are pooled and reported together, and all tombstones land
// in one transaction.
func (svc *service) Delete(ctx context.Context, actor user.User, ids ...string) error {
	now := svc.now().UTC()

	lessons := make([]Lesson, 0, len(ids))
	for _, id := range ids {
		lsn, err := svc.repo.GetLesson(ctx, id)
		if err != nil {
			if errors.Cause(err) == ErrNotFound {
				return core.NewNotFoundError("lesson", id)
			}
			return err
		}
		lessons = append(lessons, lsn)
	}

	if violations := guardDelete(lessons, actor, now, svc.conf.Lesson.EditLeadTime); len(violations) > 0 {
		return NewPolicyViolationError(violations)
	}

	err := core.Atomic(ctx, svc.db, func(tx core.DBTransactor) error {
		return errors.Wrap(svc.repo.SoftDeleteLessons(ctx, ids, actor.ID, now, tx), "soft-deleting lessons")
	})
	if err != nil {
		return err
	}

	svc.notifyCancelled(ctx, lessons)
	return nil
}

// refSet holds every record referenced by a lesson write.
type refSet struct {
	TeacherID   string
	ClassroomID string
	CourseID    string
	SubjectID   string
	SyllabusID  string
	LectureIDs  []string
	StudentIDs  []string
}

// checkReferences verifies that every referenced record exists, returning the
// teacher and roster users for downstream use (attendee emails, notifications).
func (svc *service) checkReferences(ctx context.Context, refs refSet) (user.User, []user.User, error) {
	teacher, err := svc.usrRepo.GetUser(ctx, user.GetFilter{ID: refs.TeacherID})
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return user.User{}, nil, core.NewNotFoundError("teacher", refs.TeacherID)
		}
		return user.User{}, nil, errors.Wrap(err, "finding teacher")
	}
	if !teacher.IsTeacher() {
		return user.User{}, nil, core.NewValidationError(nil,
			core.FieldError{Field: "teacher_id", Error: "user is not a teacher"})
	}

	students, err := svc.usrRepo.GetUsersByID(ctx, refs.StudentIDs)
	if err != nil {
		return user.User{}, nil, errors.Wrap(err, "finding students")
	}
	if len(students) < len(refs.StudentIDs) {
		found := make(map[string]bool, len(students))
		for _, s := range students {
			found[s.ID] = true
		}
		for _, id := range refs.StudentIDs {
			if !found[id] {
				return user.User{}, nil, core.NewNotFoundError("student", id)
			}
		}
	}

	if _, err = svc.schoolRepo.GetClassroom(ctx, refs.ClassroomID); err != nil {
		if errors.Cause(err) == school.ErrNotFound {
			return user.User{}, nil, core.NewNotFoundError("classroom", refs.ClassroomID)
		}
		return user.User{}, nil, errors.Wrap(err, "finding classroom")
	}
	if _, err = svc.schoolRepo.GetCourse(ctx, refs.CourseID); err != nil {
		if errors.Cause(err) == school.ErrNotFound {
			return user.User{}, nil, core.NewNotFoundError("course", refs.CourseID)
		}
		return user.User{}, nil, errors.Wrap(err, "finding course")
	}
	if refs.SubjectID != "" {
		if _, err = svc.schoolRepo.GetSubject(ctx, refs.SubjectID); err != nil {
			if errors.Cause(err) == school.ErrNotFound {
				return user.User{}, nil, core.NewNotFoundError("subject", refs.SubjectID)
			}
			return user.User{}, nil, errors.Wrap(err, "finding subject")
		}
	}
	if refs.SyllabusID != "" {
		if _, err = svc.schoolRepo.GetSyllabus(ctx, refs.SyllabusID); err != nil {
			if errors.Cause(err) == school.ErrNotFound {
				return user.User{}, nil, core.NewNotFoundError("syllabus", refs.SyllabusID)
			}
			return user.User{}, nil, errors.Wrap(err, "finding syllabus")
		}
	}
	if len(refs.LectureIDs) > 0 {
		lectures, err := svc.schoolRepo.GetLecturesByID(ctx, refs.LectureIDs)
		if err != nil {
			return user.User{}, nil, errors.Wrap(err, "finding lectures")
		}
		if len(lectures) < len(refs.LectureIDs) {
			found := make(map[string]bool, len(lectures))
			for _, l := range lectures {
				found[l.ID] = true
			}
			for _, id := range refs.LectureIDs {
				if !found[id] {
					return user.User{}, nil, core.NewNotFoundError("lecture", id)
				}
			}
		}
	}

	return teacher, students, nil
}

// provisionMeetings mints one meeting link per slot with a bounded concurrency
// fan-out, matching minted links back to slots by correlation token. Any
// slot's failure fails the whole batch with per-slot detail.
func (svc *service) provisionMeetings(
	ctx context.Context,
	summary string,
	slots []TimeSlot,
	attendees []string,
) (map[string]string, error) {
	concurrency := svc.conf.Lesson.ProvisionConcurrency
	if concurrency < 1 {
		concurrency = 1
	}
	sem := make(chan struct{}, concurrency)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		links    = make(map[string]string, len(slots))
		failures []SlotFailure
	)
	for _, slot := range slots {
		wg.Add(1)
		go func(slot TimeSlot) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			start, end, _ := slot.Window()
			link, err := svc.meetSvc.MintMeetingLink(ctx, core.MeetingRequest{
				Summary:   summary,
				Start:     start,
				End:       end,
				Attendees: attendees,
				Token:     slot.Token,
			})

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, SlotFailure{Slot: slot, Reason: err.Error()})
				return
			}
			links[link.Token] = link.URL
		}(slot)
	}
	wg.Wait()

	if len(failures) > 0 {
		return nil, NewProvisioningError(failures)
	}
	return links, nil
}

func (svc *service) notify(subject, template string, lessons []Lesson, teacher user.User, students []user.User) {
	if svc.mailSvc == nil {
		return
	}

	to := make([]mail.Address, 0, len(students)+1)
	if teacher.Email != "" {
		to = append(to, mail.Address{Name: teacher.Name, Address: teacher.Email})
	}
	for _, s := range students {
		if s.Email != "" {
			to = append(to, mail.Address{Name: s.Name, Address: s.Email})
		}
	}

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           to,
		Subject:      subject,
		TemplateName: template,
		TemplateData: struct{ Lessons []Lesson }{lessons},
	})
}

func (svc *service) notifyCancelled(ctx context.Context, lessons []Lesson) {
	if svc.mailSvc == nil || len(lessons) == 0 {
		return
	}

	roster := make(map[string]bool)
	var ids []string
	for _, lsn := range lessons {
		for _, sid := range lsn.StudentIDs {
			if !roster[sid] {
				roster[sid] = true
				ids = append(ids, sid)
			}
		}
		if !roster[lsn.TeacherID] {
			roster[lsn.TeacherID] = true
			ids = append(ids, lsn.TeacherID)
		}
	}

	recipients, err := svc.usrRepo.GetUsersByID(ctx, ids)
	if err != nil {
		svc.logger.Warn("resolving cancellation recipients", err)
		return
	}
	svc.notify("Lesson cancelled", "lesson-cancelled", lessons, user.User{}, recipients)
}

func attendeeEmails(teacher user.User, students []user.User) []string {
	emails := make([]string, 0, len(students)+1)
	if teacher.Email != "" {
		emails = append(emails, teacher.Email)
	}
	for _, s := range students {
		if s.Email != "" {
			emails = append(emails, s.Email)
		}
	}
	return emails
}

// checkSlotWindow rejects malformed time windows before any query runs.
func checkSlotWindow(slot TimeSlot) error {
	start, end, err := slot.Window()
	if err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "start_time", Error: "must be a valid HH:MM time of day"})
	}
	if !end.After(start) {
		return core.NewValidationError(errors.New("invalid time window"),
			core.FieldError{Field: "end_time", Error: "must be after start_time"})
	}
	return nil
}

func truncateDate(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
}
