package echoapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	echoapi "github.com/trezcool/darasa/apps/api/echo"
	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/absence"
	"github.com/trezcool/darasa/core/lesson"
	"github.com/trezcool/darasa/core/school"
	"github.com/trezcool/darasa/core/timekeeping"
	"github.com/trezcool/darasa/core/user"
	emailsvc "github.com/trezcool/darasa/services/email"
	meetingsvc "github.com/trezcool/darasa/services/meeting"
	dummydb "github.com/trezcool/darasa/storage/database/dummy"
)

var (
	testNow = time.Date(2024, 6, 1, 6, 0, 0, 0, time.UTC)
	day     = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errForbidden    = httpErr{Error: "permission denied"}
)

type fixture struct {
	app  *echoapi.Server
	conf *core.Config

	usrRepo user.Repository
	schRepo school.Repository
	lsnRepo lesson.Repository

	admin     user.User
	teacher   user.User
	student   user.User
	student2  user.User
	classroom school.Classroom
	course    school.Course
	subject   school.Subject
}

func testConfig() *core.Config {
	conf := &core.Config{
		TestMode:  true,
		Env:       "TEST",
		AppName:   "Darasa",
		SecretKey: []byte("test-secret"),
	}
	conf.Server.JWTExpirationDelta = time.Hour
	conf.Server.JWTRefreshExpirationDelta = time.Hour
	conf.Lesson.CodePrefix = "LSN"
	conf.Lesson.EditLeadTime = 2 * time.Hour
	conf.Lesson.ProvisionConcurrency = 2
	return conf
}

func setup(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open(): %v", err)
	}

	conf := testConfig()
	f := &fixture{
		conf:    conf,
		usrRepo: dummydb.NewUserRepository(db),
		schRepo: dummydb.NewSchoolRepository(db),
		lsnRepo: dummydb.NewLessonRepository(db),
	}
	absRepo := dummydb.NewAbsenceRepository(db)
	tkRepo := dummydb.NewTimekeepingRepository(db)

	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	meetSvc := meetingsvc.NewServiceMock()

	usrSvc := user.NewService(f.usrRepo, mailSvc, conf)
	schoolSvc := school.NewService(f.schRepo)
	lsnSvc := lesson.NewServiceMock(db, f.lsnRepo, f.usrRepo, f.schRepo, meetSvc, nil, conf, testNow)
	absSvc := absence.NewServiceMock(absRepo, f.lsnRepo, testNow)
	tkSvc := timekeeping.NewServiceMock(db, tkRepo, f.lsnRepo, testNow)

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	lesson.InitValidators(validate, translator)

	f.app = echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:           conf,
			Logger:         nopLogger{},
			UserSvc:        usrSvc,
			SchoolSvc:      schoolSvc,
			LessonSvc:      lsnSvc,
			AbsenceSvc:     absSvc,
			TimekeepingSvc: tkSvc,
			Validate:       validate,
			Translator:     translator,
			DisableReqLogs: true,
		},
	)

	newUser := func(name, pwd string, roles ...string) user.User {
		usr := user.User{
			ID:       uuid.New().String(),
			Name:     name,
			Username: name,
			Email:    name + "@darasa.test",
			IsActive: true,
			Roles:    roles,
		}
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("SetPassword(): %v", err)
		}
		usr, err := f.usrRepo.CreateUser(ctx, usr)
		if err != nil {
			t.Fatalf("CreateUser(): %v", err)
		}
		return usr
	}
	f.admin = newUser("admin", "s3cr3t!", user.RoleAdminPrincipal)
	f.teacher = newUser("mwalimu", "s3cr3t!", user.RoleTeacher)
	f.student = newUser("asha", "s3cr3t!", user.RoleStudent)
	f.student2 = newUser("baraka", "s3cr3t!", user.RoleStudent)

	if f.classroom, err = f.schRepo.CreateClassroom(ctx, school.Classroom{ID: uuid.New().String(), Name: "A1"}); err != nil {
		t.Fatalf("CreateClassroom(): %v", err)
	}
	if f.course, err = f.schRepo.CreateCourse(ctx, school.Course{ID: uuid.New().String(), Name: "Mathematics"}); err != nil {
		t.Fatalf("CreateCourse(): %v", err)
	}
	if f.subject, err = f.schRepo.CreateSubject(ctx, school.Subject{ID: uuid.New().String(), Name: "Algebra", CourseID: f.course.ID}); err != nil {
		t.Fatalf("CreateSubject(): %v", err)
	}
	return f
}

// createLesson seeds a stored lesson directly, bypassing the service.
func (f *fixture) createLesson(t *testing.T, code, start, end string, students ...user.User) lesson.Lesson {
	t.Helper()

	roster := make([]string, 0, len(students))
	for _, s := range students {
		roster = append(roster, s.ID)
	}
	if len(roster) == 0 {
		roster = []string{f.student.ID}
	}

	created, err := f.lsnRepo.CreateLessons(context.Background(), []lesson.Lesson{{
		ID:          uuid.New().String(),
		Code:        code,
		Name:        "Algebra basics",
		ClassroomID: f.classroom.ID,
		CourseID:    f.course.ID,
		SubjectID:   f.subject.ID,
		TeacherID:   f.teacher.ID,
		StudentIDs:  roster,
		Date:        day,
		StartTime:   start,
		EndTime:     end,
		CreatedAt:   testNow,
		UpdatedAt:   testNow,
	}})
	if err != nil {
		t.Fatalf("CreateLessons(): %v", err)
	}
	return created[0]
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

type nopLogger struct{}

func (nopLogger) Debug(msg string, args ...interface{}) {}
func (nopLogger) Info(msg string, args ...interface{})  {}
func (nopLogger) Warn(msg string, args ...interface{})  {}
func (nopLogger) Error(msg string, args ...interface{}) {}
func (nopLogger) Fatal(msg string, args ...interface{}) {}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, conf *core.Config, usr user.User) string {
	t.Helper()

	claims := echoapi.GetUserClaims(conf, usr)
	token, err := echoapi.GenerateToken(conf, claims)
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func marshallObj(t *testing.T, obj interface{}) []byte {
	t.Helper()

	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshallObj(): %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()

	wantCode := tt.wantCode
	if wantCode == 0 {
		wantCode = http.StatusOK
	}
	if rec.Code != wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
