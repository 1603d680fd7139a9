package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"reflect"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	"github.com/renshulabs/academy/core"
	"github.com/renshulabs/academy/core/admin"
	"github.com/renshulabs/academy/core/event"
	"github.com/renshulabs/academy/core/fee"
	"github.com/renshulabs/academy/core/progress"
	"github.com/renshulabs/academy/core/student"
	emailsvc "github.com/renshulabs/academy/services/email"
	"github.com/renshulabs/academy/storage/cache"
	dummydb "github.com/renshulabs/academy/storage/database/dummy"
	"github.com/renshulabs/academy/storage/files"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

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
	extra    interface{}
}

type testApp struct {
	server Server
	conf   *core.Config

	adminRepo   admin.Repository
	adminSvc    *admin.Service
	studentSvc  *student.Service
	feeSvc      *fee.Service
	progressSvc *progress.Service
	eventSvc    *event.Service
	store       *files.Store
}

func initApp(t *testing.T) *testApp {
	conf := &core.Config{
		TestMode:  true,
		Env:       "TEST",
		AppName:   "Renshu",
		SecretKey: []byte("secret"),
		Server: core.ServerConfig{
			JWTExpirationDelta:        10 * time.Minute,
			JWTRefreshExpirationDelta: 4 * time.Hour,
		},
		Redis:   core.RedisConfig{CacheTTL: 5 * time.Minute},
		Storage: core.StorageConfig{Root: t.TempDir(), SignedURLTTL: 30 * time.Minute},
	}

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("initApp() failed: %v", err)
	}
	store, err := files.NewStore(conf)
	if err != nil {
		t.Fatalf("initApp() failed: %v", err)
	}

	appCache := cache.NewMemory()
	mailSvc := emailsvc.NewConsoleServiceMock(conf)

	validate := validator.New()
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	core.InitValidators(validate, translator)

	adminRepo := dummydb.NewAdminRepository(db)
	app := &testApp{
		conf:        conf,
		adminRepo:   adminRepo,
		adminSvc:    admin.NewService(adminRepo, mailSvc),
		studentSvc:  student.NewService(dummydb.NewStudentRepository(db)),
		feeSvc:      fee.NewService(dummydb.NewFeeRepository(db), appCache, mailSvc, conf),
		progressSvc: progress.NewService(dummydb.NewProgressRepository(db)),
		eventSvc:    event.NewService(dummydb.NewEventRepository(db), appCache, conf),
		store:       store,
	}
	app.server = NewServer(&Options{
		DisableReqLogs: true,
		Conf:           conf,
		Logger:         core.NewStdLogger(log.New(os.Stdout, "TEST : ", log.LstdFlags)),
		Validate:       validate,
		Translator:     translator,
		AdminSvc:       app.adminSvc,
		StudentSvc:     app.studentSvc,
		FeeSvc:         app.feeSvc,
		ProgressSvc:    app.progressSvc,
		EventSvc:       app.eventSvc,
		FileStore:      store,
		SignalShutdown: func() {},
	})
	return app
}

func (app *testApp) createAdmin(t *testing.T, email, name, pwd string) admin.Admin {
	adm, err := app.adminSvc.Register(context.Background(), admin.NewAdmin{
		Email:    email,
		Name:     name,
		Password: pwd,
	})
	if err != nil {
		t.Fatalf("createAdmin() failed: %v", err)
	}
	return adm
}

func (app *testApp) createStudent(t *testing.T, name, natID, program string) student.Student {
	s, err := app.studentSvc.Create(context.Background(), student.NewStudent{
		Name:       name,
		NationalID: natID,
		Program:    program,
		JoinedOn:   time.Date(2023, time.March, 10, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("createStudent() failed: %v", err)
	}
	return s
}

func (app *testApp) getToken(t *testing.T, adm admin.Admin) string {
	token, err := GenerateToken(app.conf, getAdminClaims(app.conf, adm))
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
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

func marshallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshallObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
