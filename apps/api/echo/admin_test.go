package echoapi

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/renshulabs/academy/core/admin"
)

func TestAdminApi_login(t *testing.T) {
	app := initApp(t)
	adm := app.createAdmin(t, "sensei@renshu.app", "Sensei", "correct-horse")

	// deactivated account for the 403 case
	deact := app.createAdmin(t, "retired@renshu.app", "Retired", "correct-horse")
	deact.IsActive = false
	if _, err := app.adminRepo.UpdateOrCreateAdmin(context.Background(), deact); err != nil {
		t.Fatalf("deactivating admin failed: %v", err)
	}

	t.Run("success", func(t *testing.T) {
		body := marshallObj(t, LoginRequest{Email: adm.Email, Password: "correct-horse"})
		req, rec := newRequest(http.MethodPost, "/v1/admins/login", body)
		app.server.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp LoginResponse
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.Token)
	})

	tests := []httpTest{
		{
			name:     "wrong password",
			body:     marshallObj(t, LoginRequest{Email: adm.Email, Password: "wrong"}),
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name:     "unknown email",
			body:     marshallObj(t, LoginRequest{Email: "nobody@renshu.app", Password: "correct-horse"}),
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name:     "deactivated account",
			body:     marshallObj(t, LoginRequest{Email: deact.Email, Password: "correct-horse"}),
			wantCode: http.StatusForbidden,
			wantData: marshallObj(t, httpErr{Error: "account deactivated"}),
		},
		{
			name:     "invalid email",
			body:     marshallObj(t, LoginRequest{Email: "not-an-email", Password: "correct-horse"}),
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{"email": "email must be a valid email address"}),
		},
		{
			name:     "missing password",
			body:     marshallObj(t, LoginRequest{Email: adm.Email}),
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{"password": "this field is required"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/admins/login", tt.body)
			app.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func TestAdminApi_query(t *testing.T) {
	app := initApp(t)
	adm := app.createAdmin(t, "sensei@renshu.app", "Sensei", "correct-horse")
	token := app.getToken(t, adm)

	// a token proves the email; the allow-list still gates the request
	ghostToken := app.getToken(t, admin.Admin{Email: "ghost@renshu.app", Name: "Ghost"})

	admins, err := app.adminSvc.QueryAll(context.Background())
	if err != nil {
		t.Fatalf("QueryAll() failed: %v", err)
	}

	tests := []httpTest{
		{
			name:     "no token",
			wantCode: http.StatusUnauthorized,
			wantData: marshallObj(t, errMissingToken),
		},
		{
			name:     "garbage token",
			token:    "not.a.token",
			wantCode: http.StatusUnauthorized,
			wantData: marshallObj(t, httpErr{Error: "invalid or expired jwt"}),
		},
		{
			name:     "email not on the allow-list",
			token:    ghostToken,
			wantCode: http.StatusForbidden,
			wantData: marshallObj(t, httpErr{Error: "email ghost@renshu.app is not in the admin allow-list"}),
		},
		{
			name:     "ok",
			token:    token,
			wantCode: http.StatusOK,
			wantData: marshallObj(t, admins),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, "/v1/admins", tt.token)
			app.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func TestAdminApi_register(t *testing.T) {
	app := initApp(t)
	adm := app.createAdmin(t, "sensei@renshu.app", "Sensei", "correct-horse")
	token := app.getToken(t, adm)

	body := marshallObj(t, admin.NewAdmin{
		Email:    "uke@renshu.app",
		Name:     "Uke",
		Password: "grip-fighting",
	})
	req, rec := newAuthRequest(http.MethodPost, "/v1/admins", token, body)
	app.server.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	var created admin.Admin
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "uke@renshu.app", created.Email)
	assert.True(t, created.IsActive)

	// the new entry can log in right away
	lBody := marshallObj(t, LoginRequest{Email: "uke@renshu.app", Password: "grip-fighting"})
	lReq, lRec := newRequest(http.MethodPost, "/v1/admins/login", lBody)
	app.server.ServeHTTP(lRec, lReq)
	assert.Equal(t, http.StatusOK, lRec.Code)
}

func TestAdminApi_refreshToken(t *testing.T) {
	app := initApp(t)
	adm := app.createAdmin(t, "sensei@renshu.app", "Sensei", "correct-horse")
	token := app.getToken(t, adm)

	req, rec := newAuthRequest(http.MethodPost, "/v1/admins/token-refresh", token)
	app.server.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp TokenResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)

	// a revoked email cannot refresh
	ghostToken := app.getToken(t, admin.Admin{Email: "ghost@renshu.app"})
	req, rec = newAuthRequest(http.MethodPost, "/v1/admins/token-refresh", ghostToken)
	app.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
