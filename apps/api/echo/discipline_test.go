package echoapi

import (
	"net/http"
	"testing"

	"github.com/renshulabs/academy/core/discipline"
)

func TestDisciplineApi(t *testing.T) {
	app := initApp(t)
	adm := app.createAdmin(t, "sensei@renshu.app", "Sensei", "correct-horse")
	token := app.getToken(t, adm)

	tests := []httpTest{
		{
			name:     "registry requires auth",
			path:     "/v1/disciplines",
			wantCode: http.StatusUnauthorized,
			wantData: marshallObj(t, errMissingToken),
		},
		{
			name:     "full registry",
			path:     "/v1/disciplines",
			token:    token,
			wantCode: http.StatusOK,
			wantData: marshallObj(t, discipline.All()),
		},
		{
			name:     "by name",
			path:     "/v1/disciplines/Judo",
			token:    token,
			wantCode: http.StatusOK,
			wantData: marshallObj(t, discipline.Get("Judo")),
		},
		{
			name:     "case-insensitive name",
			path:     "/v1/disciplines/judo",
			token:    token,
			wantCode: http.StatusOK,
			wantData: marshallObj(t, discipline.Get("Judo")),
		},
		{
			name:     "unknown name",
			path:     "/v1/disciplines/Sumo",
			token:    token,
			wantCode: http.StatusNotFound,
			wantData: marshallObj(t, httpErr{Error: "not found"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			app.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
