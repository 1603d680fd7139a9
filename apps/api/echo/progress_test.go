package echoapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/renshulabs/academy/core/progress"
)

const bjj = "Brazilian Jiu-Jitsu"

func promoteBody(t *testing.T, studentID, program, toBelt string) []byte {
	return marshallObj(t, progress.Promotion{
		StudentID: studentID,
		Program:   program,
		ToBelt:    toBelt,
	})
}

func TestProgressApi_promote(t *testing.T) {
	app := initApp(t)
	adm := app.createAdmin(t, "sensei@renshu.app", "Sensei", "correct-horse")
	token := app.getToken(t, adm)
	std := app.createStudent(t, "Aiko Tanaka", "123456789012", bjj)

	type promoteResponse struct {
		Progress progress.Progress `json:"progress"`
		Entry    progress.Entry    `json:"entry"`
	}

	// first-ever promotion on the track: no prior belt
	req, rec := newAuthRequest(http.MethodPost, "/v1/progress/promote", token, promoteBody(t, std.ID, bjj, "White"))
	app.server.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp promoteResponse
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "White", resp.Progress.Belt)
	assert.Equal(t, progress.StatusNeedsWork, resp.Progress.Status)
	assert.Empty(t, resp.Entry.FromBelt)
	assert.Equal(t, "White", resp.Entry.ToBelt)

	// stripes accumulate, then the next promotion resets them
	for i := 0; i < 3; i++ {
		sReq, sRec := newAuthRequest(
			http.MethodPatch,
			fmt.Sprintf("/v1/students/%s/progress/%s/stripes", std.ID, url.PathEscape(bjj)),
			token,
			marshallObj(t, stripeRequest{Delta: 1}),
		)
		app.server.ServeHTTP(sRec, sReq)
		assert.Equal(t, http.StatusOK, sRec.Code)
	}

	req, rec = newAuthRequest(http.MethodPost, "/v1/progress/promote", token, promoteBody(t, std.ID, bjj, "Blue"))
	app.server.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Blue", resp.Progress.Belt)
	assert.Equal(t, 0, resp.Progress.StripeCount)
	assert.Equal(t, "White", resp.Entry.FromBelt)

	// history comes back newest-first
	hReq, hRec := newAuthRequest(http.MethodGet, fmt.Sprintf("/v1/students/%s/history", std.ID), token)
	app.server.ServeHTTP(hRec, hReq)
	assert.Equal(t, http.StatusOK, hRec.Code)
	var entries []progress.Entry
	assert.NoError(t, json.Unmarshal(hRec.Body.Bytes(), &entries))
	if assert.Len(t, entries, 2) {
		assert.Equal(t, "Blue", entries[0].ToBelt)
		assert.Equal(t, "White", entries[1].ToBelt)
	}
}

func TestProgressApi_promote_validation(t *testing.T) {
	app := initApp(t)
	adm := app.createAdmin(t, "sensei@renshu.app", "Sensei", "correct-horse")
	token := app.getToken(t, adm)
	std := app.createStudent(t, "Aiko Tanaka", "123456789012", bjj)

	tests := []httpTest{
		{
			name:     "unknown program",
			body:     promoteBody(t, std.ID, "Sumo", "White"),
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{"program": "program has no progression configuration"}),
		},
		{
			name:     "unknown rank",
			body:     promoteBody(t, std.ID, bjj, "Red"),
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{"to_belt": "not a rank of this program"}),
		},
		{
			name:     "missing target belt",
			body:     promoteBody(t, std.ID, bjj, ""),
			wantCode: http.StatusBadRequest,
			wantData: marshallObj(t, map[string]string{"to_belt": "this field is required"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/v1/progress/promote", token, tt.body)
			app.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func TestProgressApi_stripes_nonStripeProgram(t *testing.T) {
	app := initApp(t)
	adm := app.createAdmin(t, "sensei@renshu.app", "Sensei", "correct-horse")
	token := app.getToken(t, adm)
	std := app.createStudent(t, "Kenji Mori", "222222222222", "Judo")

	req, rec := newAuthRequest(http.MethodPost, "/v1/progress/promote", token, promoteBody(t, std.ID, "Judo", "White"))
	app.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	sReq, sRec := newAuthRequest(
		http.MethodPatch,
		fmt.Sprintf("/v1/students/%s/progress/Judo/stripes", std.ID),
		token,
		marshallObj(t, stripeRequest{Delta: 1}),
	)
	app.server.ServeHTTP(sRec, sReq)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusBadRequest,
		wantData: marshallObj(t, map[string]string{"program": "program has no stripe system"}),
	}, sRec)
}

func TestProgressApi_setStatus(t *testing.T) {
	app := initApp(t)
	adm := app.createAdmin(t, "sensei@renshu.app", "Sensei", "correct-horse")
	token := app.getToken(t, adm)
	std := app.createStudent(t, "Aiko Tanaka", "123456789012", bjj)

	req, rec := newAuthRequest(http.MethodPost, "/v1/progress/promote", token, promoteBody(t, std.ID, bjj, "White"))
	app.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	path := fmt.Sprintf("/v1/students/%s/progress/%s/status", std.ID, url.PathEscape(bjj))
	req, rec = newAuthRequest(http.MethodPatch, path, token, marshallObj(t, progress.UpdateStatus{Status: progress.StatusReady}))
	app.server.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var p progress.Progress
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, progress.StatusReady, p.Status)

	// the status vocabulary is closed
	req, rec = newAuthRequest(http.MethodPatch, path, token, marshallObj(t, progress.UpdateStatus{Status: "graduated"}))
	app.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProgressApi_queryByStudent(t *testing.T) {
	app := initApp(t)
	adm := app.createAdmin(t, "sensei@renshu.app", "Sensei", "correct-horse")
	token := app.getToken(t, adm)
	std := app.createStudent(t, "Aiko Tanaka", "123456789012", bjj)

	// no records yet: empty list, not an error
	req, rec := newAuthRequest(http.MethodGet, fmt.Sprintf("/v1/students/%s/progress", std.ID), token)
	app.server.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: []byte("[]")}, rec)

	pReq, pRec := newAuthRequest(http.MethodPost, "/v1/progress/promote", token, promoteBody(t, std.ID, bjj, "White"))
	app.server.ServeHTTP(pRec, pReq)
	assert.Equal(t, http.StatusOK, pRec.Code)

	req, rec = newAuthRequest(http.MethodGet, fmt.Sprintf("/v1/students/%s/progress", std.ID), token)
	app.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	var records []progress.Progress
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
	assert.Len(t, records, 1)

	// absent (student, program) pair is a 404
	req, rec = newAuthRequest(http.MethodGet, fmt.Sprintf("/v1/students/%s/progress/Judo", std.ID), token)
	app.server.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusNotFound,
		wantData: marshallObj(t, httpErr{Error: "progress record not found"}),
	}, rec)
}
