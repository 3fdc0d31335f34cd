package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/opsdesk/reservations-backend/pkg/errors"
)

type sampleBody struct {
	Name  string      `json:"name" validate:"required,max=5"`
	IDs   []uuid.UUID `json:"ids" validate:"required,min=1,unique"`
	Count int         `json:"count" validate:"min=0"`
}

func TestDecodeJSONBodyValidates(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"toolong","ids":[]}`))
	var body sampleBody
	err := DecodeJSONBody(req, &body)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	details, ok := pkgerrors.As(err).Details().(map[string]string)
	require.True(t, ok)
	require.Equal(t, "must be at most 5", details["name"])
	require.Equal(t, "must be at least 1", details["ids"])
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"a","ids":["`+uuid.NewString()+`"],"tenant_id":"x"}`))
	var body sampleBody
	err := DecodeJSONBody(req, &body)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestDecodeJSONBodyAcceptsValidPayload(t *testing.T) {
	id := uuid.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"room","ids":["`+id.String()+`"],"count":2}`))
	var body sampleBody
	require.NoError(t, DecodeJSONBody(req, &body))
	require.Equal(t, []uuid.UUID{id}, body.IDs)
}

func TestQueryParsers(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=10&from=2026-01-02T03:04:05Z&unread=true&resource_id=nope", nil)

	limit, err := ParseQueryInt(req, "limit", 25, 1, 100)
	require.NoError(t, err)
	require.Equal(t, 10, limit)

	from, err := ParseQueryTime(req, "from")
	require.NoError(t, err)
	require.True(t, from.Equal(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)))

	unread, err := ParseQueryBool(req, "unread")
	require.NoError(t, err)
	require.True(t, unread)

	_, err = ParseQueryUUID(req, "resource_id")
	require.Error(t, err)

	missing, err := ParseQueryUUID(req, "absent")
	require.NoError(t, err)
	require.Nil(t, missing)

	_, err = ParseQueryInt(httptest.NewRequest(http.MethodGet, "/?limit=1000", nil), "limit", 25, 1, 100)
	require.Error(t, err)
}

func TestPathUUID(t *testing.T) {
	id := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rc := chi.NewRouteContext()
	rc.URLParams.Add("id", id.String())
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))

	got, err := PathUUID(req, "id")
	require.NoError(t, err)
	require.Equal(t, id, got)

	_, err = PathUUID(req, "other")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestSanitizeStringKeepsRunesWhole(t *testing.T) {
	reason := "a" + strings.Repeat("é", 250)
	require.Equal(t, reason, SanitizeString("  "+reason+" ", 500))

	cut := SanitizeString(strings.Repeat("é", 10), 3)
	require.Equal(t, "ééé", cut)
	require.True(t, utf8.ValidString(cut))

	require.Equal(t, "abc", SanitizeString(" abc ", 0))
}
