package sync

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/splitleasesharath/splitlease-sub017/internal/dto"
	"github.com/splitleasesharath/splitlease-sub017/internal/entity"
	"github.com/splitleasesharath/splitlease-sub017/pkg/types/errs"
)

func TestBuildRequestInsert(t *testing.T) {
	f := newFixture()

	built, err := f.uc.BuildRequest(context.Background(), dto.BuildRequest{
		Operation: entity.OpInsert,
		TableName: "bookings_stays",
		Data: map[string]any{
			"active":        "true",
			"password_hash": "x",
		},
	})
	require.NoError(t, err)

	require.Equal(t, http.MethodPost, built.Method)
	require.Equal(t, "/api/1.1/obj/bookings-stays", built.Path)
	require.Equal(t, map[string]any{"active": true}, built.Body)

	require.Equal(t, "Bearer [REDACTED]", built.Headers["Authorization"])
	require.NotContains(t, built.Preview, "Bearer key")
	require.Contains(t, built.Curl, "curl -X POST 'https://app.example.com/api/1.1/obj/bookings-stays'")
}

func TestBuildRequestUpdateAppliesFieldMapping(t *testing.T) {
	f := newFixture()

	built, err := f.uc.BuildRequest(context.Background(), dto.BuildRequest{
		Operation:     entity.OpUpdate,
		TableName:     "listing",
		DestinationID: "dest-9",
		Data:          map[string]any{"title": "loft"},
		FieldMapping:  map[string]string{"title": "Name"},
	})
	require.NoError(t, err)

	require.Equal(t, http.MethodPatch, built.Method)
	require.Equal(t, "/api/1.1/obj/listing/dest-9", built.Path)
	require.Equal(t, map[string]any{"Name": "loft"}, built.Body)
}

func TestBuildRequestUpdateWithoutDestinationID(t *testing.T) {
	f := newFixture()

	_, err := f.uc.BuildRequest(context.Background(), dto.BuildRequest{
		Operation: entity.OpUpdate,
		TableName: "listing",
	})
	require.ErrorIs(t, err, errs.ErrRecordNotFound)
}

func TestBuildRequestGet(t *testing.T) {
	f := newFixture()

	built, err := f.uc.BuildRequest(context.Background(), dto.BuildRequest{
		Operation:     entity.Operation(http.MethodGet),
		TableName:     "user",
		DestinationID: "dest-7",
	})
	require.NoError(t, err)

	require.Equal(t, http.MethodGet, built.Method)
	require.Equal(t, "/api/1.1/obj/user/dest-7", built.Path)
	require.Nil(t, built.Body)
}
