package handler_test

import (
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/coachhub-api/internal/dto"
	"github.com/noah-isme/coachhub-api/internal/models"
)

func TestCoachingCenterRoutesArePublic(t *testing.T) {
	a := setupApp(t)
	require.NoError(t, a.db.Create(&models.CoachingCenter{
		Slug: "apex-maths", Name: "Apex Maths Academy", City: "Pune", Subjects: []string{"maths"}, Rating: 4.7, IsVerified: true,
	}).Error)
	require.NoError(t, a.db.Create(&models.CoachingCenter{
		Slug: "river-arts", Name: "River Arts", City: "Goa", Subjects: []string{"painting"}, Rating: 4.2,
	}).Error)

	resp := a.do(t, http.MethodGet, "/api/v1/coaching-centers?subject=maths&verified=true", "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "MISS", resp.Header.Get("X-Cache"))
	var list envelope[[]dto.CoachingCenterResponse]
	decodeResponse(t, resp, &list)
	require.Len(t, list.Data, 1)
	require.Equal(t, "apex-maths", list.Data[0].Slug)
	require.EqualValues(t, 1, list.Meta.TotalItems)

	resp = a.do(t, http.MethodGet, "/api/v1/coaching-centers/river-arts", "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var center envelope[dto.CoachingCenterResponse]
	decodeResponse(t, resp, &center)
	require.Equal(t, "Goa", center.Data.City)

	resp = a.do(t, http.MethodGet, "/api/v1/coaching-centers/missing", "", nil)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp = a.do(t, http.MethodGet, "/api/v1/coaching-centers?sort=distance", "", nil)
	require.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
}
