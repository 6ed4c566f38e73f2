package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/social-account-service/pkg/apperr"
)

func init() { gin.SetMode(gin.TestMode) }

func TestBody_FieldAndNonField(t *testing.T) {
	err := apperr.List{apperr.EmailInUse.On("email"), apperr.PasswordMismatch.On("password_confirm")}
	status, body, ok := Body(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, []ErrorItem{{Message: "회원 가입을 실패하였습니다", ErrorCode: "E0010003"}}, body["email"])
	assert.Len(t, body["password_confirm"], 1)

	status, body, ok = Body(apperr.LoginEmailNotVerified)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "E0030002", body[apperr.NonField][0].ErrorCode)
}

func TestBody_UnknownIsInternal(t *testing.T) {
	status, body, ok := Body(errors.New("db down"))
	assert.False(t, ok)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "E0000000", body[apperr.NonField][0].ErrorCode)
}

func TestFail_WritesWireShape(t *testing.T) {
	w := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(w)
	ctx.Request = httptest.NewRequest(http.MethodPost, "/v1/account/refresh/", nil)

	Fail(ctx, nil, apperr.RefreshFailed.On("refresh_token"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var got map[string][]map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "E0030003", got["refresh_token"][0]["error_code"])
	assert.Equal(t, "리프래시 토큰 재발급에 실패하였습니다", got["refresh_token"][0]["message"])
}

func TestPaginate(t *testing.T) {
	w := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(w)
	ctx.Request = httptest.NewRequest(http.MethodGet, "http://api.test/v1/account/agreement/?limit=2&offset=2", nil)

	limit, offset := LimitOffset(ctx, 20, 100)
	require.Equal(t, 2, limit)
	require.Equal(t, 2, offset)

	p := Paginate(ctx, []int{3, 4}, 5, limit, offset)
	require.NotNil(t, p.Next)
	require.NotNil(t, p.Previous)
	assert.Equal(t, "http://api.test/v1/account/agreement/?limit=2&offset=4", *p.Next)
	assert.Equal(t, "http://api.test/v1/account/agreement/?limit=2&offset=0", *p.Previous)

	p = Paginate[int](ctx, nil, 0, 2, 0)
	assert.Nil(t, p.Next)
	assert.Nil(t, p.Previous)
	assert.NotNil(t, p.Results)
}
