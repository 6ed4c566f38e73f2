package apperr

import "net/http"

// General
var (
	Internal         = Define(http.StatusInternalServerError, "E0000000", "서버 오류가 발생하였습니다")
	Unauthenticated  = Define(http.StatusUnauthorized, "E0000001", "인증 정보가 유효하지 않습니다")
	Forbidden        = Define(http.StatusForbidden, "E0000002", "권한이 없습니다")
	RouteNotFound    = Define(http.StatusNotFound, "E0000003", "요청한 리소스를 찾을 수 없습니다")
	MethodNotAllowed = Define(http.StatusMethodNotAllowed, "E0000004", "허용되지 않은 메소드입니다")
	InvalidPayload   = Define(http.StatusBadRequest, "E0000005", "요청 형식이 올바르지 않습니다")
	Throttled        = Define(http.StatusTooManyRequests, "E4290001", "요청이 너무 많습니다. 잠시 후 다시 시도해주세요")
)

// Signup (E001xxxx)
var (
	InvalidEmail           = Define(http.StatusBadRequest, "E0010001", "올바른 이메일 형식이 아닙니다")
	EmailNotVerifiedSignup = Define(http.StatusBadRequest, "E0010002", "회원 가입을 실패하였습니다")
	EmailInUse             = Define(http.StatusBadRequest, "E0010003", "회원 가입을 실패하였습니다")
	InvalidPassword        = Define(http.StatusBadRequest, "E0010004", "비밀번호는 영문 소문자와 숫자를 포함한 6~30자여야 합니다")
	PasswordMismatch       = Define(http.StatusBadRequest, "E0010005", "비밀번호가 일치하지 않습니다")
)

// Signup confirmation (E002xxxx)
var (
	ConfirmInvalidHashedEmail = Define(http.StatusBadRequest, "E0020001", "유효하지 않은 인증 정보입니다")
	ConfirmInvalidToken       = Define(http.StatusBadRequest, "E0020002", "유효하지 않은 인증 토큰입니다")
	ConfirmInfoNotFound       = Define(http.StatusBadRequest, "E0020003", "인증 정보를 찾을 수 없습니다")
	EmailAlreadyVerified      = Define(http.StatusBadRequest, "E0020004", "이미 인증된 이메일입니다")
	ConfirmTokenMismatch      = Define(http.StatusBadRequest, "E0020005", "인증 토큰이 일치하지 않습니다")
)

// Session (E003xxxx)
var (
	LoginInvalidPassword  = Define(http.StatusBadRequest, "E0030001", "비밀번호가 올바르지 않습니다")
	LoginEmailNotVerified = Define(http.StatusBadRequest, "E0030002", "이메일 인증을 완료해주세요")
	RefreshFailed         = Define(http.StatusBadRequest, "E0030003", "리프래시 토큰 재발급에 실패하였습니다")
	RefreshTokenRequired  = Define(http.StatusBadRequest, "E0030004", "리프래시 토큰이 필요합니다")
	InvalidAccessToken    = Define(http.StatusUnauthorized, "E0030005", "액세스 토큰이 유효하지 않습니다")
	BlacklistFailed       = Define(http.StatusBadRequest, "E0030006", "로그아웃에 실패하였습니다")
	UserNotFound          = Define(http.StatusNotFound, "E0030007", "사용자를 찾을 수 없습니다")
)

// Password change (E004xxxx)
var (
	ChangeInvalidHashedEmail = Define(http.StatusBadRequest, "E0040001", "유효하지 않은 인증 정보입니다")
	ChangeInvalidToken       = Define(http.StatusBadRequest, "E0040002", "유효하지 않은 인증 토큰입니다")
	ChangeInfoNotFound       = Define(http.StatusBadRequest, "E0040003", "인증 정보를 찾을 수 없습니다")
	ChangeTokenMismatch      = Define(http.StatusBadRequest, "E0040005", "인증 토큰이 일치하지 않습니다")
)

// OAuth (E005xxxx)
var (
	OAuthStateMismatch = Define(http.StatusBadRequest, "E0050001", "소셜 로그인 요청이 유효하지 않습니다")
	OAuthEmailMissing  = Define(http.StatusBadRequest, "E0050002", "소셜 계정의 이메일 정보를 확인할 수 없습니다")
	OAuthIdentityInUse = Define(http.StatusConflict, "E0050003", "이미 다른 계정에 연결된 소셜 계정입니다")
	OAuthLinkMismatch  = Define(http.StatusConflict, "E0050004", "다른 소셜 계정이 이미 연결되어 있습니다")
)

// Profile (E006xxxx)
var (
	InvalidNickname = Define(http.StatusBadRequest, "E0060001", "닉네임은 공백 없이 2~30자여야 합니다")
	NicknameInUse   = Define(http.StatusBadRequest, "E0060002", "이미 사용 중인 닉네임입니다")
	InvalidAvatar   = Define(http.StatusBadRequest, "E0060003", "프로필 이미지를 업로드할 수 없습니다")
)

// Agreement catalog (E008xxxx)
var (
	AgreementImmutable      = Define(http.StatusConflict, "E0080001", "게시된 약관은 수정할 수 없습니다")
	AgreementNotFound       = Define(http.StatusNotFound, "E0080002", "약관을 찾을 수 없습니다")
	InvalidAgreementPayload = Define(http.StatusBadRequest, "E0080003", "약관 정보가 올바르지 않습니다")
)

// Consent (E009xxxx)
var (
	ConsentIDRequired       = Define(http.StatusBadRequest, "E0090001", "약관 ID와 동의 여부는 필수입니다")
	ConsentAgreementMissing = Define(http.StatusBadRequest, "E0090002", "존재하지 않는 약관입니다")
	RequiredNotAgreed       = Define(http.StatusBadRequest, "E0090003", "필수 약관에 동의해주세요")
	ActiveSetNotCovered     = Define(http.StatusBadRequest, "E0090004", "모든 약관에 대한 동의 여부가 필요합니다")
	UserAgreementNotFound   = Define(http.StatusNotFound, "E0090005", "약관 동의 내역을 찾을 수 없습니다")
)
