package auth

import (
	"regexp"
	"strconv"
)

// accessTokenPattern はQiitaアクセストークンとして許容する形式。
// 40〜64文字の16進文字列のみを受け付ける。
var accessTokenPattern = regexp.MustCompile(`^[0-9a-f]{40,64}$`)

// maxPermanentID はパーマネントIDとして許容する上限（32bit符号なし整数の最大値）。
const maxPermanentID = 1<<32 - 1

// CreateLoginSessionRequest はログインセッション作成リクエストの入力値。
// PermanentIDは整数検証を行うため文字列のまま受け取る。
type CreateLoginSessionRequest struct {
	PermanentID    string
	AccessToken    string
	QiitaAccountID string
}

// ValidateCreateLoginSession はログインセッション作成リクエストを検証し、
// フィールド名をキーとするエラーメッセージのマップを返す。
// エラーがない場合は空のマップを返す。副作用は持たない。
func ValidateCreateLoginSession(req CreateLoginSessionRequest) map[string][]string {
	fields := make(map[string][]string)

	if req.PermanentID == "" {
		fields["permanentId"] = append(fields["permanentId"], "permanentIdは必須です。")
	} else if !isValidPermanentID(req.PermanentID) {
		fields["permanentId"] = append(fields["permanentId"], "permanentIdは1以上4294967295以下の整数を指定してください。")
	}

	if req.AccessToken == "" {
		fields["accessToken"] = append(fields["accessToken"], "accessTokenは必須です。")
	} else if !accessTokenPattern.MatchString(req.AccessToken) {
		fields["accessToken"] = append(fields["accessToken"], "accessTokenの形式が不正です。")
	}

	if req.QiitaAccountID == "" {
		fields["qiitaAccountId"] = append(fields["qiitaAccountId"], "qiitaAccountIdは必須です。")
	}

	return fields
}

// isValidPermanentID はパーマネントIDが[1, 2^32-1]の整数であることを検証する。
func isValidPermanentID(s string) bool {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return false
	}
	return id >= 1 && id <= maxPermanentID
}

// parsePermanentID は検証済みのパーマネントIDを数値に変換する。
func parsePermanentID(s string) uint64 {
	id, _ := strconv.ParseUint(s, 10, 64)
	return id
}
