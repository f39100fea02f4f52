package apperr

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys.
const (
	KeyInternal             = "error.internal"
	KeyConfig               = "error.config"
	KeyValidation           = "error.validation"
	KeyInvalidCredentials   = "error.auth.invalid_credentials"
	KeySessionRequired      = "error.auth.session_required"
	KeyManagerOnly          = "error.auth.manager_only"
	KeyForbidden            = "error.forbidden"
	KeyNotFound             = "error.not_found"
	KeyUpstream             = "error.upstream"
	KeyUpstreamDatabase     = "error.upstream.database"
	KeySubmitInProgress     = "error.comment.submit_in_progress"
	KeyConfirmationRequired = "error.comment.confirmation_required"
	KeyRecordingState       = "error.recording.state"
	KeyAudioUnavailable     = "error.audio.unavailable"
	KeyInvalidStartTime     = "error.audio.invalid_start_time"
)

var texts = map[string][2]string{ // en, ja
	KeyInternal:             {"An unexpected error occurred.", "予期しないエラーが発生しました。"},
	KeyConfig:               {"The server is not configured correctly.", "サーバーの設定に問題があります。"},
	KeyValidation:           {"Some fields are missing or invalid.", "入力内容に誤りがあります。"},
	KeyInvalidCredentials:   {"Email address or password is incorrect.", "メールアドレスまたはパスワードが正しくありません。"},
	KeySessionRequired:      {"Please log in again.", "再度ログインしてください。"},
	KeyManagerOnly:          {"This page is for managers only.", "このページはマネージャー専用です。"},
	KeyForbidden:            {"You are not allowed to change this item.", "この操作は許可されていません。"},
	KeyNotFound:             {"The requested item was not found.", "指定されたデータが見つかりません。"},
	KeyUpstream:             {"The service is temporarily unavailable.", "サービスが一時的に利用できません。"},
	KeyUpstreamDatabase:     {"Could not reach the database. Please wait a moment and try again.", "データベースに接続できませんでした。しばらく待ってから再度お試しください。"},
	KeySubmitInProgress:     {"Your comment is still being sent.", "コメントを送信中です。"},
	KeyConfirmationRequired: {"Please confirm the deletion.", "削除の確認が必要です。"},
	KeyRecordingState:       {"The recording cannot do that right now.", "現在の録音状態ではその操作はできません。"},
	KeyAudioUnavailable:     {"Audio could not be loaded.", "音声を読み込めませんでした。"},
	KeyInvalidStartTime:     {"The playback start time is invalid.", "再生開始位置が不正です。"},
}

var messages = buildCatalog()

func buildCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for key, t := range texts {
		_ = b.SetString(language.English, key, t[0])
		_ = b.SetString(language.Japanese, key, t[1])
	}
	return b
}

// Printer returns a printer for the best match of an Accept-Language value.
func Printer(acceptLanguage string) *message.Printer {
	tag, _ := language.MatchStrings(messages.Matcher(), acceptLanguage)
	return message.NewPrinter(tag, message.Catalog(messages))
}

// Message returns the localized user-facing text for err.
func Message(err error, acceptLanguage string) string {
	return Printer(acceptLanguage).Sprintf(KeyOf(err))
}

// Text returns the localized text for a message key.
func Text(key, acceptLanguage string) string {
	return Printer(acceptLanguage).Sprintf(key)
}
