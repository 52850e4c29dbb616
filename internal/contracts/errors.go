package contracts

// User-facing failure messages.
const (
	MsgAddFailed    = "契約の追加に失敗しました"
	MsgUpdateFailed = "契約の更新に失敗しました"
	MsgDeleteFailed = "契約の削除に失敗しました"
	MsgLoadFailed   = "契約一覧の読み込みに失敗しました"
	MsgResetFailed  = "データの初期化に失敗しました"
	MsgResyncFailed = "リマインダーの再設定に失敗しました"
	MsgNotFound     = "契約が見つかりません"

	MsgCancelRemindersFailed = "リマインダーの取り消しに失敗しました"
)

// Error is returned by every Manager operation. Msg is safe to show to the
// user; Err is the underlying cause.
type Error struct {
	Op  string
	Msg string
	Err error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	return e.Msg + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }
