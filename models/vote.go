package models

// Oy yönleri. Tek bir yön vardır (toggle): VoteUp varsa kaldırılır, yoksa eklenir.
// VoteClear mevcut oyu koşulsuz kaldırır.
const (
	VoteClear = 0
	VoteUp    = 1
)

// Vote, (kullanıcı, mesaj) çifti başına en fazla bir satır.
type Vote struct {
	UserID    int64 `db:"user_id"`
	MessageID int64 `db:"message_id"`
	Dir       int   `db:"dir"`
}

// VoteResult, ToggleVote'un yaptığı değişiklik.
type VoteResult string

const (
	VoteAdded     VoteResult = "added"
	VoteRemoved   VoteResult = "removed"
	VoteUnchanged VoteResult = "unchanged"
)
